package ff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrjoshuak/go-ffbin/compression"
)

// Format selects the decoder. FormatAuto picks one from the file name or
// the leading bytes; the explicit values are needed for variants that cannot
// be recognised from content alone.
type Format int

const (
	FormatAuto Format = iota
	FormatLegacy
	FormatExtended
	FormatFITS
	FormatSkypatrol
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatLegacy:
		return "legacy"
	case FormatExtended:
		return "extended"
	case FormatFITS:
		return "fits"
	case FormatSkypatrol:
		return "skypatrol"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses a format name as accepted on command lines.
// "cams" and "bin" select the binary decoder with the version tag deciding
// between legacy and extended layout; "rms" is an alias for "fits".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto", "cams", "bin":
		return FormatAuto, nil
	case "legacy":
		return FormatLegacy, nil
	case "extended":
		return FormatExtended, nil
	case "fits", "rms":
		return FormatFITS, nil
	case "skypatrol", "bmp":
		return FormatSkypatrol, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatForPath guesses the format from a file name, ignoring a trailing
// compression extension. Binary files return FormatAuto so that the version
// tag decides.
func FormatForPath(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)
	if compression.CodecForExt(ext) != compression.CodecNone {
		name = strings.TrimSuffix(name, ext)
		ext = filepath.Ext(name)
	}
	switch ext {
	case ".fits", ".fit":
		return FormatFITS
	case ".bmp":
		return FormatSkypatrol
	default:
		return FormatAuto
	}
}

var fitsMagic = []byte("SIMPLE  =")

// sniff picks a format from content.
func sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, fitsMagic):
		return FormatFITS
	case bytes.HasPrefix(data, []byte("BM")):
		return FormatSkypatrol
	case len(data) >= 4 && int32(binary.LittleEndian.Uint32(data)) == extendedTag:
		return FormatExtended
	default:
		return FormatLegacy
	}
}

// Decode decodes an FF container held in memory. Gzip or zstd compressed
// input is unwrapped first.
//
// A header that cannot be read fails with an error wrapping ErrFormat. A
// header that decodes but whose pixel planes are short does not fail: the
// record comes back with LoadErr set and a placeholder MaxPixel, so that one
// corrupt file does not abort a listing or an export. For FITS the header is
// the primary unit: a missing or cut-off image extension yields a
// placeholder, while a damaged primary unit fails with ErrFormat.
func Decode(data []byte, format Format) (*Record, error) {
	data, _, err := compression.Unwrap(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if format == FormatAuto {
		format = sniff(data)
	}

	var rec *Record
	switch format {
	case FormatLegacy, FormatExtended:
		rec, err = decodeCAMS(data, format)
	case FormatFITS:
		rec, err = decodeFITS(data)
	case FormatSkypatrol:
		rec, err = decodeSkypatrol(data)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	rec.finish()
	return rec, nil
}

// DecodeReader reads r to the end and decodes it.
func DecodeReader(r io.Reader, format Format) (*Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(data, format)
}

// DecodeFile decodes the FF container at path. With FormatAuto the file
// extension is consulted before the content.
func DecodeFile(path string, format Format) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if format == FormatAuto {
		format = FormatForPath(path)
	}
	rec, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

// planeSize validates the dimensions and returns rows*cols.
func planeSize(rows, cols int) (int, error) {
	if rows <= 0 || cols <= 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrDimensions, rows, cols)
	}
	if rows > MaxPixels/cols {
		return 0, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDimensions, rows, cols, MaxPixels)
	}
	return rows * cols, nil
}
