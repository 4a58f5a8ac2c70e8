package ffcal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/mrjoshuak/go-jpeg2000"

	"github.com/mrjoshuak/go-ffbin/ff"
)

// isJPEG2000 reports whether path names a raw JPEG 2000 codestream or a
// JP2 file.
func isJPEG2000(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".j2k", ".j2c", ".jpc", ".jp2":
		return true
	}
	return false
}

// LoadFrame reads a single-channel calibration image. Color images are
// converted to gray with the standard luma weights. PNG, BMP, TIFF, JPEG
// and GIF are read through imaging.
//
// JPEG 2000 files (.j2k, .j2c, .jpc, .jp2) are recognised but not loaded:
// the codec's pixel decoder returns the DC level for every sample, so the
// header is parsed to identify the file and ErrUnsupportedImage is
// returned.
func LoadFrame(path string) (*ff.Frame, error) {
	if isJPEG2000(path) {
		return nil, jpeg2000Unsupported(path)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	return ff.FrameFromImage(img), nil
}

// jpeg2000Unsupported describes a JPEG 2000 calibration file in the error
// that rejects it.
func jpeg2000Unsupported(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	meta, err := jpeg2000.DecodeMetadata(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: jpeg2000 header: %w", filepath.Base(path), err)
	}
	return fmt.Errorf("%w: %s: %dx%d JPEG 2000 image with %d components, pixel data cannot be decoded",
		ErrUnsupportedImage, filepath.Base(path), meta.Width, meta.Height, meta.NumComponents)
}

// LoadDark reads a dark frame.
func LoadDark(path string) (*ff.Frame, error) {
	return LoadFrame(path)
}

// LoadFlat reads a flat frame and computes its median.
func LoadFlat(path string) (*CalibrationFrame, error) {
	f, err := LoadFrame(path)
	if err != nil {
		return nil, err
	}
	return NewCalibrationFrame(f), nil
}

// SaveFrame writes f as an 8-bit gray image. The format follows the file
// extension and must be one imaging writes; PNG, BMP and TIFF round-trip
// exactly. JPEG 2000 output is rejected with ErrUnsupportedImage because it
// cannot be read back.
func SaveFrame(path string, f *ff.Frame) error {
	if isJPEG2000(path) {
		return fmt.Errorf("%w: %s: JPEG 2000 calibration files cannot be read back", ErrUnsupportedImage, filepath.Base(path))
	}
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedImage, filepath.Base(path))
	}
	return imaging.Save(f.Gray(), path)
}
