// Package ffmeta extracts metadata that FF files carry outside their
// headers: the station, capture time and frame counter encoded in the file
// name, and summary statistics of the decoded planes.
package ffmeta

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mrjoshuak/go-ffbin/compression"
	"github.com/mrjoshuak/go-ffbin/ff"
)

// ErrName is returned for a file name that follows none of the known
// patterns.
var ErrName = fmt.Errorf("%w: not an FF file name", ff.ErrValue)

// Kind identifies the naming scheme of a file.
type Kind int

const (
	// KindCAMS is FF451_20140819_003718_000_0397568.bin.
	KindCAMS Kind = iota
	// KindCAMSExtended is FF_000432_20161024_075333_209_0944384.bin.
	KindCAMSExtended
	// KindRMS is FF_CA0001_20161024_075333_209_0944384.fits.
	KindRMS
	// KindSkypatrol is 00000171.bmp.
	KindSkypatrol
)

// String returns the scheme name.
func (k Kind) String() string {
	switch k {
	case KindCAMS:
		return "cams"
	case KindCAMSExtended:
		return "cams-extended"
	case KindRMS:
		return "rms"
	case KindSkypatrol:
		return "skypatrol"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Name is the parsed form of an FF file name.
type Name struct {
	Kind Kind

	// Station is the camera or station code, without the FF prefix.
	// Skypatrol names carry none.
	Station string

	// Time is the UTC start of the capture with millisecond precision.
	// It is zero for Skypatrol names.
	Time time.Time

	// FrameCounter is the camera's running frame number at the start of
	// the capture; for Skypatrol it is the file sequence number.
	FrameCounter int

	// Format is the decoder to use for the file.
	Format ff.Format

	// Codec is the whole-file compression indicated by a trailing
	// extension such as ".gz".
	Codec compression.Codec
}

const timeLayout = "20060102150405"

// ParseName parses the base name of path.
func ParseName(path string) (*Name, error) {
	base := filepath.Base(path)
	name := base
	codec := compression.CodecForExt(filepath.Ext(name))
	if codec != compression.CodecNone {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	ext := strings.ToLower(filepath.Ext(name))
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	var (
		n   *Name
		err error
	)
	switch ext {
	case ".bin":
		n, err = parseStation(stem, false)
	case ".fits", ".fit":
		n, err = parseStation(stem, true)
	case ".bmp":
		n, err = parseSkypatrol(stem)
	default:
		err = ErrName
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", base, err)
	}
	n.Codec = codec
	return n, nil
}

// parseStation parses FFsss_date_time_ms_counter and
// FF_station_date_time_ms_counter.
func parseStation(stem string, fits bool) (*Name, error) {
	if !strings.HasPrefix(strings.ToUpper(stem), "FF") {
		return nil, ErrName
	}
	f := strings.Split(stem, "_")
	n := &Name{Format: ff.FormatAuto}
	switch {
	case fits && len(f) == 6 && f[0] == "FF":
		n.Kind = KindRMS
		n.Format = ff.FormatFITS
		n.Station = f[1]
		f = f[2:]
	case !fits && len(f) == 6 && f[0] == "FF" && isDigits(f[1], 6):
		n.Kind = KindCAMSExtended
		n.Station = f[1]
		f = f[2:]
	case !fits && len(f) == 5 && isDigits(f[0][2:], 3):
		n.Kind = KindCAMS
		n.Station = f[0][2:]
		f = f[1:]
	default:
		return nil, ErrName
	}
	if n.Station == "" {
		return nil, ErrName
	}

	date, clock, ms, counter := f[0], f[1], f[2], f[3]
	if !isDigits(date, 8) || !isDigits(clock, 6) || !isDigits(ms, 3) || !isDigits(counter, 7) {
		return nil, ErrName
	}
	t, err := time.Parse(timeLayout, date+clock)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrName, err)
	}
	msec, _ := strconv.Atoi(ms)
	n.Time = t.Add(time.Duration(msec) * time.Millisecond)
	n.FrameCounter, _ = strconv.Atoi(counter)
	return n, nil
}

func parseSkypatrol(stem string) (*Name, error) {
	if !isDigits(stem, 8) {
		return nil, ErrName
	}
	seq, _ := strconv.Atoi(stem)
	return &Name{
		Kind:         KindSkypatrol,
		FrameCounter: seq,
		Format:       ff.FormatSkypatrol,
	}, nil
}

// isDigits reports whether s is exactly n ASCII digits.
func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
