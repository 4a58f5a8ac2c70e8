// Package ff decodes FF containers written by meteor-detection cameras and
// reconstructs individual video frames from them.
//
// An FF container does not store a frame stack. It stores four summary
// planes for a whole exposure: the brightest value seen at each pixel
// (MaxPixel), the frame in which it was seen (MaxFrame), the temporal mean
// (AvePixel) and the temporal standard deviation (StdPixel). Any frame k can
// be synthesized by showing MaxPixel wherever MaxFrame == k and the average
// everywhere else.
//
// Four on-disk variants are supported:
//
//   - legacy CAMS binary (leading int32 is the row count)
//   - extended CAMS binary (leading int32 is -1)
//   - RMS FITS (planes in image extensions 1..4)
//   - Skypatrol BMP (MaxFrame and MaxPixel packed into the RGB channels)
//
// Example usage:
//
//	rec, err := ff.DecodeFile("FF451_20140819_003718_000_0397568.bin", ff.FormatAuto)
//	if err != nil {
//		return err
//	}
//	frame, err := rec.Reconstruct(120, ff.ModeVideo)
package ff

import (
	"errors"
	"fmt"
)

// Revision identifies the on-disk variant a record was decoded from.
type Revision int

const (
	RevisionLegacy Revision = iota
	RevisionExtended
	RevisionFITS
	RevisionSkypatrol
)

// String returns the revision name.
func (r Revision) String() string {
	switch r {
	case RevisionLegacy:
		return "legacy"
	case RevisionExtended:
		return "extended"
	case RevisionFITS:
		return "fits"
	case RevisionSkypatrol:
		return "skypatrol"
	default:
		return fmt.Sprintf("Revision(%d)", int(r))
	}
}

// SkypatrolFrameCount is the nominal number of frames in a Skypatrol
// exposure, which carries no frame count of its own.
const SkypatrolFrameCount = 1500

// MaxPixels bounds rows*cols for a decoded container. It admits a
// 3840x2160 sensor; larger headers are treated as corrupt.
const MaxPixels = 8 << 20

// Record is the canonical in-memory form of one FF container. It is
// immutable once returned by a decoder; operations that derive frames from
// it allocate new arrays.
type Record struct {
	Revision Revision

	Rows int
	Cols int

	// FrameCount is the number of frames the exposure covers: 2^BitDepth
	// for legacy files, explicit for extended and FITS files.
	FrameCount int
	BitDepth   int

	FirstFrame int
	StationID  int

	// Extended-format metadata. Decimation defaults to 1, Interleave to 0
	// (progressive) and FPS to 0 when the container does not carry them.
	Decimation int
	Interleave int
	FPS        float64

	MaxPixel *Frame
	MaxFrame *IndexPlane
	AvePixel *Frame
	StdPixel *Frame

	// BrightnessRatio is mean(MaxPixel)/mean(AvePixel), or 0 when the
	// average plane is all zero. Video reconstruction brightens frames
	// when it exceeds BrightenThreshold.
	BrightnessRatio float64

	// LoadErr is set when the header decoded but the pixel planes did not.
	// MaxPixel then holds a placeholder frame marked "IMAGE LOADING ERROR"
	// and the other planes are zero.
	LoadErr error
}

// Placeholder reports whether the record holds the error placeholder
// instead of decoded planes.
func (r *Record) Placeholder() bool {
	return r.LoadErr != nil
}

// newRecord returns a record with the extended-format defaults.
func newRecord(rev Revision) *Record {
	return &Record{Revision: rev, Decimation: 1}
}

// finish computes the derived fields once the planes are in place.
func (r *Record) finish() {
	ave := r.AvePixel.Mean()
	if ave == 0 {
		r.BrightnessRatio = 0
		return
	}
	r.BrightnessRatio = r.MaxPixel.Mean() / ave
}

// setPlaceholder replaces the planes with the loading-error placeholder.
func (r *Record) setPlaceholder(cause error) {
	r.MaxPixel = errorFrame(r.Rows, r.Cols)
	r.MaxFrame = NewIndexPlane(r.Rows, r.Cols)
	r.AvePixel = NewFrame(r.Rows, r.Cols)
	r.StdPixel = NewFrame(r.Rows, r.Cols)
	r.LoadErr = cause
}

// Validate checks the record invariants: all planes present with the
// record's shape, and every MaxFrame index below FrameCount.
func (r *Record) Validate() error {
	var errs []error
	if r.Rows <= 0 || r.Cols <= 0 {
		errs = append(errs, fmt.Errorf("%w: %dx%d", ErrDimensions, r.Rows, r.Cols))
	}
	for _, p := range []struct {
		name string
		f    *Frame
	}{
		{"maxpixel", r.MaxPixel},
		{"avepixel", r.AvePixel},
		{"stdpixel", r.StdPixel},
	} {
		if p.f == nil || p.f.Rows != r.Rows || p.f.Cols != r.Cols || len(p.f.Pix) != r.Rows*r.Cols {
			errs = append(errs, fmt.Errorf("%w: %s plane", ErrShapeMismatch, p.name))
		}
	}
	if r.MaxFrame == nil || r.MaxFrame.Rows != r.Rows || r.MaxFrame.Cols != r.Cols || len(r.MaxFrame.Pix) != r.Rows*r.Cols {
		errs = append(errs, fmt.Errorf("%w: maxframe plane", ErrShapeMismatch))
	} else if m := r.MaxFrame.Max(); m >= r.FrameCount {
		errs = append(errs, fmt.Errorf("%w: maxframe value %d with %d frames", ErrFrameIndex, m, r.FrameCount))
	}
	return errors.Join(errs...)
}
