// Package ffcal applies radiometric calibration to frames reconstructed from
// FF containers: dark subtraction, flat-field division, field extraction,
// deinterlacing and level/gamma adjustment. It also builds flat fields from
// a batch of FF files and derives detection-only composites.
//
// Every function returns a newly allocated frame; inputs are never
// modified.
package ffcal

import (
	"fmt"

	"github.com/mrjoshuak/go-ffbin/ff"
)

// Field selects one interlaced field.
type Field int

const (
	FieldNone Field = iota
	FieldOdd
	FieldEven
)

// String returns the field name.
func (f Field) String() string {
	switch f {
	case FieldNone:
		return "none"
	case FieldOdd:
		return "odd"
	case FieldEven:
		return "even"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// ParseField parses "none", "odd" or "even". The empty string is FieldNone.
func ParseField(s string) (Field, error) {
	switch s {
	case "", "none":
		return FieldNone, nil
	case "odd":
		return FieldOdd, nil
	case "even":
		return FieldEven, nil
	default:
		return FieldNone, fmt.Errorf("%w: field %q", ff.ErrValue, s)
	}
}

// CalibrationFrame is a flat field together with its median intensity,
// which renormalizes frames after division. The median is computed when the
// flat is built or loaded and is never stored on disk.
type CalibrationFrame struct {
	*ff.Frame
	Median int
}

// NewCalibrationFrame wraps f and computes its median.
func NewCalibrationFrame(f *ff.Frame) *CalibrationFrame {
	return &CalibrationFrame{Frame: f, Median: medianScalar(f.Pix)}
}

// Calibrate runs the calibration steps on frame in this order:
//
//  1. subtract dark, if given
//  2. divide by flat and multiply by its median, if given; zero flat
//     pixels divide by 1
//  3. clip to [0, 255] and truncate, if either of the above ran
//  4. extract the requested field
//  5. deinterlace with DeinterlaceBlend, if requested
//
// Callers normally request either a field or deinterlacing, not both.
func Calibrate(frame, dark *ff.Frame, flat *CalibrationFrame, deinterlace bool, field Field) (*ff.Frame, error) {
	if dark != nil && !frame.SameShape(dark) {
		return nil, fmt.Errorf("%w: dark %dx%d, frame %dx%d", ff.ErrShapeMismatch, dark.Rows, dark.Cols, frame.Rows, frame.Cols)
	}
	if flat != nil && !frame.SameShape(flat.Frame) {
		return nil, fmt.Errorf("%w: flat %dx%d, frame %dx%d", ff.ErrShapeMismatch, flat.Rows, flat.Cols, frame.Rows, frame.Cols)
	}

	out := frame.Clone()
	if dark != nil || flat != nil {
		for i, v := range frame.Pix {
			x := float64(v)
			if dark != nil {
				x -= float64(dark.Pix[i])
			}
			if flat != nil {
				d := float64(flat.Pix[i])
				if d == 0 {
					d = 1
				}
				x = x / d * float64(flat.Median)
			}
			out.Pix[i] = clip8(x)
		}
	}

	switch field {
	case FieldNone:
	case FieldOdd:
		out = ExtractOdd(out)
	case FieldEven:
		out = ExtractEven(out)
	default:
		return nil, fmt.Errorf("%w: field %v", ff.ErrValue, field)
	}

	if deinterlace {
		out = DeinterlaceBlend(out)
	}
	return out, nil
}

// clip8 clips x to [0, 255] and truncates toward zero.
func clip8(x float64) uint8 {
	switch {
	case x <= 0:
		return 0
	case x >= 255:
		return 255
	default:
		return uint8(x)
	}
}

// Pipeline bundles the calibration applied to every frame of an export.
// The zero value passes frames through unchanged.
type Pipeline struct {
	Dark        *ff.Frame
	Flat        *CalibrationFrame
	Deinterlace bool
	Field       Field

	// Levels, when set, is applied after the calibration steps.
	Levels *Levels
}

// Validate checks the pipeline settings without a frame at hand.
func (p *Pipeline) Validate() error {
	if p.Deinterlace && p.Field != FieldNone {
		return ErrFieldAndDeinterlace
	}
	if p.Dark != nil && p.Flat != nil && !p.Dark.SameShape(p.Flat.Frame) {
		return fmt.Errorf("%w: dark %dx%d, flat %dx%d", ff.ErrShapeMismatch, p.Dark.Rows, p.Dark.Cols, p.Flat.Rows, p.Flat.Cols)
	}
	if p.Levels != nil {
		return p.Levels.Validate()
	}
	return nil
}

// Apply calibrates frame and adjusts its levels. A nil pipeline returns a
// copy of frame.
func (p *Pipeline) Apply(frame *ff.Frame) (*ff.Frame, error) {
	if p == nil {
		return frame.Clone(), nil
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out, err := Calibrate(frame, p.Dark, p.Flat, p.Deinterlace, p.Field)
	if err != nil {
		return nil, err
	}
	if p.Levels == nil {
		return out, nil
	}
	return AdjustLevels(out, p.Levels)
}
