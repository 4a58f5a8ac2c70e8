package ffcal

import (
	"fmt"

	"github.com/mrjoshuak/go-ffbin/ff"
)

// ExtractOdd isolates the field that starts on the first row. Rows 0, 2, 4
// ... are kept and each following row is overwritten with the row above it.
// The result is then moved up one row and the bottom row is zeroed, which
// aligns the field with its partner.
func ExtractOdd(f *ff.Frame) *ff.Frame {
	out := f.Clone()
	if f.Rows == 0 {
		return out
	}
	last := f.Row(0)
	for y := 0; y < f.Rows; y++ {
		if y%2 == 0 {
			last = f.Row(y)
			continue
		}
		copy(out.Row(y), last)
	}
	ShiftUp(out)
	return out
}

// ExtractEven isolates the field that ends on the last row. Walking from the
// bottom, rows n-1, n-3 ... are kept and each row above a kept row is
// overwritten with it. There is no shift.
func ExtractEven(f *ff.Frame) *ff.Frame {
	out := f.Clone()
	if f.Rows == 0 {
		return out
	}
	last := f.Row(f.Rows - 1)
	for i, y := 0, f.Rows-1; y >= 0; i, y = i+1, y-1 {
		if i%2 == 0 {
			last = f.Row(y)
			continue
		}
		copy(out.Row(y), last)
	}
	return out
}

// ShiftUp moves every row of f up by one in place and zeroes the bottom row.
func ShiftUp(f *ff.Frame) {
	if f.Rows == 0 {
		return
	}
	copy(f.Pix, f.Pix[f.Cols:])
	clear(f.Row(f.Rows - 1))
}

// BlendLighten returns the per-pixel maximum of a and b, computed as
// a - min(a-b, 0) in signed arithmetic.
func BlendLighten(a, b *ff.Frame) (*ff.Frame, error) {
	if !a.SameShape(b) {
		return nil, fmt.Errorf("%w: blend %dx%d with %dx%d", ff.ErrShapeMismatch, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	out := ff.NewFrame(a.Rows, a.Cols)
	for i, av := range a.Pix {
		d := int(av) - int(b.Pix[i])
		if d > 0 {
			d = 0
		}
		out.Pix[i] = uint8(int(av) - d)
	}
	return out, nil
}

// DeinterlaceBlend recombines both fields of f with BlendLighten, so that a
// bright trail recorded in either field survives.
func DeinterlaceBlend(f *ff.Frame) *ff.Frame {
	out, _ := BlendLighten(ExtractOdd(f), ExtractEven(f))
	return out
}
