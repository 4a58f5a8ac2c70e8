package ffcal

import (
	"fmt"
	"math"

	"github.com/mrjoshuak/go-ffbin/ff"
)

// Levels is a level/gamma adjustment. Min and Max are intensities in
// [0, 255]; Gamma must be positive.
type Levels struct {
	Min   float64
	Gamma float64
	Max   float64
}

// Validate reports ErrInvalidGamma or ErrInvalidLevels.
func (lv *Levels) Validate() error {
	if !(lv.Gamma > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidGamma, lv.Gamma)
	}
	if lv.Max == lv.Min {
		return fmt.Errorf("%w: %v", ErrInvalidLevels, lv.Min)
	}
	return nil
}

// AdjustLevels maps every intensity x to
//
//	((x/255 - Min/255) / (Max/255 - Min/255)) ^ (1/Gamma) * 255
//
// clipped to [0, 255] and truncated. Intensities at or below Min map to 0.
// A nil lv returns an unchanged copy.
func AdjustLevels(f *ff.Frame, lv *Levels) (*ff.Frame, error) {
	if lv == nil {
		return f.Clone(), nil
	}
	if err := lv.Validate(); err != nil {
		return nil, err
	}

	lo := lv.Min / 255
	interval := lv.Max/255 - lo
	inv := 1 / lv.Gamma

	// 256-entry lookup table
	var lut [256]uint8
	for x := range lut {
		t := (float64(x)/255 - lo) / interval
		if t <= 0 || math.IsNaN(t) {
			continue
		}
		lut[x] = clip8(math.Pow(t, inv) * 255)
	}

	out := ff.NewFrame(f.Rows, f.Cols)
	for i, v := range f.Pix {
		out.Pix[i] = lut[v]
	}
	return out, nil
}
