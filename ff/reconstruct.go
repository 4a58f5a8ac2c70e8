package ff

import (
	"fmt"
	"math"
)

// Mode selects the background a reconstructed frame is drawn on.
type Mode int

const (
	// ModeVideo draws on the average plane, so motion is shown against the
	// steady sky. Dim clips are brightened (see BrightenThreshold).
	ModeVideo Mode = iota

	// ModeNoBackground draws on black: only pixels that peaked in the
	// requested frame are non-zero.
	ModeNoBackground
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeVideo:
		return "video"
	case ModeNoBackground:
		return "nobackground"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Video brightening: when the peak plane is more than BrightenThreshold
// times brighter than the average, video frames are scaled by
// BrightnessRatio*BrightenGain and offset by BrightenOffset.
const (
	BrightenThreshold = 2.0
	BrightenGain      = 1.2
	BrightenOffset    = 10.0
)

// CheckFrame returns ErrFrameIndex unless 0 <= k < FrameCount.
func (r *Record) CheckFrame(k int) error {
	if k < 0 || k >= r.FrameCount {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrFrameIndex, k, r.FrameCount-1)
	}
	return nil
}

// Reconstruct synthesizes frame k. Every pixel whose brightest frame is k
// shows its peak value; every other pixel shows the background chosen by
// mode. The returned frame is newly allocated and owned by the caller.
func (r *Record) Reconstruct(k int, mode Mode) (*Frame, error) {
	if err := r.CheckFrame(k); err != nil {
		return nil, err
	}

	var img *Frame
	switch mode {
	case ModeVideo:
		img = r.AvePixel.Clone()
	case ModeNoBackground:
		img = NewFrame(r.Rows, r.Cols)
	default:
		return nil, fmt.Errorf("%w: %v", ErrMode, mode)
	}

	r.overlay(img, k)

	if mode == ModeVideo && r.BrightnessRatio > BrightenThreshold {
		Brighten(img, r.BrightnessRatio*BrightenGain, BrightenOffset)
	}
	return img, nil
}

// overlay writes MaxPixel into img wherever MaxFrame == k.
func (r *Record) overlay(img *Frame, k int) {
	if k > math.MaxUint16 {
		return
	}
	idx := uint16(k)
	for i, f := range r.MaxFrame.Pix {
		if f == idx {
			img.Pix[i] = r.MaxPixel.Pix[i]
		}
	}
}

// Brighten maps every pixel v to clip(v*gain + offset, 0, 255) in place,
// truncating toward zero.
func Brighten(img *Frame, gain, offset float64) {
	for i, v := range img.Pix {
		img.Pix[i] = clipUint8(float64(v)*gain + offset)
	}
}

func clipUint8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// Accumulator stacks detections from successive frames onto one shared
// base image. It starts from the average plane; each Add overlays the peak
// pixels of another frame, so earlier detections stay visible.
//
// Unlike Reconstruct, Add mutates and returns the accumulator's own frame.
// The caller owns the Accumulator and decides when to Reset it.
type Accumulator struct {
	rec  *Record
	base *Frame
}

// NewAccumulator returns an accumulator whose base is a copy of the
// record's average plane.
func NewAccumulator(rec *Record) *Accumulator {
	return &Accumulator{rec: rec, base: rec.AvePixel.Clone()}
}

// Add overlays frame k onto the base and returns the base.
func (a *Accumulator) Add(k int) (*Frame, error) {
	if err := a.rec.CheckFrame(k); err != nil {
		return nil, err
	}
	a.rec.overlay(a.base, k)
	return a.base, nil
}

// AddRange overlays frames start..end inclusive.
func (a *Accumulator) AddRange(start, end int) (*Frame, error) {
	if start > end {
		return nil, fmt.Errorf("%w: start %d after end %d", ErrFrameIndex, start, end)
	}
	for k := start; k <= end; k++ {
		if _, err := a.Add(k); err != nil {
			return nil, err
		}
	}
	return a.base, nil
}

// Frame returns the current base. It aliases the accumulator's storage.
func (a *Accumulator) Frame() *Frame {
	return a.base
}

// Reset restores the base to the average plane.
func (a *Accumulator) Reset() {
	copy(a.base.Pix, a.rec.AvePixel.Pix)
}
