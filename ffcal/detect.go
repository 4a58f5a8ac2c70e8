package ffcal

import (
	"image"

	"github.com/mrjoshuak/go-ffbin/ff"
)

// DetectionOnly stacks the detections of frames start..end onto the
// average plane, scales the result by the record's brightness ratio when
// it exceeds ff.BrightenThreshold, and calibrates it with p. A nil p skips
// calibration.
func DetectionOnly(rec *ff.Record, start, end int, p *Pipeline) (*ff.Frame, error) {
	acc := ff.NewAccumulator(rec)
	img, err := acc.AddRange(start, end)
	if err != nil {
		return nil, err
	}
	if rec.BrightnessRatio > ff.BrightenThreshold {
		ff.Brighten(img, rec.BrightnessRatio, 0)
	}
	return p.Apply(img)
}

// maxMinusAve returns clip(MaxPixel - AvePixel, 0, 255).
func maxMinusAve(rec *ff.Record) *ff.Frame {
	out := ff.NewFrame(rec.Rows, rec.Cols)
	for i, m := range rec.MaxPixel.Pix {
		if a := rec.AvePixel.Pix[i]; m > a {
			out.Pix[i] = m - a
		}
	}
	return out
}

// MaxNoMean returns the deinterlaced maxpixel plane with the average
// background removed, leaving only what moved or flashed during the
// exposure. A flat field cancels out of the difference and is not needed.
func MaxNoMean(rec *ff.Record) *ff.Frame {
	return DeinterlaceBlend(maxMinusAve(rec))
}

// ColorizeMaxFrame renders the detections of both fields in color over the
// average plane: the odd field in red and the even field in green and
// blue, so the direction of motion shows as a color fringe. Each field is
// level-adjusted with lv before it is added to the background; a nil lv
// leaves them unchanged.
func ColorizeMaxFrame(rec *ff.Record, lv *Levels) (*image.RGBA, error) {
	diff := maxMinusAve(rec)
	odd, err := AdjustLevels(ExtractOdd(diff), lv)
	if err != nil {
		return nil, err
	}
	even, err := AdjustLevels(ExtractEven(diff), lv)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, rec.Cols, rec.Rows))
	for i, a := range rec.AvePixel.Pix {
		r := addClip(odd.Pix[i], a)
		g := addClip(even.Pix[i], a)
		img.Pix[4*i+0] = r
		img.Pix[4*i+1] = g
		img.Pix[4*i+2] = g
		img.Pix[4*i+3] = 0xff
	}
	return img, nil
}

func addClip(a, b uint8) uint8 {
	s := int(a) + int(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}
