package ffmeta

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mrjoshuak/go-ffbin/ff"
)

// PlaneStats describes the intensity distribution of one plane.
type PlaneStats struct {
	Name   string
	Mean   float64
	StdDev float64 // population standard deviation
	Min    float64
	Max    float64
}

// Summary collects the plane statistics of a record.
type Summary struct {
	MaxPixel PlaneStats
	MaxFrame PlaneStats
	AvePixel PlaneStats
	StdPixel PlaneStats

	// Active counts pixels whose peak exceeds the average by more than
	// ActiveMargin, a rough measure of how much happened in the exposure.
	Active int
}

// ActiveMargin is the peak-over-average threshold used for Summary.Active.
const ActiveMargin = 20

// Planes returns the four plane statistics in file order.
func (s *Summary) Planes() []PlaneStats {
	return []PlaneStats{s.MaxPixel, s.MaxFrame, s.AvePixel, s.StdPixel}
}

// Summarize computes statistics for every plane of rec.
func Summarize(rec *ff.Record) *Summary {
	frames := make([]float64, len(rec.MaxFrame.Pix))
	for i, v := range rec.MaxFrame.Pix {
		frames[i] = float64(v)
	}
	s := &Summary{
		MaxPixel: planeStats("maxpixel", rec.MaxPixel.Float64s()),
		MaxFrame: planeStats("maxframe", frames),
		AvePixel: planeStats("avepixel", rec.AvePixel.Float64s()),
		StdPixel: planeStats("stdpixel", rec.StdPixel.Float64s()),
	}
	for i, m := range rec.MaxPixel.Pix {
		if int(m)-int(rec.AvePixel.Pix[i]) > ActiveMargin {
			s.Active++
		}
	}
	return s
}

func planeStats(name string, x []float64) PlaneStats {
	ps := PlaneStats{Name: name}
	if len(x) == 0 {
		return ps
	}
	ps.Mean, ps.StdDev = stat.PopMeanStdDev(x, nil)
	ps.Min = floats.Min(x)
	ps.Max = floats.Max(x)
	return ps
}
