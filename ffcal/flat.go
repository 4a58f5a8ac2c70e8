package ffcal

import (
	"fmt"
	"slices"

	"github.com/mrjoshuak/go-ffbin/ff"
	"github.com/mrjoshuak/go-ffbin/internal/parallel"
)

const (
	// MaxFlatSources is the largest batch BuildFlat accepts.
	MaxFlatSources = 1024

	// MaxChunkSize is the largest number of frames combined in one pass
	// of the chunked median.
	MaxChunkSize = 32

	// DefaultChunkSize is the chunk length used by the chunked median.
	DefaultChunkSize = 31

	// hotPixelFactor bounds the values a column median considers, as a
	// multiple of the flat median.
	hotPixelFactor = 10
)

// FlatOptions controls BuildFlat.
type FlatOptions struct {
	// Chunked selects the two-level median: with more than MaxChunkSize
	// sources, each run of ChunkSize frames is reduced to its median and
	// the chunk medians are combined again. This reproduces flats built by
	// older station software; the default single-pass median is exact.
	Chunked bool

	// ChunkSize defaults to DefaultChunkSize. Must be in [1, MaxChunkSize].
	ChunkSize int

	// FixColumns replaces every column by its median over values below
	// ten times the flat median, which removes hot pixels.
	FixColumns bool
}

// BuildFlat combines sources into a flat field. Each source has dark
// subtracted (when given) and is clipped to [0, 255]; the flat is the
// per-pixel median of the results. The returned Median is the median
// intensity of the combined flat before any column fix.
func BuildFlat(sources []*ff.Frame, dark *ff.Frame, opts FlatOptions) (*CalibrationFrame, error) {
	switch n := len(sources); {
	case n == 0:
		return nil, ErrNoSources
	case n > MaxFlatSources:
		return nil, fmt.Errorf("%w: %d, at most %d", ErrTooManySources, n, MaxFlatSources)
	}
	step := opts.ChunkSize
	if step == 0 {
		step = DefaultChunkSize
	}
	if step < 1 || step > MaxChunkSize {
		return nil, fmt.Errorf("%w: %d", ErrChunkSize, opts.ChunkSize)
	}

	first := sources[0]
	if dark != nil && !first.SameShape(dark) {
		return nil, fmt.Errorf("%w: dark %dx%d, flat source %dx%d", ff.ErrShapeMismatch, dark.Rows, dark.Cols, first.Rows, first.Cols)
	}
	candidates := make([]*ff.Frame, len(sources))
	for i, src := range sources {
		if !first.SameShape(src) {
			return nil, fmt.Errorf("%w: flat source %d is %dx%d, want %dx%d", ff.ErrShapeMismatch, i, src.Rows, src.Cols, first.Rows, first.Cols)
		}
		candidates[i] = subtractDark(src, dark)
	}

	var flat *ff.Frame
	if opts.Chunked && len(candidates) > MaxChunkSize {
		var partial []*ff.Frame
		for _, r := range chunkRanges(len(candidates), step) {
			partial = append(partial, medianCombine(candidates[r[0]:r[1]]))
		}
		flat = medianCombine(partial)
	} else {
		flat = medianCombine(candidates)
	}

	cal := NewCalibrationFrame(flat)
	if opts.FixColumns {
		fixColumns(flat, cal.Median)
	}
	return cal, nil
}

// subtractDark returns clip(src - dark, 0, 255).
func subtractDark(src, dark *ff.Frame) *ff.Frame {
	if dark == nil {
		return src
	}
	out := ff.NewFrame(src.Rows, src.Cols)
	for i, v := range src.Pix {
		if d := dark.Pix[i]; v > d {
			out.Pix[i] = v - d
		}
	}
	return out
}

// chunkRanges splits [0, n) into half-open ranges of length step, the last
// one taking the remainder.
func chunkRanges(n, step int) [][2]int {
	var out [][2]int
	lo := 0
	for hi := step; hi < n; hi += step {
		out = append(out, [2]int{lo, hi})
		lo = hi
	}
	return append(out, [2]int{lo, n})
}

// medianCombine returns the per-pixel median of frames. One value is
// returned as is, two values give their truncated mean, and three or more
// give the upper median sorted[n/2].
func medianCombine(frames []*ff.Frame) *ff.Frame {
	first := frames[0]
	out := ff.NewFrame(first.Rows, first.Cols)
	n := len(frames)
	parallel.Range(first.Rows, func(lo, hi int) {
		buf := make([]uint8, n)
		for i := lo * first.Cols; i < hi*first.Cols; i++ {
			for j, f := range frames {
				buf[j] = f.Pix[i]
			}
			switch n {
			case 1:
				out.Pix[i] = buf[0]
			case 2:
				out.Pix[i] = uint8((int(buf[0]) + int(buf[1])) / 2)
			default:
				slices.Sort(buf)
				out.Pix[i] = buf[n/2]
			}
		}
	})
	return out
}

// histogram counts intensities.
type histogram struct {
	count [256]int
	n     int
}

func (h *histogram) add(v uint8) {
	h.count[v]++
	h.n++
}

// nth returns the k-th smallest value, 0-based.
func (h *histogram) nth(k int) int {
	for v, c := range h.count {
		if k < c {
			return v
		}
		k -= c
	}
	return 255
}

// median returns the truncated numeric median; an even count averages the
// two middle values.
func (h *histogram) median() int {
	if h.n == 0 {
		return 0
	}
	if h.n%2 == 1 {
		return h.nth(h.n / 2)
	}
	return (h.nth(h.n/2-1) + h.nth(h.n/2)) / 2
}

// medianScalar returns the truncated median of pix.
func medianScalar(pix []uint8) int {
	var h histogram
	for _, v := range pix {
		h.add(v)
	}
	return h.median()
}

// fixColumns sets every row of f to the per-column median of the values
// below hotPixelFactor*scalar. A column with no such value takes scalar.
func fixColumns(f *ff.Frame, scalar int) {
	limit := hotPixelFactor * scalar
	cols := make([]uint8, f.Cols)
	for x := 0; x < f.Cols; x++ {
		var h histogram
		for y := 0; y < f.Rows; y++ {
			if v := f.Pix[y*f.Cols+x]; int(v) < limit {
				h.add(v)
			}
		}
		m := scalar
		if h.n > 0 {
			m = h.median()
		}
		cols[x] = uint8(min(m, 255))
	}
	for y := 0; y < f.Rows; y++ {
		copy(f.Row(y), cols)
	}
}
