package ffseq

import (
	"github.com/mrjoshuak/go-ffbin/ff"
	"github.com/mrjoshuak/go-ffbin/ffcal"
)

// CacheLimit is the longest frame range a Loop keeps in memory.
const CacheLimit = 75

// Loop replays a frame range endlessly, as a viewer does while the user
// watches a detection. Ranges of at most CacheLimit frames are kept after
// the first pass; longer ranges are rebuilt on every pass.
//
// Frames returned from the cache are shared between passes and must not be
// modified. A Loop is not safe for concurrent use.
type Loop struct {
	b     *builder
	cache []*ff.Frame
	pos   int

	// images of the last frame built, for uncached per-field loops
	last  []*ff.Frame
	lastK int
}

// NewLoop checks the range and settings and returns a loop positioned on
// the first frame.
func NewLoop(rec *ff.Record, start, end int, p *ffcal.Pipeline, opts Options) (*Loop, error) {
	b, err := newBuilder(rec, start, end, p, opts)
	if err != nil {
		return nil, err
	}
	l := &Loop{b: b, lastK: -1}
	if end-start+1 <= CacheLimit {
		l.cache = make([]*ff.Frame, b.len())
	}
	return l, nil
}

// Len returns the number of images in one pass.
func (l *Loop) Len() int {
	return l.b.len()
}

// Cached reports whether the loop keeps its frames between passes.
func (l *Loop) Cached() bool {
	return l.cache != nil
}

// Pos returns the index within the pass of the image Next returns.
func (l *Loop) Pos() int {
	return l.pos
}

// Next returns the next image of the pass and advances, wrapping around at
// the end of the range.
func (l *Loop) Next() (*ff.Frame, error) {
	i := l.pos
	img := l.cached(i)
	if img == nil {
		n := l.b.perFrame()
		k := l.b.start + i/n
		if k != l.lastK {
			frames, err := l.b.frames(k)
			if err != nil {
				return nil, err
			}
			if l.cache != nil {
				copy(l.cache[i-i%n:], frames)
			}
			l.last, l.lastK = frames, k
		}
		img = l.last[i%n]
	}
	l.pos = (i + 1) % l.b.len()
	return img, nil
}

func (l *Loop) cached(i int) *ff.Frame {
	if l.cache == nil {
		return nil
	}
	return l.cache[i]
}

// Reset rewinds to the first frame. Cached frames are kept.
func (l *Loop) Reset() {
	l.pos = 0
}
