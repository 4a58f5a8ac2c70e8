// Package ffseq turns a range of frames from an FF record into an ordered,
// calibrated image sequence for an animation writer.
//
// Example usage:
//
//	rec, err := ff.DecodeFile(path, ff.FormatAuto)
//	if err != nil {
//		return err
//	}
//	p := &ffcal.Pipeline{Deinterlace: true}
//	frames, err := ffseq.Build(rec, 10, 40, p, false)
//	if err != nil {
//		return err
//	}
//	return ffseq.WriteGIF(w, frames, 25, true)
package ffseq

import (
	"fmt"

	"github.com/mrjoshuak/go-ffbin/ff"
	"github.com/mrjoshuak/go-ffbin/ffcal"
)

// Options controls how a sequence is built.
type Options struct {
	// PerField splits every frame into its odd and even field, doubling
	// the sequence length. Whole-frame deinterlacing is disabled.
	PerField bool

	// Annotate draws Name and the frame number in the top-left corner.
	Annotate bool
	Name     string
}

// Build reconstructs frames start..end inclusive in video mode and runs
// each one through p. With perField every frame yields its odd field
// followed by its even field.
//
// The range is checked before any work is done, so Build either returns
// every frame or none.
func Build(rec *ff.Record, start, end int, p *ffcal.Pipeline, perField bool) ([]*ff.Frame, error) {
	return BuildOptions(rec, start, end, p, Options{PerField: perField})
}

// BuildOptions is Build with annotation.
func BuildOptions(rec *ff.Record, start, end int, p *ffcal.Pipeline, opts Options) ([]*ff.Frame, error) {
	b, err := newBuilder(rec, start, end, p, opts)
	if err != nil {
		return nil, err
	}
	out := make([]*ff.Frame, 0, b.len())
	for k := start; k <= end; k++ {
		frames, err := b.frames(k)
		if err != nil {
			return nil, err
		}
		out = append(out, frames...)
	}
	return out, nil
}

// builder holds the checked settings shared by Build and Loop.
type builder struct {
	rec        *ff.Record
	start, end int
	pipe       ffcal.Pipeline
	opts       Options
}

func checkRange(rec *ff.Record, start, end int) error {
	if start > end {
		return fmt.Errorf("%w: start %d after end %d", ff.ErrFrameIndex, start, end)
	}
	if err := rec.CheckFrame(start); err != nil {
		return err
	}
	return rec.CheckFrame(end)
}

func newBuilder(rec *ff.Record, start, end int, p *ffcal.Pipeline, opts Options) (*builder, error) {
	if err := checkRange(rec, start, end); err != nil {
		return nil, err
	}
	b := &builder{rec: rec, start: start, end: end, opts: opts}
	if p != nil {
		b.pipe = *p
	}
	if opts.PerField {
		b.pipe.Deinterlace = false
	}
	if err := b.pipe.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// perFrame is the number of output images per reconstructed frame.
func (b *builder) perFrame() int {
	if b.opts.PerField {
		return 2
	}
	return 1
}

func (b *builder) len() int {
	return (b.end - b.start + 1) * b.perFrame()
}

// frames returns the output images for frame k.
func (b *builder) frames(k int) ([]*ff.Frame, error) {
	img, err := b.rec.Reconstruct(k, ff.ModeVideo)
	if err != nil {
		return nil, err
	}
	img, err = b.pipe.Apply(img)
	if err != nil {
		return nil, err
	}

	if !b.opts.PerField {
		if b.opts.Annotate {
			img = Annotate(img, Label(b.opts.Name, k, ffcal.FieldNone))
		}
		return []*ff.Frame{img}, nil
	}

	odd, even := ffcal.ExtractOdd(img), ffcal.ExtractEven(img)
	if b.opts.Annotate {
		odd = Annotate(odd, Label(b.opts.Name, k, ffcal.FieldOdd))
		even = Annotate(even, Label(b.opts.Name, k, ffcal.FieldEven))
	}
	return []*ff.Frame{odd, even}, nil
}
