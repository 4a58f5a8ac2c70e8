package ffseq

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/mrjoshuak/go-ffbin/ff"
)

var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

// WriteGIF encodes frames as an animated GIF at fps frames per second.
// Every frame uses a 256-level gray palette, so intensities are kept
// exactly. When loop is false the animation plays once.
func WriteGIF(w io.Writer, frames []*ff.Frame, fps float64, loop bool) error {
	if len(frames) == 0 {
		return fmt.Errorf("%w: no frames", ff.ErrValue)
	}
	if !(fps > 0) {
		return fmt.Errorf("%w: fps %v", ff.ErrValue, fps)
	}
	delay := max(int(math.Round(100/fps)), 1)

	anim := &gif.GIF{
		Image: make([]*image.Paletted, len(frames)),
		Delay: make([]int, len(frames)),
	}
	if !loop {
		anim.LoopCount = -1
	}
	for i, f := range frames {
		img := image.NewPaletted(f.Bounds(), grayPalette)
		copy(img.Pix, f.Pix)
		anim.Image[i] = img
		anim.Delay[i] = delay
	}
	return gif.EncodeAll(w, anim)
}

// WritePNGSequence writes frames to dir as <prefix>_<n>.png, numbering from
// start with six digits, for an external video encoder. It returns the
// paths written.
func WritePNGSequence(dir, prefix string, start int, frames []*ff.Frame) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(frames))
	for i, f := range frames {
		path := filepath.Join(dir, fmt.Sprintf("%s_%06d.png", prefix, start+i))
		if err := imaging.Save(f.Gray(), path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
