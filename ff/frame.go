package ff

import (
	"image"
	"image/color"

	"gonum.org/v1/gonum/stat"
)

// Frame is a rows x cols array of 8-bit intensities stored row-major.
// It is used for the stored planes of a record, for reconstructed frames,
// and for calibration frames. Frame implements image.Image with the gray
// color model so it can be handed directly to image encoders.
type Frame struct {
	// Pix holds Rows*Cols intensities, row-major.
	Pix  []uint8
	Rows int
	Cols int
}

// NewFrame allocates a zeroed frame.
func NewFrame(rows, cols int) *Frame {
	return &Frame{
		Pix:  make([]uint8, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

// FrameFromImage converts any image to a frame using the standard luma
// weights (0.299, 0.587, 0.114). *image.Gray and *Frame are copied directly.
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dy(), b.Dx())
	switch src := img.(type) {
	case *Frame:
		copy(f.Pix, src.Pix)
	case *image.Gray:
		for y := 0; y < f.Rows; y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(f.Row(y), src.Pix[i:i+f.Cols])
		}
	case *image.RGBA:
		// Same weights and rounding as color.GrayModel.
		for y := 0; y < f.Rows; y++ {
			s := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			row := f.Row(y)
			for x := range row {
				r := uint32(s[4*x]) * 0x101
				g := uint32(s[4*x+1]) * 0x101
				bl := uint32(s[4*x+2]) * 0x101
				row[x] = uint8((19595*r + 38470*g + 7471*bl + 1<<15) >> 24)
			}
		}
	default:
		for y := 0; y < f.Rows; y++ {
			row := f.Row(y)
			for x := range row {
				row[x] = color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
			}
		}
	}
	return f
}

// Bounds returns the domain for which At can return non-zero color.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Cols, f.Rows)
}

// ColorModel returns the gray color model.
func (f *Frame) ColorModel() color.Model {
	return color.GrayModel
}

// At returns the color of the pixel at (x, y).
func (f *Frame) At(x, y int) color.Color {
	return color.Gray{Y: f.GrayAt(x, y)}
}

// GrayAt returns the intensity at column x, row y, or 0 outside the frame.
func (f *Frame) GrayAt(x, y int) uint8 {
	if x < 0 || y < 0 || x >= f.Cols || y >= f.Rows {
		return 0
	}
	return f.Pix[y*f.Cols+x]
}

// SetGray sets the intensity at column x, row y. Out of range writes are
// ignored.
func (f *Frame) SetGray(x, y int, v uint8) {
	if x < 0 || y < 0 || x >= f.Cols || y >= f.Rows {
		return
	}
	f.Pix[y*f.Cols+x] = v
}

// Row returns the pixels of row y. The slice aliases Pix.
func (f *Frame) Row(y int) []uint8 {
	return f.Pix[y*f.Cols : (y+1)*f.Cols]
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := &Frame{Pix: make([]uint8, len(f.Pix)), Rows: f.Rows, Cols: f.Cols}
	copy(c.Pix, f.Pix)
	return c
}

// SameShape reports whether g has the same dimensions as f.
func (f *Frame) SameShape(g *Frame) bool {
	return g != nil && f.Rows == g.Rows && f.Cols == g.Cols
}

// Gray returns a copy of the frame as an *image.Gray.
func (f *Frame) Gray() *image.Gray {
	img := image.NewGray(f.Bounds())
	copy(img.Pix, f.Pix)
	return img
}

// Mean returns the mean intensity, 0 for an empty frame.
func (f *Frame) Mean() float64 {
	if len(f.Pix) == 0 {
		return 0
	}
	return stat.Mean(f.Float64s(), nil)
}

// Float64s returns the intensities widened to float64.
func (f *Frame) Float64s() []float64 {
	out := make([]float64, len(f.Pix))
	for i, v := range f.Pix {
		out[i] = float64(v)
	}
	return out
}

// IndexPlane is a rows x cols array of frame indices. Legacy and FITS
// containers store 8-bit indices; the Skypatrol encoding spans two color
// channels and needs 16 bits.
type IndexPlane struct {
	Pix  []uint16
	Rows int
	Cols int
}

// NewIndexPlane allocates a zeroed index plane.
func NewIndexPlane(rows, cols int) *IndexPlane {
	return &IndexPlane{
		Pix:  make([]uint16, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

// indexPlaneFromBytes widens an 8-bit plane.
func indexPlaneFromBytes(rows, cols int, b []byte) *IndexPlane {
	p := NewIndexPlane(rows, cols)
	for i, v := range b {
		p.Pix[i] = uint16(v)
	}
	return p
}

// At returns the index at column x, row y.
func (p *IndexPlane) At(x, y int) int {
	return int(p.Pix[y*p.Cols+x])
}

// Max returns the largest index in the plane.
func (p *IndexPlane) Max() int {
	m := uint16(0)
	for _, v := range p.Pix {
		if v > m {
			m = v
		}
	}
	return int(m)
}
