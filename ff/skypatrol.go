package ff

import (
	"bytes"
	"fmt"
	"image"

	"golang.org/x/image/bmp"
)

// Skypatrol cameras write one 24-bit BMP per exposure. The red channel is
// the low part of the frame index (0..99), the green channel the high part
// (hundreds), and the blue channel the maxpixel value. There is no average
// or deviation plane.
const (
	skypatrolLowMax  = 99
	skypatrolHighMul = 100
)

func decodeSkypatrol(data []byte) (*Record, error) {
	cfg, err := bmp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: skypatrol: %v", ErrFormat, err)
	}
	if _, err := planeSize(cfg.Height, cfg.Width); err != nil {
		return nil, err
	}
	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: skypatrol: %v", ErrFormat, err)
	}
	return recordFromSkypatrol(img)
}

func recordFromSkypatrol(img image.Image) (*Record, error) {
	b := img.Bounds()
	rec := newRecord(RevisionSkypatrol)
	rec.Rows = b.Dy()
	rec.Cols = b.Dx()
	rec.FrameCount = SkypatrolFrameCount
	if _, err := planeSize(rec.Rows, rec.Cols); err != nil {
		return nil, err
	}

	rec.MaxPixel = NewFrame(rec.Rows, rec.Cols)
	rec.MaxFrame = NewIndexPlane(rec.Rows, rec.Cols)
	rec.AvePixel = NewFrame(rec.Rows, rec.Cols)
	rec.StdPixel = NewFrame(rec.Rows, rec.Cols)

	for y := 0; y < rec.Rows; y++ {
		for x := 0; x < rec.Cols; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			lo := uint16(r >> 8)
			if lo > skypatrolLowMax {
				lo = skypatrolLowMax
			}
			hi := uint16(g >> 8)
			i := y*rec.Cols + x
			rec.MaxFrame.Pix[i] = lo + skypatrolHighMul*hi
			rec.MaxPixel.Pix[i] = uint8(bl >> 8)
		}
	}
	return rec, nil
}
