package ffseq

import (
	"fmt"

	"github.com/fogleman/gg"

	"github.com/mrjoshuak/go-ffbin/ff"
	"github.com/mrjoshuak/go-ffbin/ffcal"
)

// Label returns the caption for frame k, such as "FF451.bin frame = 012".
// The odd field of a frame is numbered k.5 and the even field k.0.
func Label(name string, k int, field ffcal.Field) string {
	s := fmt.Sprintf("%s frame = %03d", name, k)
	switch field {
	case ffcal.FieldOdd:
		s += ".5"
	case ffcal.FieldEven:
		s += ".0"
	}
	return s
}

// Annotate returns a copy of f with text drawn in the top-left corner.
// The text is drawn in yellow and lands in gray as its luma.
func Annotate(f *ff.Frame, text string) *ff.Frame {
	dc := gg.NewContextForImage(f.Gray())
	dc.SetRGB(1, 1, 0)
	dc.DrawStringAnchored(text, 1, 1, 0, 1)
	return ff.FrameFromImage(dc.Image())
}
