package ff

import (
	"math"

	"github.com/fogleman/gg"
)

// LoadErrorText is drawn into the placeholder maxpixel frame of a record
// whose planes could not be read.
const LoadErrorText = "IMAGE LOADING ERROR"

// errorFrame returns a black frame with LoadErrorText in the top-left
// corner, drawn in yellow and converted to gray. Only the text-sized
// corner is rendered.
func errorFrame(rows, cols int) *Frame {
	f := NewFrame(rows, cols)
	w, h := gg.NewContext(1, 1).MeasureString(LoadErrorText)
	// Room for the one-pixel inset and the descenders.
	cw := min(cols, int(math.Ceil(w))+2)
	ch := min(rows, int(math.Ceil(h))+6)
	if cw <= 0 || ch <= 0 {
		return f
	}

	dc := gg.NewContext(cw, ch)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 0)
	dc.DrawStringAnchored(LoadErrorText, 1, 1, 0, 1)
	text := FrameFromImage(dc.Image())
	for y := 0; y < ch; y++ {
		copy(f.Row(y), text.Row(y))
	}
	return f
}
