package ff

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

// testRecord builds a record with a steady background of ave, and one
// peak pixel of value ave+delta per pixel at a pseudo-random frame.
func testRecord(t *testing.T, rows, cols, frameCount int, ave, delta uint8) *Record {
	t.Helper()
	rng := rand.New(rand.NewSource(int64(rows*cols + frameCount)))
	rec := newRecord(RevisionLegacy)
	rec.Rows = rows
	rec.Cols = cols
	rec.FrameCount = frameCount
	rec.BitDepth = 8
	rec.MaxPixel = NewFrame(rows, cols)
	rec.MaxFrame = NewIndexPlane(rows, cols)
	rec.AvePixel = NewFrame(rows, cols)
	rec.StdPixel = NewFrame(rows, cols)
	for i := range rec.MaxPixel.Pix {
		rec.AvePixel.Pix[i] = ave
		rec.MaxPixel.Pix[i] = ave + uint8(rng.Intn(int(delta)+1))
		rec.MaxFrame.Pix[i] = uint16(rng.Intn(frameCount))
		rec.StdPixel.Pix[i] = uint8(rng.Intn(8))
	}
	rec.finish()
	return rec
}

func mustMarshal(t *testing.T, rec *Record, rev Revision) []byte {
	t.Helper()
	data, err := Marshal(rec, rev)
	if err != nil {
		t.Fatalf("Marshal(%v) error = %v", rev, err)
	}
	return data
}

func framesEqual(a, b *Frame) bool {
	return a.Rows == b.Rows && a.Cols == b.Cols && bytes.Equal(a.Pix, b.Pix)
}

// fitsCard formats one 80-column FITS header card.
func fitsCard(key string, value any) string {
	var v string
	switch x := value.(type) {
	case bool:
		v = fmt.Sprintf("%20s", map[bool]string{true: "T", false: "F"}[x])
	case int:
		v = fmt.Sprintf("%20d", x)
	case float64:
		v = fmt.Sprintf("%20.6f", x)
	case string:
		v = fmt.Sprintf("'%-8s'", x)
	}
	return fmt.Sprintf("%-80s", fmt.Sprintf("%-8s= %s", key, v))
}

func fitsBlock(cards []string) []byte {
	s := strings.Join(cards, "") + fmt.Sprintf("%-80s", "END")
	if pad := len(s) % 2880; pad != 0 {
		s += strings.Repeat(" ", 2880-pad)
	}
	return []byte(s)
}

func fitsData(b []byte) []byte {
	out := append([]byte(nil), b...)
	if pad := len(out) % 2880; pad != 0 {
		out = append(out, make([]byte, 2880-pad)...)
	}
	return out
}

// buildFITS writes rec the way RMS stations do: metadata in the primary
// header and nplanes 8-bit image extensions.
func buildFITS(rec *Record, nplanes int) []byte {
	var buf bytes.Buffer
	buf.Write(fitsBlock([]string{
		fitsCard("SIMPLE", true),
		fitsCard("BITPIX", 8),
		fitsCard("NAXIS", 0),
		fitsCard("EXTEND", true),
		fitsCard("NROWS", rec.Rows),
		fitsCard("NCOLS", rec.Cols),
		fitsCard("NBITS", rec.BitDepth),
		fitsCard("NFRAMES", rec.FrameCount),
		fitsCard("FIRST", rec.FirstFrame),
		fitsCard("CAMNO", rec.StationID),
		fitsCard("FPS", rec.FPS),
	}))

	frames := make([]byte, len(rec.MaxFrame.Pix))
	for i, v := range rec.MaxFrame.Pix {
		frames[i] = byte(v)
	}
	planes := [][]byte{rec.MaxPixel.Pix, frames, rec.AvePixel.Pix, rec.StdPixel.Pix}
	for _, p := range planes[:nplanes] {
		buf.Write(fitsBlock([]string{
			fitsCard("XTENSION", "IMAGE"),
			fitsCard("BITPIX", 8),
			fitsCard("NAXIS", 2),
			fitsCard("NAXIS1", rec.Cols),
			fitsCard("NAXIS2", rec.Rows),
			fitsCard("PCOUNT", 0),
			fitsCard("GCOUNT", 1),
		}))
		buf.Write(fitsData(p))
	}
	return buf.Bytes()
}
