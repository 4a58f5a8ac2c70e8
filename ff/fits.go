package ff

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
)

// RMS FITS layout: the primary header carries the scalar metadata and
// image extensions 1..4 hold maxpixel, maxframe, avepixel and stdpixel as
// BITPIX=8 planes with NAXIS1=cols and NAXIS2=rows.
const (
	fitsKeyRows    = "NROWS"
	fitsKeyCols    = "NCOLS"
	fitsKeyBits    = "NBITS"
	fitsKeyFrames  = "NFRAMES"
	fitsKeyFirst   = "FIRST"
	fitsKeyStation = "CAMNO"
	fitsKeyFPS     = "FPS"

	fitsPlanes = 4
)

func decodeFITS(data []byte) (*Record, error) {
	// Units are read one at a time so that a damaged extension still
	// leaves the primary header's metadata.
	dec := fitsio.NewDecoder(bytes.NewReader(data))
	primary, err := dec.DecodeHDU()
	if err != nil {
		return nil, fmt.Errorf("%w: fits: %v", ErrFormat, err)
	}
	defer primary.Close()
	head := primary.Header()

	rec := newRecord(RevisionFITS)
	for _, field := range []struct {
		key      string
		dst      *int
		required bool
	}{
		{fitsKeyRows, &rec.Rows, true},
		{fitsKeyCols, &rec.Cols, true},
		{fitsKeyFrames, &rec.FrameCount, true},
		{fitsKeyBits, &rec.BitDepth, false},
		{fitsKeyFirst, &rec.FirstFrame, false},
		{fitsKeyStation, &rec.StationID, false},
	} {
		v, ok := cardFloat(head, field.key)
		if !ok {
			if field.required {
				return nil, fmt.Errorf("%w: fits: missing %s", ErrFormat, field.key)
			}
			continue
		}
		*field.dst = int(v)
	}
	if fps, ok := cardFloat(head, fitsKeyFPS); ok {
		rec.FPS = fps
	}

	n, err := planeSize(rec.Rows, rec.Cols)
	if err != nil {
		return nil, err
	}

	planes := make([][]byte, fitsPlanes)
	for i := range planes {
		p, err := fitsPlane(dec, i+1, rec.Rows, rec.Cols, n)
		if err != nil {
			rec.setPlaceholder(err)
			return rec, nil
		}
		planes[i] = p
	}
	rec.MaxPixel = &Frame{Pix: planes[0], Rows: rec.Rows, Cols: rec.Cols}
	rec.MaxFrame = indexPlaneFromBytes(rec.Rows, rec.Cols, planes[1])
	rec.AvePixel = &Frame{Pix: planes[2], Rows: rec.Rows, Cols: rec.Cols}
	rec.StdPixel = &Frame{Pix: planes[3], Rows: rec.Rows, Cols: rec.Cols}
	return rec, nil
}

// fitsPlane reads the next unit, which must be the 8-bit plane i.
func fitsPlane(dec fitsio.Decoder, i, rows, cols, n int) ([]byte, error) {
	hdu, err := dec.DecodeHDU()
	switch {
	case err == io.EOF:
		return nil, fmt.Errorf("%w: fits: plane %d missing", ErrTruncated, i)
	case err != nil && strings.Contains(err.Error(), "EOF"):
		// fitsio flattens short reads into its own message.
		return nil, fmt.Errorf("%w: fits: plane %d: %v", ErrTruncated, i, err)
	case err != nil:
		return nil, fmt.Errorf("%w: fits: plane %d: %v", ErrFormat, i, err)
	}
	defer hdu.Close()
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("%w: fits: unit %d is not an image", ErrFormat, i)
	}
	h := img.Header()
	if h.Bitpix() != 8 {
		return nil, fmt.Errorf("%w: fits: plane %d has BITPIX %d", ErrFormat, i, h.Bitpix())
	}
	if axes := h.Axes(); len(axes) != 2 || axes[0] != cols || axes[1] != rows {
		return nil, fmt.Errorf("%w: fits: plane %d axes %v, header says %dx%d", ErrShapeMismatch, i, axes, cols, rows)
	}
	raw := img.Raw()
	if len(raw) < n {
		return nil, fmt.Errorf("%w: fits: plane %d has %d of %d bytes", ErrTruncated, i, len(raw), n)
	}
	out := make([]byte, n)
	copy(out, raw)
	return out, nil
}

// cardFloat returns the numeric value of a header card. String values are
// parsed so that station identifiers written as text still decode.
func cardFloat(h *fitsio.Header, key string) (float64, bool) {
	card := h.Get(key)
	if card == nil {
		return 0, false
	}
	switch v := card.Value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
