package ff

import (
	"fmt"
	"io"
	"math"
	"math/bits"

	"github.com/mrjoshuak/go-ffbin/internal/xdr"
)

// CAMS binary layout.
//
// Legacy (leading int32 > 0):
//
//	rows:int32 cols:uint32 bitDepth:uint32 first:uint32 station:uint32
//
// Extended (leading int32 == -1):
//
//	-1:int32 rows:uint32 cols:uint32 frames:uint32 first:uint32
//	station:uint32 decimation:uint32 interleave:uint32 fpsMilli:uint32
//
// Both are followed by four rows*cols 8-bit planes: maxpixel, maxframe,
// avepixel, stdpixel.
const (
	extendedTag    = -1
	legacyFields   = 4
	extendedFields = 8
	maxLegacyDepth = 16
	extendedHdrLen = 4 + 4*extendedFields
)

func readFields(r *xdr.Reader, n int) ([]uint32, error) {
	out := make([]uint32, n)
	for i := range out {
		v, err := r.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("%w: header field %d", ErrTruncated, i+1)
		}
		out[i] = v
	}
	return out, nil
}

func decodeCAMS(data []byte, hint Format) (*Record, error) {
	r := xdr.NewReader(data)
	tag, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("%w: version tag", ErrTruncated)
	}

	var rec *Record
	switch {
	case tag > 0:
		if hint == FormatExtended {
			return nil, fmt.Errorf("%w: tag %d", ErrVersionMismatch, tag)
		}
		f, err := readFields(r, legacyFields)
		if err != nil {
			return nil, err
		}
		if f[1] > maxLegacyDepth {
			return nil, fmt.Errorf("%w: bit depth %d", ErrFormat, f[1])
		}
		rec = newRecord(RevisionLegacy)
		rec.Rows = int(tag)
		rec.Cols = int(f[0])
		rec.BitDepth = int(f[1])
		rec.FrameCount = 1 << f[1]
		rec.FirstFrame = int(f[2])
		rec.StationID = int(f[3])

	case tag == extendedTag:
		if hint == FormatLegacy {
			return nil, fmt.Errorf("%w: tag %d", ErrVersionMismatch, tag)
		}
		f, err := readFields(r, extendedFields)
		if err != nil {
			return nil, err
		}
		rec = newRecord(RevisionExtended)
		rec.Rows = int(f[0])
		rec.Cols = int(f[1])
		rec.FrameCount = int(f[2])
		rec.FirstFrame = int(f[3])
		rec.StationID = int(f[4])
		rec.Decimation = int(f[5])
		rec.Interleave = int(f[6])
		rec.FPS = float64(f[7]) / 1000

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, tag)
	}

	n, err := planeSize(rec.Rows, rec.Cols)
	if err != nil {
		return nil, err
	}

	if r.Len() < 4*n {
		rec.setPlaceholder(fmt.Errorf("%w: need %d plane bytes, have %d", ErrTruncated, 4*n, r.Len()))
		return rec, nil
	}
	planes := make([][]byte, 4)
	for i := range planes {
		planes[i], _ = r.ReadBytes(n)
	}
	rec.MaxPixel = &Frame{Pix: planes[0], Rows: rec.Rows, Cols: rec.Cols}
	rec.MaxFrame = indexPlaneFromBytes(rec.Rows, rec.Cols, planes[1])
	rec.AvePixel = &Frame{Pix: planes[2], Rows: rec.Rows, Cols: rec.Cols}
	rec.StdPixel = &Frame{Pix: planes[3], Rows: rec.Rows, Cols: rec.Cols}
	return rec, nil
}

// Marshal encodes rec in the CAMS binary layout of the given revision,
// which must be RevisionLegacy or RevisionExtended.
//
// The legacy layout can only express a power-of-two FrameCount up to 2^16
// and 8-bit frame indices; the extended layout only 8-bit frame indices.
func Marshal(rec *Record, rev Revision) ([]byte, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if m := rec.MaxFrame.Max(); m > math.MaxUint8 {
		return nil, fmt.Errorf("%w: maxframe value %d does not fit 8 bits", ErrValue, m)
	}

	n := rec.Rows * rec.Cols
	w := xdr.NewBufferWriter(extendedHdrLen + 4*n)
	switch rev {
	case RevisionLegacy:
		fc := rec.FrameCount
		if fc <= 0 || fc&(fc-1) != 0 || fc > 1<<maxLegacyDepth {
			return nil, fmt.Errorf("%w: frame count %d is not a power of two", ErrValue, fc)
		}
		w.WriteInt32(int32(rec.Rows))
		w.WriteUint32(uint32(rec.Cols))
		w.WriteUint32(uint32(bits.TrailingZeros(uint(fc))))
		w.WriteUint32(uint32(rec.FirstFrame))
		w.WriteUint32(uint32(rec.StationID))
	case RevisionExtended:
		w.WriteInt32(extendedTag)
		w.WriteUint32(uint32(rec.Rows))
		w.WriteUint32(uint32(rec.Cols))
		w.WriteUint32(uint32(rec.FrameCount))
		w.WriteUint32(uint32(rec.FirstFrame))
		w.WriteUint32(uint32(rec.StationID))
		w.WriteUint32(uint32(rec.Decimation))
		w.WriteUint32(uint32(rec.Interleave))
		w.WriteUint32(uint32(math.Round(rec.FPS * 1000)))
	default:
		return nil, fmt.Errorf("%w: cannot encode revision %v", ErrValue, rev)
	}

	w.WriteBytes(rec.MaxPixel.Pix)
	frames := make([]byte, n)
	for i, v := range rec.MaxFrame.Pix {
		frames[i] = byte(v)
	}
	w.WriteBytes(frames)
	w.WriteBytes(rec.AvePixel.Pix)
	w.WriteBytes(rec.StdPixel.Pix)
	return w.Bytes(), nil
}

// Encode writes rec to w in the CAMS binary layout of the given revision.
func Encode(w io.Writer, rec *Record, rev Revision) error {
	data, err := Marshal(rec, rev)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
