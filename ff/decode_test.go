package ff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/mrjoshuak/go-ffbin/compression"
)

func TestDecodeLegacy(t *testing.T) {
	src := testRecord(t, 576, 720, 256, 40, 20)
	src.FirstFrame = 397568
	src.StationID = 451
	data := mustMarshal(t, src, RevisionLegacy)

	if got, want := len(data), 20+4*576*720; got != want {
		t.Fatalf("encoded size = %d, want %d", got, want)
	}

	rec, err := Decode(data, FormatAuto)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if rec.Revision != RevisionLegacy {
		t.Errorf("Revision = %v, want legacy", rec.Revision)
	}
	if rec.Rows != 576 || rec.Cols != 720 {
		t.Errorf("shape = %dx%d, want 576x720", rec.Rows, rec.Cols)
	}
	if rec.BitDepth != 8 || rec.FrameCount != 256 {
		t.Errorf("BitDepth, FrameCount = %d, %d, want 8, 256", rec.BitDepth, rec.FrameCount)
	}
	if rec.FirstFrame != 397568 || rec.StationID != 451 {
		t.Errorf("FirstFrame, StationID = %d, %d", rec.FirstFrame, rec.StationID)
	}
	if rec.Decimation != 1 || rec.Interleave != 0 || rec.FPS != 0 {
		t.Errorf("extended defaults = %d, %d, %v", rec.Decimation, rec.Interleave, rec.FPS)
	}
	if rec.Placeholder() {
		t.Fatalf("unexpected placeholder: %v", rec.LoadErr)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if rec.BrightnessRatio <= 1 || rec.BrightnessRatio > BrightenThreshold {
		t.Fatalf("BrightnessRatio = %v, want in (1, %v]", rec.BrightnessRatio, BrightenThreshold)
	}

	for _, p := range []struct {
		name      string
		got, want *Frame
	}{
		{"maxpixel", rec.MaxPixel, src.MaxPixel},
		{"avepixel", rec.AvePixel, src.AvePixel},
		{"stdpixel", rec.StdPixel, src.StdPixel},
	} {
		if !framesEqual(p.got, p.want) {
			t.Errorf("%s plane differs after round trip", p.name)
		}
	}

	frame0, err := rec.Reconstruct(0, ModeVideo)
	if err != nil {
		t.Fatalf("Reconstruct(0) error = %v", err)
	}
	for i, v := range frame0.Pix {
		want := rec.AvePixel.Pix[i]
		if rec.MaxFrame.Pix[i] == 0 {
			want = rec.MaxPixel.Pix[i]
		}
		if v != want {
			t.Fatalf("pixel %d = %d, want %d", i, v, want)
		}
	}
}

func TestDecodeExtended(t *testing.T) {
	src := testRecord(t, 32, 48, 256, 30, 10)
	src.FrameCount = 200
	for i, v := range src.MaxFrame.Pix {
		src.MaxFrame.Pix[i] = v % 200
	}
	src.FirstFrame = 944384
	src.StationID = 432
	src.Decimation = 2
	src.Interleave = 1
	src.FPS = 29.97

	rec, err := Decode(mustMarshal(t, src, RevisionExtended), FormatAuto)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if rec.Revision != RevisionExtended {
		t.Errorf("Revision = %v, want extended", rec.Revision)
	}
	if rec.FrameCount != 200 || rec.FirstFrame != 944384 || rec.StationID != 432 {
		t.Errorf("counts = %d, %d, %d", rec.FrameCount, rec.FirstFrame, rec.StationID)
	}
	if rec.Decimation != 2 || rec.Interleave != 1 {
		t.Errorf("Decimation, Interleave = %d, %d", rec.Decimation, rec.Interleave)
	}
	if rec.FPS != 29.97 {
		t.Errorf("FPS = %v, want 29.97", rec.FPS)
	}
	if rec.MaxFrame.Max() >= rec.FrameCount {
		t.Errorf("MaxFrame max %d >= FrameCount", rec.MaxFrame.Max())
	}

	// The explicit format must agree with the tag.
	if _, err := Decode(mustMarshal(t, src, RevisionExtended), FormatExtended); err != nil {
		t.Errorf("Decode(FormatExtended) error = %v", err)
	}
}

func TestDecodeTruncatedPlanes(t *testing.T) {
	src := testRecord(t, 40, 240, 256, 50, 30)
	data := mustMarshal(t, src, RevisionLegacy)

	for _, cut := range []int{1, 40 * 240, len(data) - 20} {
		rec, err := Decode(data[:len(data)-cut], FormatAuto)
		if err != nil {
			t.Fatalf("cut %d: Decode() error = %v, want placeholder", cut, err)
		}
		if !rec.Placeholder() {
			t.Fatalf("cut %d: record is not a placeholder", cut)
		}
		if !errors.Is(rec.LoadErr, ErrTruncated) {
			t.Errorf("cut %d: LoadErr = %v, want ErrTruncated", cut, rec.LoadErr)
		}
		if rec.Rows != 40 || rec.Cols != 240 || rec.FrameCount != 256 {
			t.Errorf("cut %d: header fields lost: %dx%d, %d frames", cut, rec.Rows, rec.Cols, rec.FrameCount)
		}
		if err := rec.Validate(); err != nil {
			t.Errorf("cut %d: placeholder fails Validate: %v", cut, err)
		}

		lit := 0
		for _, v := range rec.MaxPixel.Pix {
			if v != 0 {
				lit++
			}
		}
		if lit == 0 {
			t.Errorf("cut %d: placeholder maxpixel carries no text", cut)
		}
		if rec.AvePixel.Mean() != 0 {
			t.Errorf("cut %d: placeholder avepixel is not zero", cut)
		}
		if rec.BrightnessRatio != 0 {
			t.Errorf("cut %d: BrightnessRatio = %v, want 0", cut, rec.BrightnessRatio)
		}
	}
}

func TestDecodeLargeHeaderNoPlanes(t *testing.T) {
	rec, err := Decode(header(2160, 3840, 8, 0, 0), FormatAuto)
	if err != nil {
		t.Fatalf("Decode() error = %v, want placeholder", err)
	}
	if !errors.Is(rec.LoadErr, ErrTruncated) {
		t.Errorf("LoadErr = %v, want ErrTruncated", rec.LoadErr)
	}
	if rec.Rows != 2160 || rec.Cols != 3840 || len(rec.MaxPixel.Pix) != 2160*3840 {
		t.Fatalf("placeholder shape = %dx%d", rec.Cols, rec.Rows)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("placeholder fails Validate: %v", err)
	}
	if lit := slices.IndexFunc(rec.MaxPixel.Pix, func(v uint8) bool { return v != 0 }); lit < 0 || lit >= 40*3840 {
		t.Errorf("first lit pixel at %d, want text in the top rows", lit)
	}
}

// bmpHeader returns the file and info headers of a 24-bit BMP without
// pixel data.
func bmpHeader(width, height int32) []byte {
	b := make([]byte, 54)
	copy(b, "BM")
	binary.LittleEndian.PutUint32(b[2:], 54)
	binary.LittleEndian.PutUint32(b[10:], 54)
	binary.LittleEndian.PutUint32(b[14:], 40)
	binary.LittleEndian.PutUint32(b[18:], uint32(width))
	binary.LittleEndian.PutUint32(b[22:], uint32(height))
	binary.LittleEndian.PutUint16(b[26:], 1)
	binary.LittleEndian.PutUint16(b[28:], 24)
	return b
}

func header(vals ...int32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(v))
	}
	return b
}

func TestDecodeHeaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		format Format
		want   error
	}{
		{"empty", nil, FormatAuto, ErrTruncated},
		{"short tag", []byte{1, 0}, FormatAuto, ErrTruncated},
		{"legacy short header", header(576, 720, 8), FormatAuto, ErrTruncated},
		{"extended short header", header(-1, 576, 720, 256), FormatAuto, ErrTruncated},
		{"zero tag", header(0, 720, 8, 0, 0), FormatLegacy, ErrUnknownVersion},
		{"negative tag", header(-2, 720, 8, 0, 0), FormatAuto, ErrUnknownVersion},
		{"bit depth", header(576, 720, 17, 0, 0), FormatAuto, ErrFormat},
		{"zero cols", header(576, 0, 8, 0, 0), FormatAuto, ErrDimensions},
		{"huge", header(-1, 1<<20, 1<<20, 256, 0, 0, 1, 0, 25000), FormatAuto, ErrDimensions},
		{"huge legacy", header(8192, 8192, 8, 0, 0), FormatAuto, ErrDimensions},
		{"huge bmp", bmpHeader(8192, 8192), FormatAuto, ErrDimensions},
		{"legacy as extended", header(576, 720, 8, 0, 0), FormatExtended, ErrVersionMismatch},
		{"extended as legacy", header(-1, 576, 720, 256, 0, 0, 1, 0, 25000), FormatLegacy, ErrVersionMismatch},
		{"unknown format", header(576, 720, 8, 0, 0), Format(99), ErrUnknownFormat},
		{"not bmp", []byte("BMxxxx"), FormatAuto, ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Decode(tt.data, tt.format)
			if err == nil {
				t.Fatalf("Decode() = %+v, want error", rec)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ErrFormat) {
				t.Errorf("Decode() error = %v does not wrap ErrFormat", err)
			}
		})
	}
}

func TestDecodeCompressed(t *testing.T) {
	src := testRecord(t, 24, 32, 256, 20, 40)
	raw := mustMarshal(t, src, RevisionLegacy)

	for _, codec := range []compression.Codec{compression.CodecGzip, compression.CodecZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			packed, err := compression.Wrap(raw, codec)
			if err != nil {
				t.Fatalf("Wrap() error = %v", err)
			}
			rec, err := Decode(packed, FormatAuto)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !framesEqual(rec.MaxPixel, src.MaxPixel) {
				t.Error("maxpixel differs")
			}
		})
	}

	t.Run("corrupt", func(t *testing.T) {
		packed, _ := compression.Wrap(raw, compression.CodecGzip)
		packed = packed[:len(packed)/2]
		if _, err := Decode(packed, FormatAuto); !errors.Is(err, ErrFormat) {
			t.Errorf("Decode() error = %v, want ErrFormat", err)
		}
	})
}

func TestDecodeSkypatrol(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.Set(x, y, color.RGBA{R: uint8(10 * x), G: uint8(y), B: 100, A: 255})
		}
	}
	// Red above 99 is clipped.
	img.Set(5, 3, color.RGBA{R: 200, G: 14, B: 250, A: 255})

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	rec, err := Decode(buf.Bytes(), FormatAuto)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if rec.Revision != RevisionSkypatrol {
		t.Errorf("Revision = %v, want skypatrol", rec.Revision)
	}
	if rec.FrameCount != SkypatrolFrameCount {
		t.Errorf("FrameCount = %d, want %d", rec.FrameCount, SkypatrolFrameCount)
	}
	if rec.Rows != 4 || rec.Cols != 6 {
		t.Errorf("shape = %dx%d, want 4x6", rec.Rows, rec.Cols)
	}

	tests := []struct {
		x, y  int
		frame int
		peak  uint8
	}{
		{0, 0, 0, 100},
		{3, 0, 30, 100},
		{4, 2, 240, 100},
		{5, 3, 99 + 1400, 250},
	}
	for _, tt := range tests {
		if got := rec.MaxFrame.At(tt.x, tt.y); got != tt.frame {
			t.Errorf("MaxFrame(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.frame)
		}
		if got := rec.MaxPixel.GrayAt(tt.x, tt.y); got != tt.peak {
			t.Errorf("MaxPixel(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.peak)
		}
	}
	if rec.AvePixel.Mean() != 0 || rec.BrightnessRatio != 0 {
		t.Errorf("ave mean, ratio = %v, %v, want 0, 0", rec.AvePixel.Mean(), rec.BrightnessRatio)
	}
	if err := rec.CheckFrame(1499); err != nil {
		t.Errorf("CheckFrame(1499) = %v", err)
	}
}

func TestDecodeFITS(t *testing.T) {
	src := testRecord(t, 16, 24, 256, 60, 50)
	src.FrameCount = 256
	src.FirstFrame = 1024
	src.StationID = 7
	src.FPS = 25

	rec, err := Decode(buildFITS(src, 4), FormatAuto)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if rec.Revision != RevisionFITS {
		t.Errorf("Revision = %v, want fits", rec.Revision)
	}
	if rec.Placeholder() {
		t.Fatalf("unexpected placeholder: %v", rec.LoadErr)
	}
	if rec.Rows != 16 || rec.Cols != 24 || rec.FrameCount != 256 {
		t.Errorf("shape = %dx%d, %d frames", rec.Rows, rec.Cols, rec.FrameCount)
	}
	if rec.FirstFrame != 1024 || rec.StationID != 7 || rec.FPS != 25 || rec.BitDepth != 8 {
		t.Errorf("metadata = first %d, station %d, fps %v, bits %d", rec.FirstFrame, rec.StationID, rec.FPS, rec.BitDepth)
	}
	if !framesEqual(rec.MaxPixel, src.MaxPixel) || !framesEqual(rec.AvePixel, src.AvePixel) {
		t.Error("planes differ")
	}
	for i := range src.MaxFrame.Pix {
		if rec.MaxFrame.Pix[i] != src.MaxFrame.Pix[i] {
			t.Fatalf("maxframe %d = %d, want %d", i, rec.MaxFrame.Pix[i], src.MaxFrame.Pix[i])
		}
	}

	t.Run("missing planes", func(t *testing.T) {
		rec, err := Decode(buildFITS(src, 2), FormatFITS)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if !errors.Is(rec.LoadErr, ErrTruncated) {
			t.Errorf("LoadErr = %v, want ErrTruncated", rec.LoadErr)
		}
	})

	t.Run("truncated extension", func(t *testing.T) {
		data := buildFITS(src, 4)
		// Cuts land in the padding, the data, the header and on a unit
		// boundary of the last plane.
		for _, cut := range []int{1, 100, 2880, 2880 + 100, 2 * 2880} {
			rec, err := Decode(data[:len(data)-cut], FormatFITS)
			if err != nil {
				t.Fatalf("cut %d: Decode() error = %v, want placeholder", cut, err)
			}
			if !errors.Is(rec.LoadErr, ErrTruncated) {
				t.Errorf("cut %d: LoadErr = %v, want ErrTruncated", cut, rec.LoadErr)
			}
			if rec.Rows != 16 || rec.Cols != 24 || rec.StationID != 7 || rec.FPS != 25 {
				t.Errorf("cut %d: header metadata lost: %dx%d, station %d, fps %v", cut, rec.Rows, rec.Cols, rec.StationID, rec.FPS)
			}
		}

		if _, err := Decode(data[:2000], FormatFITS); !errors.Is(err, ErrFormat) {
			t.Errorf("truncated primary header: error = %v, want ErrFormat", err)
		}
	})
}

func TestDecodeFile(t *testing.T) {
	src := testRecord(t, 8, 8, 256, 10, 5)
	dir := t.TempDir()

	raw := mustMarshal(t, src, RevisionLegacy)
	gz, err := compression.Wrap(raw, compression.CodecGzip)
	if err != nil {
		t.Fatal(err)
	}
	files := map[string][]byte{
		"FF451_20140819_003718_000_0397568.bin":    raw,
		"FF451_20140819_003718_000_0397568.bin.gz": gz,
		"FF_broken.bin": header(8, 8),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	for _, name := range []string{"FF451_20140819_003718_000_0397568.bin", "FF451_20140819_003718_000_0397568.bin.gz"} {
		rec, err := DecodeFile(filepath.Join(dir, name), FormatAuto)
		if err != nil {
			t.Errorf("DecodeFile(%s) error = %v", name, err)
			continue
		}
		if !framesEqual(rec.AvePixel, src.AvePixel) {
			t.Errorf("DecodeFile(%s): avepixel differs", name)
		}
	}

	_, err = DecodeFile(filepath.Join(dir, "FF_broken.bin"), FormatAuto)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("DecodeFile(broken) error = %v, want ErrTruncated", err)
	}
	if err != nil && !bytes.Contains([]byte(err.Error()), []byte("FF_broken.bin")) {
		t.Errorf("error %q does not name the file", err)
	}

	if _, err := DecodeFile(filepath.Join(dir, "missing.bin"), FormatAuto); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("DecodeFile(missing) error = %v, want ErrNotExist", err)
	}

	rec, err := DecodeReader(bytes.NewReader(raw), FormatLegacy)
	if err != nil || rec.Rows != 8 {
		t.Errorf("DecodeReader() = %v, %v", rec, err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"CAMS", FormatAuto, false},
		{"bin", FormatAuto, false},
		{"legacy", FormatLegacy, false},
		{"extended", FormatExtended, false},
		{"rms", FormatFITS, false},
		{"fits", FormatFITS, false},
		{"bmp", FormatSkypatrol, false},
		{"skypatrol", FormatSkypatrol, false},
		{"png", FormatAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnknownFormat", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"FF451_20140819_003718_000_0397568.bin", FormatAuto},
		{"/data/FF_HR0001_20200101_000000_000_0000000.fits", FormatFITS},
		{"ff_x.FIT", FormatFITS},
		{"FF_x.fits.gz", FormatFITS},
		{"FF_x.fits.zst", FormatFITS},
		{"00000171.bmp", FormatSkypatrol},
		{"00000171.BMP.gz", FormatSkypatrol},
		{"archive.bin.gz", FormatAuto},
	}
	for _, tt := range tests {
		if got := FormatForPath(tt.path); got != tt.want {
			t.Errorf("FormatForPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestMarshalErrors(t *testing.T) {
	base := testRecord(t, 4, 4, 256, 10, 5)

	t.Run("non power of two", func(t *testing.T) {
		rec := *base
		rec.FrameCount = 200
		// Keep every index valid so only the layout limit can fail.
		rec.MaxFrame = NewIndexPlane(base.Rows, base.Cols)
		for i, v := range base.MaxFrame.Pix {
			rec.MaxFrame.Pix[i] = v % 200
		}
		if err := rec.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}

		_, err := Marshal(&rec, RevisionLegacy)
		if !errors.Is(err, ErrValue) || errors.Is(err, ErrRange) {
			t.Errorf("Marshal() error = %v, want ErrValue", err)
		}

		data, err := Marshal(&rec, RevisionExtended)
		if err != nil {
			t.Fatalf("Marshal(extended) error = %v", err)
		}
		got, err := Decode(data, FormatExtended)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if got.FrameCount != 200 || !slices.Equal(got.MaxFrame.Pix, rec.MaxFrame.Pix) {
			t.Errorf("extended round trip: FrameCount %d, maxframe equal %v", got.FrameCount, slices.Equal(got.MaxFrame.Pix, rec.MaxFrame.Pix))
		}
	})

	t.Run("wide index", func(t *testing.T) {
		rec := *base
		rec.FrameCount = 1500
		rec.MaxFrame = NewIndexPlane(4, 4)
		rec.MaxFrame.Pix[0] = 1000
		if _, err := Marshal(&rec, RevisionExtended); !errors.Is(err, ErrValue) {
			t.Errorf("Marshal() error = %v, want ErrValue", err)
		}
	})

	t.Run("revision", func(t *testing.T) {
		if _, err := Marshal(base, RevisionFITS); !errors.Is(err, ErrValue) {
			t.Errorf("Marshal(fits) error = %v, want ErrValue", err)
		}
	})

	t.Run("invalid record", func(t *testing.T) {
		rec := *base
		rec.StdPixel = NewFrame(3, 4)
		if _, err := Marshal(&rec, RevisionLegacy); !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("Marshal() error = %v, want ErrShapeMismatch", err)
		}
	})

	t.Run("encode", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Encode(&buf, base, RevisionExtended); err != nil {
			t.Fatal(err)
		}
		if got, want := buf.Len(), 36+4*16; got != want {
			t.Errorf("Encode() wrote %d bytes, want %d", got, want)
		}
	})
}

func TestValidate(t *testing.T) {
	rec := testRecord(t, 4, 5, 16, 10, 5)
	if err := rec.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	bad := *rec
	bad.MaxFrame = NewIndexPlane(4, 5)
	bad.MaxFrame.Pix[3] = 16
	bad.AvePixel = nil
	err := bad.Validate()
	if !errors.Is(err, ErrFrameIndex) || !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Validate() = %v, want both ErrFrameIndex and ErrShapeMismatch", err)
	}
	if !errors.Is(err, ErrRange) {
		t.Errorf("Validate() = %v does not wrap ErrRange", err)
	}
}
