package ffseq

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/mrjoshuak/go-ffbin/ff"
	"github.com/mrjoshuak/go-ffbin/ffcal"
)

// testRecord returns a rows x cols record with frameCount frames whose
// pixels peak at pseudo-random frames.
func testRecord(t *testing.T, rows, cols, frameCount int) *ff.Record {
	t.Helper()
	rng := rand.New(rand.NewSource(int64(frameCount)))
	rec := &ff.Record{
		Rows: rows, Cols: cols, FrameCount: frameCount, Decimation: 1,
		MaxPixel: ff.NewFrame(rows, cols),
		MaxFrame: ff.NewIndexPlane(rows, cols),
		AvePixel: ff.NewFrame(rows, cols),
		StdPixel: ff.NewFrame(rows, cols),
	}
	for i := range rec.MaxPixel.Pix {
		rec.AvePixel.Pix[i] = uint8(20 + rng.Intn(10))
		rec.MaxPixel.Pix[i] = rec.AvePixel.Pix[i] + uint8(rng.Intn(30))
		rec.MaxFrame.Pix[i] = uint16(rng.Intn(frameCount))
	}
	rec.BrightnessRatio = rec.MaxPixel.Mean() / rec.AvePixel.Mean()
	if err := rec.Validate(); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestBuild(t *testing.T) {
	rec := testRecord(t, 8, 12, 256)
	p := &ffcal.Pipeline{Deinterlace: true}

	frames, err := Build(rec, 10, 12, p, false)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("Build() returned %d frames, want 3", len(frames))
	}
	for i, f := range frames {
		if f.Rows != 8 || f.Cols != 12 {
			t.Errorf("frame %d is %dx%d, want 8x12", i, f.Rows, f.Cols)
		}
		img, _ := rec.Reconstruct(10+i, ff.ModeVideo)
		want, _ := p.Apply(img)
		if !slices.Equal(f.Pix, want.Pix) {
			t.Errorf("frame %d differs from reconstruct+calibrate", i)
		}
	}
}

func TestBuildPerField(t *testing.T) {
	rec := testRecord(t, 6, 4, 16)
	// Deinterlace is ignored for per-field sequences.
	p := &ffcal.Pipeline{Deinterlace: true}

	frames, err := Build(rec, 3, 5, p, true)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(frames) != 6 {
		t.Fatalf("Build() returned %d frames, want 6", len(frames))
	}
	for i := 0; i < 3; i++ {
		img, _ := rec.Reconstruct(3+i, ff.ModeVideo)
		if !slices.Equal(frames[2*i].Pix, ffcal.ExtractOdd(img).Pix) {
			t.Errorf("frame %d: odd field differs", 3+i)
		}
		if !slices.Equal(frames[2*i+1].Pix, ffcal.ExtractEven(img).Pix) {
			t.Errorf("frame %d: even field differs", 3+i)
		}
	}
	if !p.Deinterlace {
		t.Error("Build modified the caller's pipeline")
	}
}

func TestBuildErrors(t *testing.T) {
	rec := testRecord(t, 4, 4, 16)
	tests := []struct {
		name       string
		start, end int
		p          *ffcal.Pipeline
		want       error
	}{
		{"negative start", -1, 3, nil, ff.ErrFrameIndex},
		{"end past count", 10, 16, nil, ff.ErrFrameIndex},
		{"reversed", 5, 4, nil, ff.ErrFrameIndex},
		{"dark shape", 0, 3, &ffcal.Pipeline{Dark: ff.NewFrame(3, 4)}, ff.ErrShapeMismatch},
		{"field and deinterlace", 0, 3, &ffcal.Pipeline{Deinterlace: true, Field: ffcal.FieldOdd}, ffcal.ErrFieldAndDeinterlace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, err := Build(rec, tt.start, tt.end, tt.p, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
			if frames != nil {
				t.Errorf("Build() returned %d frames with an error", len(frames))
			}
		})
	}
}

func TestBuildAnnotated(t *testing.T) {
	rec := testRecord(t, 40, 260, 16)
	plain, err := Build(rec, 2, 2, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	noted, err := BuildOptions(rec, 2, 2, nil, Options{Annotate: true, Name: "FF451.bin"})
	if err != nil {
		t.Fatal(err)
	}
	if slices.Equal(plain[0].Pix, noted[0].Pix) {
		t.Error("annotation left the frame unchanged")
	}
	// Text stays in the top rows.
	bottom := (rec.Rows - 10) * rec.Cols
	if !slices.Equal(plain[0].Pix[bottom:], noted[0].Pix[bottom:]) {
		t.Error("annotation reached the bottom rows")
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name  string
		k     int
		field ffcal.Field
		want  string
	}{
		{"FF451.bin", 12, ffcal.FieldNone, "FF451.bin frame = 012"},
		{"FF451.bin", 7, ffcal.FieldOdd, "FF451.bin frame = 007.5"},
		{"FF451.bin", 255, ffcal.FieldEven, "FF451.bin frame = 255.0"},
		{"x", 1499, ffcal.FieldNone, "x frame = 1499"},
	}
	for _, tt := range tests {
		if got := Label(tt.name, tt.k, tt.field); got != tt.want {
			t.Errorf("Label(%q, %d, %v) = %q, want %q", tt.name, tt.k, tt.field, got, tt.want)
		}
	}
}
