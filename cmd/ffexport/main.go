// ffexport renders a frame range of an FF file as an animated GIF or a
// directory of numbered PNG frames, or renders a single still image.
//
// Usage:
//
//	ffexport [options] infile
//
// Options:
//
//	-config <file>  YAML calibration and export settings
//	-start <n>      first frame (default 0)
//	-end <n>        last frame (default last frame of the file)
//	-perfield       emit odd and even fields as separate images
//	-still <kind>   render one image instead: detect, maxnomean, colorize
//	-o <out>        output .gif file, image file for -still, or directory
//	-v              verbose output
//	-h, -help       show usage information
//	-version        show version information
//
// Flags given on the command line override values from the config file.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/maruel/interrupt"

	"github.com/mrjoshuak/go-ffbin/ff"
	"github.com/mrjoshuak/go-ffbin/ffcal"
	"github.com/mrjoshuak/go-ffbin/ffseq"
	"github.com/mrjoshuak/go-ffbin/internal/config"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "YAML settings file")
	start := flag.Int("start", 0, "first frame")
	end := flag.Int("end", -1, "last frame (-1 for the last frame of the file)")
	perField := flag.Bool("perfield", false, "emit odd and even fields separately")
	still := flag.String("still", "", "render one image: detect, maxnomean, colorize")
	out := flag.String("o", "", "output .gif, image file or directory")
	fps := flag.Float64("fps", 0, "playback rate (overrides config)")
	format := flag.String("format", "", "decoder (overrides config)")
	verbose := flag.Bool("v", false, "verbose output")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ffexport [options] infile\n\n")
		fmt.Fprintf(os.Stderr, "Render frames of an FF file as an animated GIF or PNG sequence.\n\n")
		fmt.Fprintf(os.Stderr, "Output is chosen by -o:\n")
		fmt.Fprintf(os.Stderr, "  name.gif   animated GIF\n")
		fmt.Fprintf(os.Stderr, "  directory  numbered PNG frames for a video encoder\n")
		fmt.Fprintf(os.Stderr, "  image file with -still: one detection, max-minus-mean or colour image\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("ffexport version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 || *out == "" {
		flag.Usage()
		os.Exit(1)
	}
	inFile := args[0]

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *fps != 0 {
		cfg.FPS = *fps
	}
	if *format != "" {
		cfg.Format = *format
	}
	if *perField {
		// Fields replace whole-frame deinterlacing.
		cfg.Deinterlace = false
		cfg.Field = "none"
	}

	p, err := cfg.Pipeline()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rec, err := ff.DecodeFile(inFile, cfg.DecodeFormat())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", inFile, err)
		os.Exit(1)
	}
	if rec.Placeholder() {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", inFile, rec.LoadErr)
		os.Exit(1)
	}
	if *end < 0 {
		*end = rec.FrameCount - 1
	}

	if *verbose {
		fmt.Printf("Input: %s (%s, %dx%d, %d frames)\n", inFile, rec.Revision, rec.Cols, rec.Rows, rec.FrameCount)
		fmt.Printf("Frames: %d..%d\n", *start, *end)
		fmt.Printf("Calibration: dark=%t flat=%t deinterlace=%t field=%s\n",
			p.Dark != nil, p.Flat != nil, p.Deinterlace, p.Field)
	}

	if *still != "" {
		err = writeStill(*still, rec, *start, *end, p, *out)
	} else {
		opts := ffseq.Options{
			PerField: *perField,
			Annotate: cfg.Annotate,
			Name:     stem(inFile),
		}
		err = writeSequence(rec, *start, *end, p, opts, cfg, *out, *verbose)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		fmt.Printf("Wrote %s\n", *out)
	}
}

// writeSequence renders the range one image at a time so that Ctrl-C
// stops the export between frames.
func writeSequence(rec *ff.Record, start, end int, p *ffcal.Pipeline, opts ffseq.Options, cfg *config.Config, out string, verbose bool) error {
	loop, err := ffseq.NewLoop(rec, start, end, p, opts)
	if err != nil {
		return err
	}

	interrupt.HandleCtrlC()
	frames := make([]*ff.Frame, 0, loop.Len())
	for i := 0; i < loop.Len(); i++ {
		if interrupt.IsSet() {
			return fmt.Errorf("interrupted after %d of %d images", i, loop.Len())
		}
		f, err := loop.Next()
		if err != nil {
			return err
		}
		frames = append(frames, f)
		if verbose {
			fmt.Printf("\rRendered %d/%d", i+1, loop.Len())
		}
	}
	if verbose {
		fmt.Println()
	}

	if strings.EqualFold(filepath.Ext(out), ".gif") {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := ffseq.WriteGIF(f, frames, cfg.FPS, cfg.Loop); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	_, err = ffseq.WritePNGSequence(out, opts.Name, start, frames)
	return err
}

// stem strips the directory and every extension, so FF_x.bin.gz gives FF_x.
func stem(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}

func writeStill(kind string, rec *ff.Record, start, end int, p *ffcal.Pipeline, out string) error {
	switch kind {
	case "detect":
		f, err := ffcal.DetectionOnly(rec, start, end, p)
		if err != nil {
			return err
		}
		return ffcal.SaveFrame(out, f)
	case "maxnomean":
		return ffcal.SaveFrame(out, ffcal.MaxNoMean(rec))
	case "colorize":
		img, err := ffcal.ColorizeMaxFrame(rec, p.Levels)
		if err != nil {
			return err
		}
		return imaging.Save(img, out)
	default:
		return fmt.Errorf("unknown still image kind %q", kind)
	}
}
