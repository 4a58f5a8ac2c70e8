// ffflat builds a flat-field calibration image from the average planes of
// a batch of FF files.
//
// Usage:
//
//	ffflat [options] -o flat.png file [file ...]
//
// Options:
//
//	-dark <file>    dark frame subtracted from every source
//	-chunked        median of chunk medians instead of one global median
//	-chunk <n>      chunk size for -chunked (default 31)
//	-fixcols        replace the flat by per-column medians
//	-format <name>  decoder: auto, legacy, extended, fits, skypatrol
//	-o <file>       output image (png, bmp, tif)
//	-v              verbose output
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrjoshuak/go-ffbin/ff"
	"github.com/mrjoshuak/go-ffbin/ffcal"
)

const version = "1.0.0"

func main() {
	darkPath := flag.String("dark", "", "dark frame image")
	chunked := flag.Bool("chunked", false, "combine chunk medians")
	chunk := flag.Int("chunk", ffcal.DefaultChunkSize, "chunk size for -chunked")
	fixCols := flag.Bool("fixcols", false, "replace the flat by per-column medians")
	formatName := flag.String("format", "auto", "decoder")
	out := flag.String("o", "", "output image")
	verbose := flag.Bool("v", false, "verbose output")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ffflat [options] -o flat.png file [file ...]\n\n")
		fmt.Fprintf(os.Stderr, "Build a flat-field image from the average planes of FF files.\n")
		fmt.Fprintf(os.Stderr, "At most %d files are combined.\n\n", ffcal.MaxFlatSources)
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("ffflat version %s\n", version)
		os.Exit(0)
	}

	files := flag.Args()
	if len(files) == 0 || *out == "" {
		flag.Usage()
		os.Exit(1)
	}

	format, err := ff.ParseFormat(*formatName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var dark *ff.Frame
	if *darkPath != "" {
		dark, err = ffcal.LoadDark(*darkPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading dark frame: %v\n", err)
			os.Exit(1)
		}
	}

	opts := ffcal.FlatOptions{
		Chunked:    *chunked,
		ChunkSize:  *chunk,
		FixColumns: *fixCols,
	}
	if *verbose {
		fmt.Printf("Sources: %d\n", len(files))
		fmt.Printf("Dark: %t, chunked: %t, fix columns: %t\n", dark != nil, *chunked, *fixCols)
	}

	flat, err := ffcal.BuildFlatFiles(files, format, dark, *out, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Flat %dx%d, median %d\n", flat.Cols, flat.Rows, flat.Median)
		fmt.Printf("Wrote %s\n", *out)
	}
}
