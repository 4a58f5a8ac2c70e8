// ffconvert re-encodes any supported FF input (CAMS binary, FITS,
// Skypatrol BMP, optionally compressed) as a CAMS binary file.
//
// Usage:
//
//	ffconvert [options] infile outfile
//
// Options:
//
//	-legacy         write the legacy layout instead of the extended one
//	-gz             gzip the output
//	-zst            zstd-compress the output
//	-format <name>  input decoder: auto, legacy, extended, fits, skypatrol
//	-v              verbose output
//
// Without -gz or -zst the output is compressed when outfile ends in .gz or
// .zst.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrjoshuak/go-ffbin/compression"
	"github.com/mrjoshuak/go-ffbin/ff"
)

const version = "1.0.0"

func main() {
	legacy := flag.Bool("legacy", false, "write the legacy layout")
	gz := flag.Bool("gz", false, "gzip the output")
	zst := flag.Bool("zst", false, "zstd-compress the output")
	formatName := flag.String("format", "auto", "input decoder")
	verbose := flag.Bool("v", false, "verbose output")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ffconvert [options] infile outfile\n\n")
		fmt.Fprintf(os.Stderr, "Re-encode an FF file as CAMS binary.\n\n")
		fmt.Fprintf(os.Stderr, "The legacy layout stores a power-of-two frame count; frame\n")
		fmt.Fprintf(os.Stderr, "indices above 255 cannot be written in either layout.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("ffconvert version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}
	inFile, outFile := args[0], args[1]

	if *gz && *zst {
		fmt.Fprintln(os.Stderr, "Error: -gz and -zst are exclusive")
		os.Exit(1)
	}
	codec := compression.CodecForExt(filepath.Ext(outFile))
	switch {
	case *gz:
		codec = compression.CodecGzip
	case *zst:
		codec = compression.CodecZstd
	}

	rev := ff.RevisionExtended
	if *legacy {
		rev = ff.RevisionLegacy
	}

	format, err := ff.ParseFormat(*formatName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rec, err := ff.DecodeFile(inFile, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", inFile, err)
		os.Exit(1)
	}
	if rec.Placeholder() {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", inFile, rec.LoadErr)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Input: %s (%s, %dx%d, %d frames)\n", inFile, rec.Revision, rec.Cols, rec.Rows, rec.FrameCount)
		fmt.Printf("Output: %s (%s, %s)\n", outFile, rev, codec)
	}

	data, err := ff.Marshal(rec, rev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding: %v\n", err)
		os.Exit(1)
	}
	data, err = compression.Wrap(data, codec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error compressing: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outFile, err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Wrote %d bytes\n", len(data))
	}
}
