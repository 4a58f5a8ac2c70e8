// ffinfo decodes FF files and reports their header, plane statistics and
// any structural problems.
//
// Usage:
//
//	ffinfo [-q|--quiet] [-f|--format <name>] <filename> [<filename> ...]
//
// Options:
//
//	-q, --quiet          Only output problems. Exit code indicates pass/fail.
//	-f, --format <name>  Decoder: auto, legacy, extended, fits, skypatrol.
//	-h, --help           Show this help message.
//	--version            Show version information.
//
// Exit codes:
//
//	0: All files valid
//	1: One or more files invalid
//	2: Error (file not found, etc.)
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mrjoshuak/go-ffbin/ff"
	"github.com/mrjoshuak/go-ffbin/ffmeta"
)

const version = "1.0.0"

// Report holds what was learned about one file.
type Report struct {
	Filename string
	Name     *ffmeta.Name // nil when the file name follows no known scheme
	Record   *ff.Record
	Summary  *ffmeta.Summary
	Problems []string
}

// IsValid returns true if no problems were found.
func (r *Report) IsValid() bool {
	return len(r.Problems) == 0
}

func main() {
	quiet := false
	format := ff.FormatAuto
	files := []string{}

	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch arg {
		case "-q", "--quiet":
			quiet = true
		case "-f", "--format":
			if i+1 >= len(os.Args) {
				fmt.Fprintf(os.Stderr, "Option %s requires a value\n", arg)
				os.Exit(2)
			}
			i++
			f, err := ff.ParseFormat(os.Args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}
			format = f
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		case "--version":
			fmt.Printf("ffinfo version %s\n", version)
			os.Exit(0)
		default:
			if strings.HasPrefix(arg, "-") {
				fmt.Fprintf(os.Stderr, "Unknown option: %s\n", arg)
				printUsage()
				os.Exit(2)
			}
			files = append(files, arg)
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No input files specified")
		printUsage()
		os.Exit(2)
	}

	validCount := 0
	errorOccurred := false

	for _, filename := range files {
		report, err := inspect(filename, format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: error: %v\n", filename, err)
			errorOccurred = true
			continue
		}

		if report.IsValid() {
			validCount++
		}

		if !quiet {
			printReport(report)
		} else {
			for _, p := range report.Problems {
				fmt.Fprintf(os.Stderr, "%s: %s\n", filename, p)
			}
		}
	}

	if len(files) > 1 && !quiet {
		fmt.Printf("\nSummary: %d of %d files valid\n", validCount, len(files))
	}

	if errorOccurred {
		os.Exit(2)
	}
	if validCount < len(files) {
		os.Exit(1)
	}
	os.Exit(0)
}

func printUsage() {
	fmt.Println(`Usage: ffinfo [options] <filename> [<filename> ...]

Decode FF files and report their header and plane statistics.

Options:
  -q, --quiet          Only output problems. Exit code indicates pass/fail.
  -f, --format <name>  Decoder: auto, legacy, extended, fits, skypatrol.
  -h, --help           Show this help message.
  --version            Show version information.

Exit codes:
  0: All files valid
  1: One or more files invalid
  2: Error (file not found, malformed header, etc.)

Examples:
  ffinfo FF451_20140819_003718_000_0397568.bin
  ffinfo -q *.bin *.fits
  ffinfo -f legacy capture.bin.gz`)
}

// inspect decodes filename. A header that cannot be decoded is an error;
// a record with a placeholder or broken invariants is reported as invalid.
func inspect(filename string, format ff.Format) (*Report, error) {
	rec, err := ff.DecodeFile(filename, format)
	if err != nil {
		return nil, err
	}
	r := &Report{Filename: filename, Record: rec}
	if n, err := ffmeta.ParseName(filename); err == nil {
		r.Name = n
	}

	if rec.Placeholder() {
		r.Problems = append(r.Problems, fmt.Sprintf("pixel planes not loaded: %v", rec.LoadErr))
		return r, nil
	}
	if err := rec.Validate(); err != nil {
		for _, e := range unjoin(err) {
			r.Problems = append(r.Problems, e.Error())
		}
	}
	r.Summary = ffmeta.Summarize(rec)
	return r, nil
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func printReport(r *Report) {
	if r.IsValid() {
		fmt.Printf("%s: OK\n", r.Filename)
	} else {
		fmt.Printf("%s: INVALID\n", r.Filename)
		for _, p := range r.Problems {
			fmt.Printf("  [ERROR] %s\n", p)
		}
	}

	rec := r.Record
	fmt.Printf("  revision:    %s\n", rec.Revision)
	fmt.Printf("  size:        %dx%d\n", rec.Cols, rec.Rows)
	fmt.Printf("  frames:      %d (first %d)\n", rec.FrameCount, rec.FirstFrame)
	fmt.Printf("  camera:      %d\n", rec.StationID)
	if rec.Revision != ff.RevisionLegacy && rec.Revision != ff.RevisionSkypatrol {
		fmt.Printf("  decimation:  %d\n", rec.Decimation)
		fmt.Printf("  interleave:  %d\n", rec.Interleave)
		fmt.Printf("  fps:         %.3f\n", rec.FPS)
	}
	if n := r.Name; n != nil {
		fmt.Printf("  name:        %s", n.Kind)
		if n.Station != "" {
			fmt.Printf(" station %s", n.Station)
		}
		if !n.Time.IsZero() {
			fmt.Printf(" at %s", n.Time.Format("2006-01-02 15:04:05.000"))
		}
		fmt.Printf(" counter %d\n", n.FrameCounter)
	}
	if r.Summary == nil {
		return
	}
	fmt.Printf("  brightness:  %.3f\n", rec.BrightnessRatio)
	fmt.Printf("  active:      %d pixels\n", r.Summary.Active)
	for _, p := range r.Summary.Planes() {
		fmt.Printf("  %-9s    mean %7.2f  std %7.2f  min %5.0f  max %5.0f\n",
			p.Name+":", p.Mean, p.StdDev, p.Min, p.Max)
	}
}
