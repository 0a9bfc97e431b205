// Package main provides a command-line driver for FITS sub-region
// slicing, the Go counterpart of the original subfits command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/amaurea/fitsslice/pkg/slice"

	"github.com/amaurea/fitsslice"
)

const version = "0.1.0"

func main() {
	dryRun := pflag.BoolP("dry-run", "n", false, "validate the selector and report the output size without writing")
	showVersion := pflag.Bool("version", false, "show version")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] input.fits selector output.fits\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "  selector: pbox=...,y1:y2,x1:x2  or  box=...,dec1:dec2,ra1:ra2")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *showVersion {
		fmt.Printf("fitsslice version %s\n", version)
		return
	}

	args := pflag.Args()
	if (len(args) != 3 && !*dryRun) || (*dryRun && len(args) != 2) {
		pflag.Usage()
		os.Exit(1)
	}

	inputPath, selector := args[0], args[1]

	in, err := os.Open(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening input: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = in.Close() }()

	eng := fitsslice.NewEngine(nil)

	if *dryRun {
		result, err := eng.Slice(in, nil, selector)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v (code %s)\n", err, result.Code)
			os.Exit(exitCodeFor(result.Code))
		}
		fmt.Printf("%d\n", result.Size)
		return
	}

	outputPath := args[2]
	out, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening output: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = out.Close() }()

	result, err := eng.Slice(in, out, selector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v (code %s)\n", err, result.Code)
		os.Exit(exitCodeFor(result.Code))
	}
}

// exitCodeFor maps an engine result code to a process exit status.
func exitCodeFor(code slice.Code) int {
	if code == slice.OK {
		return 0
	}
	return int(code)
}
