// Package fitsslice extracts a rectangular sub-region from a FITS primary
// HDU and writes it out as a new, independently valid FITS stream.
//
// # Basic Usage
//
//	in, err := os.Open("input.fits")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer in.Close()
//
//	out, err := os.Create("output.fits")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer out.Close()
//
//	eng := fitsslice.NewEngine(nil)
//	result, err := eng.Slice(in, out, "pbox=1:2,1:3")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("wrote %d bytes, code=%s\n", result.Size, result.Code)
//
// # Selector Grammar
//
// Selectors take one of two forms: pbox=... for pixel ranges, or box=...
// for world-coordinate ranges converted through the image's WCS solution.
// Segments are given in FITS axis order (slowest-varying first):
//
//	pbox=1,0:3,0:4     // axis 2 fixed to index 1, rows 0:3, columns 0:4
//	box=-10:10,30:40   // dec range, then ra range, converted to pixels
//
// # Dry Run
//
// Passing a nil output runs full validation and returns the output size
// that would be written, without writing anything:
//
//	result, err := eng.Slice(in, nil, "pbox=0:100,0:100")
//	// result.Code == fitsslice.OFD, result.Size is the byte count
package fitsslice

import (
	"os"

	"github.com/amaurea/fitsslice/internal/engine"
)

// Engine performs FITS sub-region slicing calls against a fixed
// configuration. It holds no per-call state and is safe to reuse across
// concurrent calls on distinct file descriptors.
type Engine struct {
	config *Config
	impl   *engine.Engine
}

// NewEngine creates an Engine with the given configuration. A nil config
// uses DefaultConfig.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxIovec == 0 {
		config.MaxIovec = DefaultConfig().MaxIovec
	}
	if config.NaxisMax == 0 {
		config.NaxisMax = DefaultConfig().NaxisMax
	}
	return &Engine{
		config: config,
		impl:   engine.New(config),
	}
}

// Slice extracts the sub-region named by selector from input and writes
// the resulting FITS primary HDU to output. See the package doc comment
// for the selector grammar and dry-run mode.
func (e *Engine) Slice(input, output *os.File, selector string) (*Result, error) {
	return e.impl.Slice(input, output, selector)
}
