// Package engine implements the FITS sub-region slicing engine: header
// parsing and rewriting, selector parsing (including world-coordinate
// conversion via the wcs collaborator), slice planning, and the
// vectored-I/O streaming writer.
//
// The engine is synchronous and single-threaded per call, holds no shared
// mutable state, and keeps every resource (memory map, zero page, header
// buffer, write queue) local to the call. The memory map is released on
// every exit path via defer — the Go expression of the scoped-acquisition
// discipline the original C implementation achieved with goto cleanup.
package engine

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/amaurea/fitsslice/pkg/slice"
)

// Engine performs FITS sub-region slicing calls. It holds only tunable
// configuration; it carries no state between calls.
type Engine struct {
	maxIovec int
	naxisMax int
}

// New returns an Engine configured from cfg. A nil cfg uses
// slice.DefaultConfig.
func New(cfg *slice.Config) *Engine {
	if cfg == nil {
		cfg = slice.DefaultConfig()
	}
	maxIovec := cfg.MaxIovec
	if maxIovec <= 0 {
		maxIovec = slice.DefaultMaxIovec
	}
	naxisMax := cfg.NaxisMax
	if naxisMax <= 0 {
		naxisMax = slice.DefaultNaxisMax
	}
	return &Engine{maxIovec: maxIovec, naxisMax: naxisMax}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Slice extracts the sub-region named by selector from input and writes a
// complete FITS primary HDU describing it to output. A nil output
// triggers dry-run mode: the selection is fully validated and the result
// Size is the byte count that would be written, but nothing is written
// and Code is slice.OFD.
//
// Slice returns a non-nil *slice.Result on every call, even on failure,
// so callers can inspect Code without type-asserting the error.
func (e *Engine) Slice(input, output *os.File, selector string) (*slice.Result, error) {
	fi, err := input.Stat()
	if err != nil {
		return &slice.Result{Code: slice.EMAP}, fmt.Errorf("%w: %v", slice.ErrMapFailed, err)
	}
	flen := fi.Size()
	if flen < HeaderBlockSize {
		return &slice.Result{Code: slice.EMAP}, fmt.Errorf("%w: input shorter than one header block", slice.ErrMapFailed)
	}

	data, err := unix.Mmap(int(input.Fd()), 0, int(flen), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return &slice.Result{Code: slice.EMAP}, fmt.Errorf("%w: %v", slice.ErrMapFailed, err)
	}
	defer func() { _ = unix.Munmap(data) }()

	header := make([]byte, HeaderBlockSize)
	copy(header, data[:HeaderBlockSize])

	hi, err := ParseHeader(header, e.naxisMax)
	if err != nil {
		return &slice.Result{Code: slice.EPARSE}, err
	}

	sel, err := ParseSelector(selector, hi, header)
	if err != nil {
		return &slice.Result{Code: slice.EPARSE}, err
	}

	plan, err := BuildPlan(header, hi, sel)
	if err != nil {
		return &slice.Result{Code: slice.EVALS}, err
	}

	if output == nil {
		return &slice.Result{Code: slice.OFD, Size: plan.OutSize}, nil
	}

	rowBytes := (sel.I2[0] - sel.I1[0]) * plan.PixelBytes
	if rowBytes < 0 {
		return &slice.Result{Code: slice.EALLOC}, fmt.Errorf("%w: negative zero-page size", slice.ErrAllocFailed)
	}
	zero := make([]byte, rowBytes)

	wq := NewWriteQueue(int(output.Fd()), e.maxIovec)
	if err := wq.Push(plan.OutHeader); err != nil {
		return &slice.Result{Code: slice.EIO}, err
	}

	if err := e.writeRows(wq, hi, sel, plan, data[HeaderBlockSize:], zero); err != nil {
		return &slice.Result{Code: slice.EIO}, err
	}
	if err := wq.Flush(); err != nil {
		return &slice.Result{Code: slice.EIO}, err
	}

	return &slice.Result{Code: slice.OK, Size: plan.OutSize}, nil
}

// writeRows walks the selected region in row-major output order, emitting
// each row as up to four segments into wq. The pre-axis loop is an
// explicit mixed-radix odometer over RANGE pre-axes; SINGLE pre-axes have
// length 1 and contribute to the linearized index but no iteration.
func (e *Engine) writeRows(wq *WriteQueue, hi *HeaderInfo, sel *Selection, plan *Plan, imgStart []byte, zero []byte) error {
	NX, NY := hi.Naxis[0], hi.Naxis[1]
	B := plan.PixelBytes
	wrapx := plan.Wrapx

	preAxes := sel.Naxes - 2
	preLens := make([]int64, preAxes)
	preInds := make([]int64, preAxes)
	for ax := 0; ax < preAxes; ax++ {
		if sel.Mode[ax+2] == Single {
			preLens[ax] = 1
		} else {
			preLens[ax] = sel.I2[ax+2] - sel.I1[ax+2]
		}
	}

	writeRow := func(ipre int64) error {
		for ly := sel.I1[1]; ly < sel.I2[1]; ly++ {
			// Latitude never wraps: under a cylindrical projection the
			// pole is a singularity, not a wrap seam, so an
			// out-of-range row is always a genuine edge, zero-filled
			// below, never a candidate for wraparound.
			y := ly
			if y < 0 || y >= NY {
				if err := wq.Push(zero); err != nil {
					return err
				}
				continue
			}
			rowAddr := (NY*ipre + y) * NX * B
			rdata := imgStart[rowAddr:]

			var nloop int64
			if wrapx > 0 {
				nloop = floorDiv(sel.I2[0], wrapx)
			}
			x := sel.I1[0] - nloop*wrapx
			x2 := sel.I2[0] - nloop*wrapx

			if x < 0 && wrapx > 0 && x < NX-wrapx {
				n := NX - wrapx - x
				if err := wq.Push(rdata[(NX-n)*B : (NX-n+n)*B]); err != nil {
					return err
				}
				x += n
			}
			if x < 0 {
				n := -x
				if err := wq.Push(zero[:n*B]); err != nil {
					return err
				}
				x += n
			}
			if x < NX {
				n := minI64(x2, NX) - x
				if err := wq.Push(rdata[x*B : x*B+n*B]); err != nil {
					return err
				}
				x += n
			}
			if x < x2 {
				n := x2 - x
				if err := wq.Push(zero[:n*B]); err != nil {
					return err
				}
				x += n
			}
		}
		return nil
	}

	for {
		ipre := int64(0)
		for ax := preAxes - 1; ax >= 0; ax-- {
			ipre = ipre*hi.Naxis[ax+2] + sel.I1[ax+2] + preInds[ax]
		}
		if err := writeRow(ipre); err != nil {
			return err
		}

		ax := 0
		for ; ax < preAxes; ax++ {
			preInds[ax]++
			if preInds[ax] < preLens[ax] {
				break
			}
			preInds[ax] = 0
		}
		if ax >= preAxes {
			break
		}
	}
	return nil
}
