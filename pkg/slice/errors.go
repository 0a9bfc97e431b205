// Package slice defines the public result, error, and configuration types
// shared between the slicing engine and its callers.
package slice

import "errors"

var (
	// ErrMapFailed indicates the input file could not be memory-mapped.
	ErrMapFailed = errors.New("input memory map failed")

	// ErrHeaderParse indicates the FITS primary header is malformed or
	// missing a required keyword.
	ErrHeaderParse = errors.New("fits header malformed")

	// ErrSelectorInvalid indicates the selector expression is malformed or
	// resolves to an out-of-bounds selection.
	ErrSelectorInvalid = errors.New("selector malformed or out of bounds")

	// ErrAllocFailed indicates the zero page used for out-of-bounds padding
	// could not be allocated.
	ErrAllocFailed = errors.New("zero page allocation failed")

	// ErrWrite indicates a vectored write to the output descriptor failed.
	ErrWrite = errors.New("output write failed")
)
