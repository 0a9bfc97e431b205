package fitsslice

// This file re-exports the sentinel errors for public API.

import "github.com/amaurea/fitsslice/pkg/slice"

var (
	// ErrMapFailed indicates the input file could not be memory-mapped.
	ErrMapFailed = slice.ErrMapFailed

	// ErrHeaderParse indicates the FITS primary header is malformed or
	// missing a required keyword.
	ErrHeaderParse = slice.ErrHeaderParse

	// ErrSelectorInvalid indicates the selector expression is malformed or
	// resolves to an out-of-bounds selection.
	ErrSelectorInvalid = slice.ErrSelectorInvalid

	// ErrAllocFailed indicates the zero page used for out-of-bounds
	// padding could not be allocated.
	ErrAllocFailed = slice.ErrAllocFailed

	// ErrWrite indicates a vectored write to the output descriptor failed.
	ErrWrite = slice.ErrWrite
)
