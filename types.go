package fitsslice

// This file re-exports result types for public API.

import "github.com/amaurea/fitsslice/pkg/slice"

// Code is the tagged result of a single slicing call.
type Code = slice.Code

// Result is the outcome of a single Slice call.
type Result = slice.Result

const (
	OK      = slice.OK
	EMAP    = slice.EMAP
	EPARSE  = slice.EPARSE
	EVALS   = slice.EVALS
	EALLOC  = slice.EALLOC
	EIO     = slice.EIO
	OFD     = slice.OFD
	UNKNOWN = slice.UNKNOWN
)
