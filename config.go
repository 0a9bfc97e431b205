package fitsslice

import "github.com/amaurea/fitsslice/pkg/slice"

// Config holds tunables for an Engine.
type Config = slice.Config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return slice.DefaultConfig()
}
