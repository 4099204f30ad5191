package simal

import "errors"

// Common errors used throughout the simal package
var (
	// ErrConfigValidation is returned when configuration validation fails.
	ErrConfigValidation = errors.New("configuration validation failed")
	// ErrUnsupportedInput indicates the input file extension is not a known SIML source form.
	ErrUnsupportedInput = errors.New("unsupported input file type")
	// ErrEmptySource indicates the source text contained no SIML content.
	ErrEmptySource = errors.New("empty SIML source")
)
