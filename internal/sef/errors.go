package sef

import (
	"errors"
	"fmt"
)

var (
	// ErrTooSmall means the buffer cannot hold the fixed header.
	ErrTooSmall = errors.New("file too small")
	// ErrBadMagic means the first two bytes are not the SEF magic.
	ErrBadMagic = errors.New("invalid magic number")
	// ErrPayloadNotFound means no zlib stream signature was found.
	ErrPayloadNotFound = errors.New("zlib payload not found")
	// ErrDecompression is matched by every *DecompressionError.
	ErrDecompression = errors.New("zlib decompression failed")
)

// DecompressionError wraps the inflater's failure.
type DecompressionError struct {
	Offset int
	Err    error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("zlib decompression failed at offset %d: %v", e.Offset, e.Err)
}

func (e *DecompressionError) Unwrap() []error {
	return []error{ErrDecompression, e.Err}
}
