package bmp

import (
	"errors"
	"fmt"
)

// Failure categories for loading, storing and compositing bitmaps.
// Match them with errors.Is.
var (
	ErrFileNotFound       = errors.New("file not found")
	ErrTruncatedHeader    = errors.New("truncated header")
	ErrCorruptStream      = errors.New("corrupt compressed stream")
	ErrInvalidOffset      = errors.New("invalid pixel data offset")
	ErrTruncatedExtra     = errors.New("truncated extra bytes")
	ErrTruncatedPixelData = errors.New("truncated pixel data")
	ErrNotBitmap          = errors.New("invalid file: provided file is not a bitmap")
	ErrUnsupportedFormat  = errors.New("unsupported BMP format: only 24-bit uncompressed is supported")
	ErrFileCreate         = errors.New("cannot create file")
	ErrWriteTruncated     = errors.New("write truncated")
	ErrIndexOutOfBounds   = errors.New("pixel index out of bounds")
	ErrSizeMismatch       = errors.New("pixel count mismatch")
)

// LoadError reports a failure while reading the bitmap at Path.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// StoreError reports a failure while writing the bitmap to Path.
type StoreError struct {
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
