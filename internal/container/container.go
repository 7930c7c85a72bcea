// Package container frames bitmap files on disk. A bitmap may be stored raw or
// wrapped in a zstd or xz stream; readers detect the wrapping from the magic
// bytes and writers choose it from the file extension.
package container

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Kind identifies the framing around a bitmap payload.
type Kind int

const (
	Raw Kind = iota
	Zstd
	XZ
)

// ErrCorrupt marks a compressed stream that cannot be decoded.
var ErrCorrupt = errors.New("corrupt compressed stream")

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

func (k Kind) String() string {
	switch k {
	case Zstd:
		return "zstd"
	case XZ:
		return "xz"
	default:
		return "raw"
	}
}

// Detect reports the framing of a stream starting with prefix.
func Detect(prefix []byte) Kind {
	switch {
	case bytes.HasPrefix(prefix, zstdMagic):
		return Zstd
	case bytes.HasPrefix(prefix, xzMagic):
		return XZ
	default:
		return Raw
	}
}

// KindFor picks the framing for an output path from its extension.
func KindFor(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return Zstd
	case ".xz":
		return XZ
	default:
		return Raw
	}
}

// Reader yields the decoded bitmap bytes of an opened file.
type Reader struct {
	io.Reader
	Kind Kind
	// Size is the payload length when known (raw files), otherwise -1.
	Size int64

	file    *os.File
	closeFn func()
}

// Open opens path and unwraps any compression around the payload.
// The returned error is the one from os.Open when the file cannot be opened.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f

	if r.Kind == Raw {
		if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
			r.Size = info.Size()
		}
	}
	return r, nil
}

// NewReader sniffs src and returns a reader over its decoded payload.
// Closing the returned Reader does not close src.
func NewReader(src io.Reader) (*Reader, error) {
	br := bufio.NewReader(src)
	prefix, err := br.Peek(len(xzMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	r := &Reader{Kind: Detect(prefix), Size: -1}
	switch r.Kind {
	case Zstd:
		dec, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		r.Reader = decodeReader{dec, "zstd"}
		r.closeFn = dec.Close
	case XZ:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: xz: %w", ErrCorrupt, err)
		}
		r.Reader = decodeReader{xr, "xz"}
	default:
		r.Reader = br
	}
	return r, nil
}

// Close releases the decoder and the underlying file, if any.
func (r *Reader) Close() error {
	if r.closeFn != nil {
		r.closeFn()
		r.closeFn = nil
	}
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// decodeReader marks decoder failures with ErrCorrupt. io.EOF and
// io.ErrUnexpectedEOF pass through unwrapped.
type decodeReader struct {
	r    io.Reader
	name string
}

func (d decodeReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		err = fmt.Errorf("%w: %s: %w", ErrCorrupt, d.name, err)
	}
	return n, err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps dst in the compressor for kind. Close flushes the
// compressor; it never closes dst.
func NewWriter(dst io.Writer, kind Kind) (io.WriteCloser, error) {
	switch kind {
	case Zstd:
		enc, err := zstd.NewWriter(dst,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return enc, nil
	case XZ:
		xw, err := xz.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return xw, nil
	default:
		return nopWriteCloser{dst}, nil
	}
}
