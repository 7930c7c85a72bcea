// bmp package implements a reader and writer for 24 bit uncompressed bitmaps.
// Everything outside the pixel data is carried through unchanged, so a
// bitmap that is read and saved again is byte-for-byte identical.
package bmp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/anas-shakeel/go-chromakey/internal/container"
)

// Extra bytes and pixel data are read in pieces of this size so that a
// corrupt header cannot force a huge allocation up front.
const readChunk = 1 << 20

type Pixel struct {
	B, G, R byte
}

func (p Pixel) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.B, p.G, p.R)
}

// PixelBuffer is the raw pixel data of a bitmap: consecutive BGR triples in
// the order they appear in the file.
type PixelBuffer []byte

// Number of whole pixels held by the buffer
func (pb PixelBuffer) Len() int {
	return len(pb) / BytesPerPixel
}

// At returns the pixel at index i.
func (pb PixelBuffer) At(i int) (Pixel, error) {
	if i < 0 || i >= pb.Len() {
		return Pixel{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfBounds, i, pb.Len())
	}
	o := i * BytesPerPixel
	return Pixel{B: pb[o], G: pb[o+1], R: pb[o+2]}, nil
}

// Set overwrites all three channels of the pixel at index i.
func (pb PixelBuffer) Set(i int, p Pixel) error {
	if i < 0 || i >= pb.Len() {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfBounds, i, pb.Len())
	}
	o := i * BytesPerPixel
	pb[o], pb[o+1], pb[o+2] = p.B, p.G, p.R
	return nil
}

type BitmapImage struct {
	Filename string
	BFHeader *BitmapFileHeader
	BIHeader *BitmapInfoHeader
	Extra    []byte // Palette and/or padding between the headers and the pixels
	Pixels   PixelBuffer
}

// Creates and returns a bitmap image (24 bit uncompressed)
func NewBitmap(width, height int) (*BitmapImage, error) {
	if width < 0 {
		return nil, errors.New("width must not be negative")
	} else if height < 0 {
		return nil, errors.New("height must not be negative")
	} else if width > math.MaxInt32 || height > math.MaxInt32 {
		return nil, fmt.Errorf("%dx%d does not fit the 32 bit header fields", width, height)
	}

	// Pixel data and file size are 32 bit fields
	if height > 0 && uint64(width) > (math.MaxUint32-HeaderSize)/BytesPerPixel/uint64(height) {
		return nil, fmt.Errorf("%dx%d needs more than %d bytes of pixel data", width, height, uint64(math.MaxUint32-HeaderSize))
	}

	sizeImage := uint32(width * height * BytesPerPixel) // Rows are not padded
	fileSize := HeaderSize + sizeImage                  // Size of the whole bitmap file

	// NewBitmap Headers
	bfh := BitmapFileHeader{Type: Signature, OffBits: HeaderSize, Size: fileSize}
	bih := BitmapInfoHeader{Size: InfoHeaderSize, Width: int32(width), Height: int32(height), Planes: 1, BitCount: 24, SizeImage: sizeImage}

	return &BitmapImage{
		BFHeader: &bfh,
		BIHeader: &bih,
		Extra:    []byte{},
		Pixels:   make(PixelBuffer, sizeImage),
	}, nil
}

// Width of the image in pixels
func (b *BitmapImage) Width() int {
	return int(b.BIHeader.Width)
}

// Height of the image in pixels. Top-down bitmaps declare a negative height;
// the header keeps the sign, this returns the absolute value.
func (b *BitmapImage) Height() int {
	h := int(b.BIHeader.Height)
	if h < 0 {
		h = -h
	}
	return h
}

// PixelCount is the number of pixels the headers declare (width * height).
func (b *BitmapImage) PixelCount() int {
	if b.Width() <= 0 {
		return 0
	}
	return b.Width() * b.Height()
}

// Reads a Bitmap file. The file may be plain or zstd/xz compressed.
func ReadBitmap(filename string) (*BitmapImage, error) {
	// Open the file
	file, err := container.Open(filename)
	if err != nil {
		if errors.Is(err, container.ErrCorrupt) {
			return nil, &LoadError{Path: filename, Err: fmt.Errorf("%w: %w", ErrCorruptStream, err)}
		}
		return nil, &LoadError{Path: filename, Err: fmt.Errorf("%w: %w", ErrFileNotFound, err)}
	}
	defer file.Close()

	bitmap, err := decode(file, file.Size)
	if err != nil {
		if errors.Is(err, container.ErrCorrupt) {
			err = fmt.Errorf("%w: %w", ErrCorruptStream, err)
		}
		return nil, &LoadError{Path: filename, Err: err}
	}
	bitmap.Filename = filename
	return bitmap, nil
}

// Decode reads a bitmap from r.
func Decode(r io.Reader) (*BitmapImage, error) {
	return decode(r, -1)
}

// decode reads a bitmap from r. size is the total length of the source when
// known, or -1; it lets header-declared lengths be rejected before reading.
func decode(r io.Reader, size int64) (*BitmapImage, error) {
	// Read File Header
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf[:FileHeaderSize]); err != nil {
		return nil, headerErr(err)
	}
	var bfHeader BitmapFileHeader
	if err := bfHeader.UnmarshalBinary(buf[:FileHeaderSize]); err != nil {
		return nil, err
	}
	if bfHeader.Type != Signature {
		return nil, ErrNotBitmap
	}

	// Read Info Header
	if _, err := io.ReadFull(r, buf[FileHeaderSize:]); err != nil {
		return nil, headerErr(err)
	}
	var biHeader BitmapInfoHeader
	if err := biHeader.UnmarshalBinary(buf[FileHeaderSize:]); err != nil {
		return nil, err
	}

	// Support only 24bit uncompressed Bitmaps
	if biHeader.BitCount != 24 || biHeader.Compression != 0 {
		return nil, fmt.Errorf("%w (bitcount %d, compression %d)", ErrUnsupportedFormat, biHeader.BitCount, biHeader.Compression)
	}

	extraLen := int64(bfHeader.OffBits) - HeaderSize
	if extraLen < 0 {
		return nil, fmt.Errorf("%w: offset %d is inside the %d header bytes", ErrInvalidOffset, bfHeader.OffBits, HeaderSize)
	}
	pixelLen := int64(biHeader.SizeImage)

	// Check the declared sizes against the file before reading anything
	if size >= 0 {
		remaining := size - HeaderSize
		if extraLen > remaining {
			return nil, fmt.Errorf("%w: want %d bytes, file has %d", ErrTruncatedExtra, extraLen, remaining)
		}
		if pixelLen > remaining-extraLen {
			return nil, fmt.Errorf("%w: want %d bytes, file has %d", ErrTruncatedPixelData, pixelLen, remaining-extraLen)
		}
	}

	extra, err := readBlock(r, extraLen, ErrTruncatedExtra)
	if err != nil {
		return nil, err
	}
	pixels, err := readBlock(r, pixelLen, ErrTruncatedPixelData)
	if err != nil {
		return nil, err
	}

	// Return the (pointer to) Bitmap Image
	return &BitmapImage{
		BFHeader: &bfHeader,
		BIHeader: &biHeader,
		Extra:    extra,
		Pixels:   PixelBuffer(pixels),
	}, nil
}

func headerErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncatedHeader
	}
	return err
}

// readBlock reads exactly n bytes from r, failing with truncated when r ends early.
func readBlock(r io.Reader, n int64, truncated error) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(min(n, readChunk)))
	got, err := io.CopyN(&buf, r, n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: want %d bytes, got %d", truncated, n, got)
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the headers, extra bytes and pixel data to w, in that order.
// Header fields are written as they are; nothing is recomputed.
func (b *BitmapImage) Encode(w io.Writer) error {
	fh, err := b.BFHeader.MarshalBinary()
	if err != nil {
		return err
	}
	ih, err := b.BIHeader.MarshalBinary()
	if err != nil {
		return err
	}

	for _, part := range [][]byte{fh, ih, b.Extra, b.Pixels} {
		n, err := w.Write(part)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWriteTruncated, err)
		}
		if n < len(part) {
			return fmt.Errorf("%w: wrote %d of %d bytes", ErrWriteTruncated, n, len(part))
		}
	}
	return nil
}

// Saves the bitmap image onto local disk. The file is compressed when the
// name ends in .zst or .xz. Nothing is left at filename if saving fails.
func (b *BitmapImage) Save(filename string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(filename), ".bitmap-*")
	if err != nil {
		return &StoreError{Path: filename, Err: fmt.Errorf("%w: %v", ErrFileCreate, err)}
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			err = &StoreError{Path: filename, Err: err}
		}
	}()

	cw, err := container.NewWriter(tmp, container.KindFor(filename))
	if err != nil {
		return err
	}

	// Create a buffer (to reduce syscalls)
	w := bufio.NewWriter(cw)
	if err = b.Encode(w); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTruncated, err)
	}
	if err = cw.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTruncated, err)
	}
	// Keep the permissions of a file being replaced
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(filename); statErr == nil && info.Mode().IsRegular() {
		mode = info.Mode().Perm()
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("%w: %w", ErrFileCreate, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTruncated, err)
	}
	if err = os.Rename(tmpPath, filename); err != nil {
		return fmt.Errorf("%w: %w", ErrFileCreate, err)
	}
	return nil
}
