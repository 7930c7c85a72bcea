// Package report prints human-readable information about bitmaps.
package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/zeebo/blake3"

	"github.com/anas-shakeel/go-chromakey/internal/bmp"
	"github.com/anas-shakeel/go-chromakey/internal/utils"
)

// Largest image (in pixels per side) Preview will draw
const MaxPreviewSide = 64

type Summary struct {
	Name      string
	BitCount  uint16
	ImageSize uint32 // Pixel data size in bytes
	Width     int32
	Height    int32
	Offset    uint32
}

// Summarize collects the metadata of a loaded bitmap.
func Summarize(b *bmp.BitmapImage) Summary {
	return Summary{
		Name:      b.Filename,
		BitCount:  b.BIHeader.BitCount,
		ImageSize: b.BIHeader.SizeImage,
		Width:     b.BIHeader.Width,
		Height:    b.BIHeader.Height,
		Offset:    b.BFHeader.OffBits,
	}
}

// Print the summary in human-readable format
func Print(w io.Writer, s Summary) error {
	_, err := fmt.Fprintf(w,
		"--------------\nBITMAP INFO\n--------------\n"+
			"Name:\t\t%s\n"+
			"BitCount:\t%d\n"+
			"Image Size:\t%s\n"+
			"Image Width:\t%d\n"+
			"Image Height:\t%d\n"+
			"Image offset:\t%d\n"+
			"--------------\n",
		s.Name, s.BitCount, humanize.Bytes(uint64(s.ImageSize)), s.Width, s.Height, s.Offset)
	return err
}

// Digest returns the hex BLAKE3-256 hash of the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Print the bitmap in terminal, top row first. Images wider or taller than
// MaxPreviewSide are refused.
func Preview(w io.Writer, b *bmp.BitmapImage) error {
	width, height := b.Width(), b.Height()
	if width > MaxPreviewSide || height > MaxPreviewSide {
		return fmt.Errorf("image is %dx%d, preview supports up to %dx%d", width, height, MaxPreviewSide, MaxPreviewSide)
	}

	topDown := b.BIHeader.Height < 0 // Pixels are stored TopDown?
	for i := 0; i < height; i++ {
		row := height - i - 1
		if topDown {
			row = i
		}

		for col := 0; col < width; col++ {
			pixel, err := b.Pixels.At(row*width + col)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprint(w, utils.ColoredBlock("  ", int(pixel.R), int(pixel.G), int(pixel.B))); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
