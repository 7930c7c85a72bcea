package bmp

import (
	"bytes"
	"errors"
	"testing"
)

// 2x1 bitmap header as written by common tools, followed by nothing.
var sampleHeader = []byte{
	'B', 'M', // signature
	0x3c, 0x00, 0x00, 0x00, // file size 60
	0x00, 0x00, 0x00, 0x00, // reserved
	0x36, 0x00, 0x00, 0x00, // offset 54
	0x28, 0x00, 0x00, 0x00, // struct size 40
	0x02, 0x00, 0x00, 0x00, // width 2
	0xff, 0xff, 0xff, 0xff, // height -1 (top-down)
	0x01, 0x00, // planes
	0x18, 0x00, // bitcount 24
	0x00, 0x00, 0x00, 0x00, // compression
	0x06, 0x00, 0x00, 0x00, // image size 6
	0x13, 0x0b, 0x00, 0x00, // 2835 px/m
	0x13, 0x0b, 0x00, 0x00, // 2835 px/m
	0x00, 0x00, 0x00, 0x00, // colors used
	0x00, 0x00, 0x00, 0x00, // important colors
}

func TestFileHeaderBinary(t *testing.T) {
	var h BitmapFileHeader
	if err := h.UnmarshalBinary(sampleHeader); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}

	want := BitmapFileHeader{Type: Signature, Size: 60, OffBits: 54}
	if h != want {
		t.Errorf("UnmarshalBinary() = %+v, want %+v", h, want)
	}

	data, _ := h.MarshalBinary()
	if !bytes.Equal(data, sampleHeader[:FileHeaderSize]) {
		t.Errorf("MarshalBinary() = % x, want % x", data, sampleHeader[:FileHeaderSize])
	}
}

func TestInfoHeaderBinary(t *testing.T) {
	var h BitmapInfoHeader
	if err := h.UnmarshalBinary(sampleHeader[FileHeaderSize:]); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}

	want := BitmapInfoHeader{
		Size: 40, Width: 2, Height: -1, Planes: 1, BitCount: 24,
		SizeImage: 6, XPixelsPerM: 2835, YPixelsPerM: 2835,
	}
	if h != want {
		t.Errorf("UnmarshalBinary() = %+v, want %+v", h, want)
	}

	data, _ := h.MarshalBinary()
	if !bytes.Equal(data, sampleHeader[FileHeaderSize:]) {
		t.Errorf("MarshalBinary() = % x, want % x", data, sampleHeader[FileHeaderSize:])
	}
}

func TestHeaderUnmarshalShort(t *testing.T) {
	var fh BitmapFileHeader
	if err := fh.UnmarshalBinary(sampleHeader[:FileHeaderSize-1]); !errors.Is(err, ErrTruncatedHeader) {
		t.Errorf("file header error = %v, want ErrTruncatedHeader", err)
	}
	var ih BitmapInfoHeader
	if err := ih.UnmarshalBinary(sampleHeader[FileHeaderSize : HeaderSize-1]); !errors.Is(err, ErrTruncatedHeader) {
		t.Errorf("info header error = %v, want ErrTruncatedHeader", err)
	}
}
