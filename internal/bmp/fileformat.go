// BMP-specific structs and types
package bmp

import (
	"encoding/binary"
	"fmt"
)

const (
	FileHeaderSize = 14 // Size of BitmapFileHeader on disk
	InfoHeaderSize = 40 // Size of BitmapInfoHeader on disk
	HeaderSize     = FileHeaderSize + InfoHeaderSize

	BytesPerPixel = 3 // 24 bit BGR
)

// Signature is the file type marker of every bitmap ("BM").
var Signature = [2]byte{'B', 'M'}

// The BitmapFileHeader structure contains information about the type, size,
// and layout of a file that contains a DIB [device-independent bitmap].
// https://learn.microsoft.com/en-us/windows/win32/api/wingdi/ns-wingdi-bitmapfileheader

type BitmapFileHeader struct {
	Type      [2]byte // The file type: must be 0x4d42 (ASCII string "BM").
	Size      uint32  // The size, in bytes, of the bitmap file.
	Reserved1 uint16  // Reserved; must be zero.
	Reserved2 uint16  // Reserved; must be zero.
	OffBits   uint32  // Bitmap File Offset (In bytes) to Pixel Arrays
}

// MarshalBinary encodes the header as the 14 bytes found at the start of a file.
func (h *BitmapFileHeader) MarshalBinary() ([]byte, error) {
	buf := make([]byte, FileHeaderSize)
	copy(buf[0:2], h.Type[:])
	binary.LittleEndian.PutUint32(buf[2:6], h.Size)
	binary.LittleEndian.PutUint16(buf[6:8], h.Reserved1)
	binary.LittleEndian.PutUint16(buf[8:10], h.Reserved2)
	binary.LittleEndian.PutUint32(buf[10:14], h.OffBits)
	return buf, nil
}

// UnmarshalBinary decodes the header from the first 14 bytes of data.
func (h *BitmapFileHeader) UnmarshalBinary(data []byte) error {
	if len(data) < FileHeaderSize {
		return fmt.Errorf("%w: file header needs %d bytes, got %d", ErrTruncatedHeader, FileHeaderSize, len(data))
	}
	copy(h.Type[:], data[0:2])
	h.Size = binary.LittleEndian.Uint32(data[2:6])
	h.Reserved1 = binary.LittleEndian.Uint16(data[6:8])
	h.Reserved2 = binary.LittleEndian.Uint16(data[8:10])
	h.OffBits = binary.LittleEndian.Uint32(data[10:14])
	return nil
}

// The BitmapInfoHeader structure contains information about the
// dimensions and color format of DIB [device-independent bitmap].

type BitmapInfoHeader struct {
	Size            uint32 // The number of bytes required by the structure.
	Width           int32  // The width of the bitmap, in pixels.
	Height          int32  // The height of the bitmap, in pixels
	Planes          uint16 // The number of planes for the target device.
	BitCount        uint16 // The number of bits-per-pixel.
	Compression     uint32 // The type of compression
	SizeImage       uint32 // The size of the image (in bytes).
	XPixelsPerM     int32  // The horizontal resolution, in pixels-per-meter.
	YPixelsPerM     int32  // The vertical resolution, in pixels-per-meter.
	ColorsUsed      uint32 // Number of color indexes that are actually used by bitmap.
	ColorsImportant uint32 // Number of color indexes required for displaying the bitmap.
}

// MarshalBinary encodes the header as the 40 bytes following the file header.
func (h *BitmapInfoHeader) MarshalBinary() ([]byte, error) {
	buf := make([]byte, InfoHeaderSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], h.Size)
	le.PutUint32(buf[4:8], uint32(h.Width))
	le.PutUint32(buf[8:12], uint32(h.Height))
	le.PutUint16(buf[12:14], h.Planes)
	le.PutUint16(buf[14:16], h.BitCount)
	le.PutUint32(buf[16:20], h.Compression)
	le.PutUint32(buf[20:24], h.SizeImage)
	le.PutUint32(buf[24:28], uint32(h.XPixelsPerM))
	le.PutUint32(buf[28:32], uint32(h.YPixelsPerM))
	le.PutUint32(buf[32:36], h.ColorsUsed)
	le.PutUint32(buf[36:40], h.ColorsImportant)
	return buf, nil
}

// UnmarshalBinary decodes the header from the first 40 bytes of data.
func (h *BitmapInfoHeader) UnmarshalBinary(data []byte) error {
	if len(data) < InfoHeaderSize {
		return fmt.Errorf("%w: info header needs %d bytes, got %d", ErrTruncatedHeader, InfoHeaderSize, len(data))
	}
	le := binary.LittleEndian
	h.Size = le.Uint32(data[0:4])
	h.Width = int32(le.Uint32(data[4:8]))
	h.Height = int32(le.Uint32(data[8:12]))
	h.Planes = le.Uint16(data[12:14])
	h.BitCount = le.Uint16(data[14:16])
	h.Compression = le.Uint32(data[16:20])
	h.SizeImage = le.Uint32(data[20:24])
	h.XPixelsPerM = int32(le.Uint32(data[24:28]))
	h.YPixelsPerM = int32(le.Uint32(data[28:32]))
	h.ColorsUsed = le.Uint32(data[32:36])
	h.ColorsImportant = le.Uint32(data[36:40])
	return nil
}
