package tga

import (
	"encoding/binary"
	"errors"
)

var (
	errShortHeader = errors.New("tga: header is shorter than 18 bytes")
	errMappedDepth = errors.New("tga: color mapped image must use 8-bit indices")
	errBadDepth    = errors.New("tga: unsupported pixel depth")
)

// PutUint16 stores v in b[0:2] in little-endian order.
func PutUint16(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b, v)
}

// Uint16 returns the little-endian value stored in b[0:2].
func Uint16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// Header is the fixed TGA image header.
type Header struct {
	IDLength uint8
	MapType  uint8
	Type     ImageType
	MapFirst uint16
	MapLen   uint16
	MapEntry uint8
	X        uint16
	Y        uint16
	Width    uint16
	Height   uint16
	Depth    uint8

	// Alpha holds the attribute bits per pixel, only the lower four bits
	// are stored.
	Alpha uint8

	// Horizontal is set when pixels are stored right-to-left.
	Horizontal bool
	// Vertical is set when scanlines are stored top-to-bottom.
	Vertical bool
}

// IsMapped reports whether the image carries a color map.
func (h *Header) IsMapped() bool {
	return h.MapType == 1
}

// ColorMapSize returns the size in bytes of the color map as stored.
func (h *Header) ColorMapSize() int64 {
	return int64(h.MapLen) * int64(h.MapEntry) / 8
}

// ColorMapOffset returns the file offset of the color map.
func (h *Header) ColorMapOffset() int64 {
	return HeaderSize + int64(h.IDLength)
}

// DataOffset returns the file offset of the pixel data.
func (h *Header) DataOffset() int64 {
	return h.ColorMapOffset() + h.ColorMapSize()
}

// BytesPerPixel returns the number of bytes each stored pixel occupies.
func (h *Header) BytesPerPixel() int {
	return (int(h.Depth) + 7) / 8
}

// ScanlineSize returns the size in bytes of one uncompressed scanline.
func (h *Header) ScanlineSize() int {
	return int(h.Width) * h.BytesPerPixel()
}

// DataSize returns the size in bytes of the uncompressed pixel data.
func (h *Header) DataSize() int {
	return h.ScanlineSize() * int(h.Height)
}

func validDepth(d uint8) bool {
	switch d {
	case 8, 15, 16, 24, 32:
		return true
	}
	return false
}

// Validate checks the bit depth and color map consistency rules.
func (h *Header) Validate() error {
	if h.MapType != 0 && h.Depth != 8 {
		return errMappedDepth
	}
	if h.Depth != 0 && !validDepth(h.Depth) {
		return errBadDepth
	}
	return nil
}

// MarshalBinary encodes the header into its 18 byte form. The color map
// fields are zeroed when the header has no color map.
func (h *Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)

	b[0] = h.IDLength
	b[2] = byte(h.Type)

	if h.MapType != 0 {
		b[1] = 1
		PutUint16(b[3:], h.MapFirst)
		PutUint16(b[5:], h.MapLen)
		b[7] = h.MapEntry
	}

	PutUint16(b[8:], h.X)
	PutUint16(b[10:], h.Y)
	PutUint16(b[12:], h.Width)
	PutUint16(b[14:], h.Height)
	b[16] = h.Depth

	b[17] = h.Alpha & alphaMask
	if h.Horizontal {
		b[17] |= horizontalFlag
	}
	if h.Vertical {
		b[17] |= verticalFlag
	}

	return b, nil
}

// UnmarshalBinary decodes the header from the first 18 bytes of b. It does
// not validate the result.
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return errShortHeader
	}

	*h = Header{
		IDLength:   b[0],
		MapType:    b[1],
		Type:       ImageType(b[2]),
		MapFirst:   Uint16(b[3:]),
		MapLen:     Uint16(b[5:]),
		MapEntry:   b[7],
		X:          Uint16(b[8:]),
		Y:          Uint16(b[10:]),
		Width:      Uint16(b[12:]),
		Height:     Uint16(b[14:]),
		Depth:      b[16],
		Alpha:      b[17] & alphaMask,
		Horizontal: b[17]&horizontalFlag != 0,
		Vertical:   b[17]&verticalFlag != 0,
	}

	return nil
}
