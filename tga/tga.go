/*
Package tga implements a Truevision TGA image reader and writer.

A TGA file is an 18 byte header, an optional image identifier of up to 255
bytes, an optional color map and finally the pixel data which is either
stored as is or run-length encoded one scanline at a time. All 16-bit header
fields are little-endian and truecolor pixels are stored in BGR(A) order.

Images are accessed through a TGA handle bound to a seekable backing store.
Individual sections can be read and written with the ReadHeader, ReadImageID,
ReadColorMap and ReadScanlines family of methods, or a whole image can be
transferred with ReadImage and WriteImage which are driven by a Flag set.
*/
package tga

import "strings"

// HeaderSize is the size in bytes of the fixed TGA header.
const HeaderSize = 18

// Descriptor byte masks
const (
	alphaMask      = 0x0f
	horizontalFlag = 0x10
	verticalFlag   = 0x20
)

// Flag selects image sections and pixel transformations for ReadImage and
// WriteImage. After a transfer the section bits reflect what actually
// succeeded.
type Flag uint32

// Section, encoding and byte order flags.
const (
	ImageID   Flag = 0x01
	ImageInfo Flag = 0x02
	ImageData Flag = 0x04
	ColorMap  Flag = 0x08
	RLEEncode Flag = 0x10
	RGB       Flag = 0x20
	BGR       Flag = 0x40
)

var flagNames = []struct {
	f    Flag
	name string
}{
	{ImageID, "id"},
	{ImageInfo, "info"},
	{ImageData, "data"},
	{ColorMap, "cmap"},
	{RLEEncode, "rle"},
	{RGB, "rgb"},
	{BGR, "bgr"},
}

func (f Flag) String() string {
	var s []string
	for _, n := range flagNames {
		if f&n.f != 0 {
			s = append(s, n.name)
		}
	}
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, "|")
}

// swap reports whether pixels need their red and blue channels exchanged,
// which is the case when the caller works in RGB rather than the native BGR
// order.
func (f Flag) swap() bool {
	return f&RGB != 0 && f&BGR == 0
}

// ImageType is the image type code stored in byte 2 of the header.
type ImageType uint8

// Image types defined by the format.
const (
	NoData          ImageType = 0
	MappedType      ImageType = 1
	TrueColor       ImageType = 2
	Grayscale       ImageType = 3
	RLEMapped       ImageType = 9
	RLETrueColor    ImageType = 10
	RLEGrayscale    ImageType = 11
	encodedTypeBias           = 8
)

var typeNames = map[ImageType]string{
	NoData:       "no image data included",
	MappedType:   "uncompressed color mapped",
	TrueColor:    "uncompressed truecolor",
	Grayscale:    "uncompressed grayscale",
	RLEMapped:    "compressed color mapped",
	RLETrueColor: "compressed truecolor",
	RLEGrayscale: "compressed grayscale",
}

func (t ImageType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown image type"
}

// Known reports whether t is one of the seven defined image types.
func (t ImageType) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// IsEncoded reports whether pixel data of this type is run-length encoded.
func (t ImageType) IsEncoded() bool {
	return t > encodedTypeBias && t < 12
}

// HasData reports whether an image of this type carries pixel data.
func (t ImageType) HasData() bool {
	return t != NoData
}

// IsMapped reports whether pixels of this type are color map indices.
func (t ImageType) IsMapped() bool {
	return t == MappedType || t == RLEMapped
}

// Encoded returns the run-length encoded variant of t.
func (t ImageType) Encoded() ImageType {
	if t == NoData || t.IsEncoded() {
		return t
	}
	return t + encodedTypeBias
}

// Decoded returns the uncompressed variant of t.
func (t ImageType) Decoded() ImageType {
	if t.IsEncoded() {
		return t - encodedTypeBias
	}
	return t
}
