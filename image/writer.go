package image

import (
	"errors"
	"image"
	"image/color"
	"io"

	"github.com/madebr/libtga/tga"
)

var (
	errBadSize      = errors.New("tga: image is wrong size")
	errBigPalette   = errors.New("tga: palette has more than 256 colors")
	errEmptyPalette = errors.New("tga: palette has no colors")
)

// Options are the encoding parameters.
type Options struct {
	// RLE run-length encodes the pixel data
	RLE bool
}

type encoder struct {
	w io.Writer
	h tga.Header
	d tga.Data
}

func opaque(m image.Image) bool {
	if o, ok := m.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := m.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

func opaquePalette(p color.Palette) bool {
	for _, c := range p {
		if _, _, _, a := c.RGBA(); a != 0xffff {
			return false
		}
	}
	return true
}

// putColor stores c as a BGR(A) entry of bpp bytes.
func putColor(b []byte, c color.Color, bpp int) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	b[0], b[1], b[2] = n.B, n.G, n.R
	if bpp == 4 {
		b[3] = n.A
	}
}

func (e *encoder) encodePaletted(m *image.Paletted) error {
	if len(m.Palette) > 256 {
		return errBigPalette
	}
	if len(m.Palette) == 0 {
		return errEmptyPalette
	}

	b := m.Bounds()

	entry := uint8(24)
	if !opaquePalette(m.Palette) {
		entry = 32
		e.h.Alpha = 8
	}
	bpp := int(entry) / 8

	e.h.MapType = 1
	e.h.MapLen = uint16(len(m.Palette))
	e.h.MapEntry = entry
	e.h.Depth = 8

	e.d.ColorMap = make([]byte, len(m.Palette)*bpp)
	for i, c := range m.Palette {
		putColor(e.d.ColorMap[i*bpp:], c, bpp)
	}

	e.d.Pixels = make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			e.d.Pixels = append(e.d.Pixels, m.ColorIndexAt(x, y))
		}
	}

	return nil
}

func (e *encoder) encodeGray(m *image.Gray) {
	b := m.Bounds()

	e.h.Type = tga.Grayscale
	e.h.Depth = 8

	e.d.Pixels = make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := m.PixOffset(b.Min.X, y)
		e.d.Pixels = append(e.d.Pixels, m.Pix[i:i+b.Dx()]...)
	}
}

func (e *encoder) encodeTrueColor(m image.Image) {
	b := m.Bounds()

	e.h.Type = tga.TrueColor
	e.h.Depth = 24
	if !opaque(m) {
		e.h.Depth = 32
		e.h.Alpha = 8
	}
	bpp := int(e.h.Depth) / 8

	e.d.Pixels = make([]byte, b.Dx()*b.Dy()*bpp)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			putColor(e.d.Pixels[i:], m.At(x, y), bpp)
			i += bpp
		}
	}
}

func (e *encoder) encode(m image.Image, o *Options) error {
	b := m.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 || b.Dx() > maxDimension || b.Dy() > maxDimension {
		return errBadSize
	}

	e.h = tga.Header{
		Width:    uint16(b.Dx()),
		Height:   uint16(b.Dy()),
		Vertical: true,
	}
	e.d = tga.Data{Flags: tga.ImageData}

	switch m := m.(type) {
	case *image.Paletted:
		if err := e.encodePaletted(m); err != nil {
			return err
		}
	case *image.Gray:
		e.encodeGray(m)
	default:
		e.encodeTrueColor(m)
	}

	if o != nil && o.RLE {
		e.d.Flags |= tga.RLEEncode
	}

	var buf buffer
	t := tga.New("", &buf)
	t.Header = e.h
	if err := t.WriteImage(&e.d); err != nil {
		return err
	}

	_, err := e.w.Write(buf.b)
	return err
}

// Encode writes the Image m to w in TGA format. A nil *Options writes
// uncompressed pixel data.
func Encode(w io.Writer, m image.Image, o *Options) error {
	e := encoder{w: w}
	return e.encode(m, o)
}
