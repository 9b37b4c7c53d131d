package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/madebr/libtga/tga"
)

var (
	errUnsupported = errors.New("tga: unsupported image type")
	errBadIndex    = errors.New("tga: invalid color map index")
	errNoData      = errors.New("tga: no image data")
)

// scale5 widens a 5-bit channel to 8 bits.
func scale5(v byte) byte {
	return v<<3 | v>>2
}

type decoder struct {
	h tga.Header
	d *tga.Data

	palette color.Palette
	image   image.Image
}

func (d *decoder) pixel(p []byte, depth uint8, packed bool) color.NRGBA {
	c := color.NRGBA{R: p[2], G: p[1], B: p[0], A: 0xff}
	if packed {
		c.R, c.G, c.B = scale5(c.R), scale5(c.G), scale5(c.B)
	}
	if depth == 32 && d.h.Alpha > 0 {
		c.A = p[3]
	}
	return c
}

func (d *decoder) readPalette() error {
	if d.d.MapEntry != 24 && d.d.MapEntry != 32 {
		return errUnsupported
	}

	h := &d.h
	n := int(h.MapFirst) + int(h.MapLen)
	if n > 256 {
		n = 256
	}

	// Entries before the first stored one are never referenced by a valid
	// image, leave them black
	d.palette = make(color.Palette, n)
	for i := range d.palette {
		d.palette[i] = color.NRGBA{A: 0xff}
	}

	bpp := int(d.d.MapEntry) / 8
	packed := h.MapEntry == 15 || h.MapEntry == 16
	for i := int(h.MapFirst); i < n; i++ {
		j := (i - int(h.MapFirst)) * bpp
		if j+bpp > len(d.d.ColorMap) {
			break
		}
		d.palette[i] = d.pixel(d.d.ColorMap[j:j+bpp], d.d.MapEntry, packed)
	}
	return nil
}

func (d *decoder) colorModel() (color.Model, error) {
	switch d.d.Type {
	case tga.MappedType:
		if d.palette == nil {
			return nil, errUnsupported
		}
		return d.palette, nil
	case tga.Grayscale:
		if d.d.Depth != 8 {
			return nil, errUnsupported
		}
		return color.GrayModel, nil
	case tga.TrueColor:
		if d.d.Depth != 24 && d.d.Depth != 32 {
			return nil, errUnsupported
		}
		return color.NRGBAModel, nil
	}
	return nil, errUnsupported
}

// point returns where pixel x of stored scanline y belongs in the image.
func (d *decoder) point(x, y int) (int, int) {
	if d.h.Horizontal {
		x = int(d.h.Width) - 1 - x
	}
	if !d.h.Vertical {
		y = int(d.h.Height) - 1 - y
	}
	return x, y
}

func (d *decoder) decodePixels() error {
	h := &d.h
	w, ht := int(h.Width), int(h.Height)
	r := image.Rect(0, 0, w, ht)
	bpp := int(d.d.Depth) / 8

	if len(d.d.Pixels) < w*ht*bpp {
		return errNoData
	}

	switch d.d.Type {
	case tga.MappedType:
		m := image.NewPaletted(r, d.palette)
		for y := 0; y < ht; y++ {
			for x := 0; x < w; x++ {
				idx := d.d.Pixels[y*w+x]
				if int(idx) >= len(d.palette) {
					return fmt.Errorf("%w: %d", errBadIndex, idx)
				}
				px, py := d.point(x, y)
				m.SetColorIndex(px, py, idx)
			}
		}
		d.image = m
	case tga.Grayscale:
		m := image.NewGray(r)
		for y := 0; y < ht; y++ {
			for x := 0; x < w; x++ {
				px, py := d.point(x, y)
				m.Pix[m.PixOffset(px, py)] = d.d.Pixels[y*w+x]
			}
		}
		d.image = m
	default:
		m := image.NewNRGBA(r)
		packed := h.Depth == 15 || h.Depth == 16
		for y := 0; y < ht; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * bpp
				px, py := d.point(x, y)
				m.SetNRGBA(px, py, d.pixel(d.d.Pixels[i:i+bpp], d.d.Depth, packed))
			}
		}
		d.image = m
	}

	return nil
}

func (d *decoder) decode(r io.Reader, configOnly bool) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	flags := tga.ColorMap
	if !configOnly {
		flags |= tga.ImageData
	}

	t := tga.New("", &readOnly{buffer{b: b}})
	if d.d, err = t.ReadImage(flags); err != nil {
		return err
	}
	d.h = t.Header

	if d.d.Has(tga.ColorMap) {
		if err := d.readPalette(); err != nil {
			return err
		}
	}

	if _, err := d.colorModel(); err != nil {
		return err
	}

	if configOnly {
		return nil
	}

	return d.decodePixels()
}

// Decode reads a TGA image from r and returns it as an image.Image.
func Decode(r io.Reader) (image.Image, error) {
	var d decoder
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return d.image, nil
}

// DecodeConfig returns the color model and dimensions of a TGA image without
// decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return image.Config{}, err
	}
	m, _ := d.colorModel()
	return image.Config{
		ColorModel: m,
		Width:      int(d.h.Width),
		Height:     int(d.h.Height),
	}, nil
}
