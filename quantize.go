package libtga

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/madebr/libtga/tga"
)

const maxColors = 256

var (
	errNotTrueColor = errors.New("image is not truecolor")
	errEmptyImage   = errors.New("image has no pixels")
)

// QuantizeOptions controls the conversion of a truecolor image to a color
// mapped one.
type QuantizeOptions struct {
	// Colors is the maximum size of the color map, at most 256
	Colors int
	// Encode run-length encodes the indices
	Encode bool
}

// toImage returns the pixels of d as an image, one row per scanline in the
// order they are stored.
func toImage(h tga.Header, d *tga.Data) *image.NRGBA {
	bpp := int(d.Depth) / 8
	m := image.NewNRGBA(image.Rect(0, 0, int(h.Width), int(h.Height)))
	for i, j := 0, 0; i+bpp <= len(d.Pixels) && j < len(m.Pix); i, j = i+bpp, j+4 {
		p := d.Pixels[i : i+bpp]
		m.Pix[j+0] = p[2]
		m.Pix[j+1] = p[1]
		m.Pix[j+2] = p[0]
		m.Pix[j+3] = 0xff
		if bpp == 4 {
			m.Pix[j+3] = p[3]
		}
	}
	return m
}

// Quantize reduces the truecolor image in d to a color mapped image with at
// most colors entries using median cut. It returns the header and sections of
// the new image; color map entries have the same depth as the source pixels.
func Quantize(h tga.Header, d *tga.Data, colors int) (tga.Header, *tga.Data, error) {
	if d.Type != tga.TrueColor || (d.Depth != 24 && d.Depth != 32) {
		return tga.Header{}, nil, errNotTrueColor
	}
	if !d.Has(tga.ImageData) || h.Width == 0 || h.Height == 0 {
		return tga.Header{}, nil, errEmptyImage
	}
	if colors < 1 || colors > maxColors {
		return tga.Header{}, nil, fmt.Errorf("cannot quantize to %d colors", colors)
	}

	m := toImage(h, d)
	b := m.Bounds()

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colors), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	bpp := int(d.Depth) / 8
	cmap := make([]byte, len(pm.Palette)*bpp)
	for i, c := range pm.Palette {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		e := cmap[i*bpp:]
		e[0], e[1], e[2] = n.B, n.G, n.R
		if bpp == 4 {
			e[3] = n.A
		}
	}

	out := h
	out.MapType = 1
	out.Type = tga.MappedType
	out.MapFirst = 0
	out.MapLen = uint16(len(pm.Palette))
	out.MapEntry = d.Depth
	out.Depth = 8
	out.Alpha = 0

	return out, &tga.Data{
		ID:       d.ID,
		ColorMap: cmap,
		Pixels:   pm.Pix,
		Flags:    tga.ImageData | tga.ColorMap | d.Flags&tga.ImageID,
		Type:     tga.MappedType,
		Depth:    8,
		MapEntry: d.Depth,
	}, nil
}

// Quantize converts the truecolor image src into the color mapped image dst.
func (t *Tools) Quantize(src, dst string, opts QuantizeOptions) error {
	in, err := t.open(src, "r")
	if err != nil {
		return err
	}
	defer in.Close()

	d, err := in.ReadImage(tga.ImageID | tga.ImageData)
	if err != nil {
		return err
	}
	defer d.Free()

	h, q, err := Quantize(in.Header, d, opts.Colors)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}

	t.logger.Printf("Reduced \"%s\" to %d colors\n", src, h.MapLen)

	out, err := t.open(dst, "w")
	if err != nil {
		return err
	}
	defer out.Close()

	out.Header = h

	if opts.Encode {
		q.Flags |= tga.RLEEncode
	}

	if err := out.WriteImage(q); err != nil {
		return err
	}

	return out.Close()
}
