package libtga

import (
	"errors"
	"fmt"

	"github.com/madebr/libtga/tga"
)

var (
	errNotMapped   = errors.New("image is not color mapped")
	errNoColorMap  = errors.New("image has no color map")
	errNoPixelData = errors.New("image has no pixel data")
)

// Unmap replaces every color map index in d with the color map entry it
// refers to. It returns the header of the resulting truecolor image, whose
// depth is that of the color map entries.
func Unmap(h tga.Header, d *tga.Data) (tga.Header, []byte, error) {
	if !h.IsMapped() {
		return tga.Header{}, nil, errNotMapped
	}
	if !d.Has(tga.ColorMap) {
		return tga.Header{}, nil, errNoColorMap
	}
	if !d.Has(tga.ImageData) {
		return tga.Header{}, nil, errNoPixelData
	}

	bpp := int(d.MapEntry+7) / 8
	entries := len(d.ColorMap) / bpp

	pixels := make([]byte, len(d.Pixels)*bpp)
	for i, idx := range d.Pixels {
		e := int(idx) - int(h.MapFirst)
		if e < 0 || e >= entries {
			return tga.Header{}, nil, fmt.Errorf("pixel %d: color map index %d out of range", i, idx)
		}
		copy(pixels[i*bpp:], d.ColorMap[e*bpp:(e+1)*bpp])
	}

	out := h
	out.MapType = 0
	out.MapFirst = 0
	out.MapLen = 0
	out.MapEntry = 0
	out.Type = tga.TrueColor
	out.Depth = d.MapEntry
	out.Alpha = 0
	if d.MapEntry == 32 {
		out.Alpha = 8
	}

	return out, pixels, nil
}

// Unmap converts the color mapped image src into the truecolor image dst,
// keeping run-length compression if src used it.
func (t *Tools) Unmap(src, dst string) error {
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

	h, pixels, err := Unmap(in.Header, d)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}

	t.logger.Printf("Expanding %d scanlines of \"%s\"\n", h.Height, src)

	out, err := t.open(dst, "w")
	if err != nil {
		return err
	}
	defer out.Close()

	out.Header = h

	flags := tga.ImageData | d.Flags&tga.ImageID
	if in.Header.Type.IsEncoded() {
		flags |= tga.RLEEncode
	}

	if err := out.WriteImage(&tga.Data{ID: d.ID, Pixels: pixels, Flags: flags}); err != nil {
		return err
	}

	return out.Close()
}
