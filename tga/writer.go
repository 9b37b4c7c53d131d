package tga

import (
	"errors"
	"fmt"
)

var (
	errMissingID   = errors.New("tga: image id shorter than header id length")
	errRLEPosition = errors.New("tga: run-length encoded scanlines must be written in order")
)

// WriteHeader writes t.Header at the start of the file.
func (t *TGA) WriteHeader() error {
	if err := t.Seek(0); err != nil {
		return err
	}

	b, err := t.Header.MarshalBinary()
	if err != nil {
		return t.fail("write header", Generic, err)
	}

	if err := t.write("write header", b); err != nil {
		return err
	}

	t.ok()
	return nil
}

// WriteImageID writes the first Header.IDLength bytes of id. Nothing is
// written when the header declares no identifier.
func (t *TGA) WriteImageID(id []byte) error {
	n := int(t.Header.IDLength)
	if n == 0 {
		t.ok()
		return nil
	}

	if len(id) < n {
		return t.fail("write image id", Generic, errMissingID)
	}

	if err := t.Seek(HeaderSize); err != nil {
		return err
	}

	if err := t.write("write image id", id[:n]); err != nil {
		return err
	}

	t.ok()
	return nil
}

// WriteColorMap writes Header.ColorMapSize() bytes of cmap. If flags
// requests RGB, 24 and 32-bit entries are converted to BGR on the way out;
// cmap itself is not modified.
func (t *TGA) WriteColorMap(cmap []byte, flags Flag) error {
	const op = "write color map"

	h := &t.Header

	n := int(h.ColorMapSize())
	if len(cmap) < n {
		return t.fail(op, Generic, fmt.Errorf("tga: color map has %d bytes, need %d", len(cmap), n))
	}

	out := cmap[:n]
	if flags.swap() && canSwap(h.MapEntry) {
		out = append([]byte(nil), out...)
		SwapChannels(out, int(h.MapEntry)/8)
	}

	if err := t.Seek(h.ColorMapOffset()); err != nil {
		return err
	}

	if err := t.write(op, out); err != nil {
		return err
	}

	t.ok()
	return nil
}

// WriteScanlines writes n scanlines of p starting at scanline sln. Pixels are
// expected at the header's depth and are converted from RGB when flags
// requests it. With RLEEncode each scanline is run-length encoded, which
// requires scanlines to be written in order from the first, and the header
// type becomes the encoded variant. Otherwise the header type becomes the
// uncompressed variant. It returns the number of scanlines written.
func (t *TGA) WriteScanlines(p []byte, sln, n int, flags Flag) (int, error) {
	const op = "write scanlines"

	h := &t.Header
	size := h.ScanlineSize()

	if len(p) < n*size {
		return 0, t.fail(op, Generic, errShortBuffer)
	}
	if sln < 0 || n < 0 || sln+n > int(h.Height) {
		return 0, t.fail(op, Generic, errBadRange)
	}

	pixels := p[:n*size]
	if flags.swap() && canSwap(h.Depth) {
		pixels = append([]byte(nil), pixels...)
		SwapChannels(pixels, int(h.Depth)/8)
	}

	if flags&RLEEncode != 0 {
		return t.writeRLE(pixels, sln, n)
	}

	h.Type = h.Type.Decoded()
	t.rleLine = 0

	if err := t.Seek(h.DataOffset() + int64(sln*size)); err != nil {
		return 0, err
	}

	if err := t.write(op, pixels); err != nil {
		return 0, err
	}

	t.ok()
	return n, nil
}

func (t *TGA) writeRLE(pixels []byte, sln, n int) (int, error) {
	const op = "write scanlines"

	h := &t.Header
	size := h.ScanlineSize()
	bpp := h.BytesPerPixel()

	off := h.DataOffset()
	switch {
	case sln == 0:
	case sln == t.rleLine:
		off = t.rleOff
	default:
		return 0, t.fail(op, Generic, errRLEPosition)
	}
	t.rleLine = 0

	h.Type = h.Type.Encoded()
	if size == 0 {
		t.ok()
		return n, nil
	}

	if err := t.Seek(off); err != nil {
		return 0, err
	}

	buf := make([]byte, 0, size+size/maxRun+1)
	for i := 0; i < n; i++ {
		buf = EncodeRLE(buf[:0], pixels[i*size:(i+1)*size], bpp)
		if err := t.write(op, buf); err != nil {
			return i, err
		}
	}

	t.rleLine, t.rleOff = sln+n, t.off

	t.ok()
	return n, nil
}

// WriteImage writes the sections of d selected by d.Flags using t.Header,
// and finally the header itself so that it describes what was written. A
// color map forces the image to be color mapped, RLEEncode in d.Flags
// compresses the pixel data. Failing sections have their flag cleared and
// the first error is returned.
func (t *TGA) WriteImage(d *Data) error {
	h := &t.Header

	var first error
	note := func(err error) {
		if first == nil {
			first = err
		}
	}

	if d.Flags&ImageID != 0 && h.IDLength > 0 {
		if err := t.WriteImageID(d.ID); err != nil {
			d.Flags &^= ImageID
			note(err)
		}
	} else {
		d.Flags &^= ImageID
	}

	if d.Flags&ImageData != 0 {
		if d.ColorMap != nil {
			h.MapType = 1
			h.Type = MappedType
			if err := t.WriteColorMap(d.ColorMap, d.Flags); err != nil {
				d.Flags &^= ColorMap
				h.MapType = 0
				note(err)
			} else {
				d.Flags |= ColorMap
			}
		} else {
			h.MapType = 0
			d.Flags &^= ColorMap
		}

		if _, err := t.WriteScanlines(d.Pixels, 0, int(h.Height), d.Flags); err != nil {
			d.Flags &^= ImageData
			h.Type = NoData
			note(err)
		}
	}

	if err := t.WriteHeader(); err != nil {
		note(err)
	}

	if first != nil {
		var e *Error
		if errors.As(first, &e) {
			t.last = e
		}
		return first
	}

	t.ok()
	return nil
}
