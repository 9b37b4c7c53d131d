package tga

import (
	"bufio"
	"errors"
	"io"
)

var (
	errShortBuffer = errors.New("tga: buffer too small for scanlines")
	errBadRange    = errors.New("tga: scanlines out of range")
)

// ReadHeader reads and validates the image header into t.Header. A header
// that fails validation is still stored so it can be inspected.
func (t *TGA) ReadHeader() error {
	t.rleLine = 0

	if err := t.Seek(0); err != nil {
		return err
	}

	var b [HeaderSize]byte
	if err := t.read("read header", b[:]); err != nil {
		return err
	}

	if err := t.Header.UnmarshalBinary(b[:]); err != nil {
		return t.fail("read header", Generic, err)
	}

	if err := t.Header.Validate(); err != nil {
		return t.fail("read header", UnsupportedSubFormat, err)
	}

	t.ok()
	return nil
}

// ReadImageID returns the image identifier, or nil if the header declares
// none.
func (t *TGA) ReadImageID() ([]byte, error) {
	if t.Header.IDLength == 0 {
		t.ok()
		return nil, nil
	}

	if err := t.Seek(HeaderSize); err != nil {
		return nil, err
	}

	id := make([]byte, t.Header.IDLength)
	if err := t.read("read image id", id); err != nil {
		return nil, err
	}

	t.ok()
	return id, nil
}

// ReadColorMap returns the color map, or nil if the header declares none.
// Entries are returned in BGR order unless flags requests RGB, 15 and 16-bit
// entries are expanded to 24 bits.
func (t *TGA) ReadColorMap(flags Flag) ([]byte, error) {
	h := &t.Header

	n := h.ColorMapSize()
	if n <= 0 {
		t.ok()
		return nil, nil
	}

	if err := t.Seek(h.ColorMapOffset()); err != nil {
		return nil, err
	}

	raw := make([]byte, n)
	if err := t.read("read color map", raw); err != nil {
		return nil, err
	}

	cmap, err := transcode(raw, h.MapEntry, flags)
	if err != nil {
		return nil, t.fail("read color map", Generic, err)
	}

	t.ok()
	return cmap, nil
}

// DecodedScanlineSize returns the size in bytes of one scanline as returned
// by ReadScanlines.
func (t *TGA) DecodedScanlineSize() int {
	return int(t.Header.Width) * ((int(decodedDepth(t.Header.Depth)) + 7) / 8)
}

// ReadScanlines reads n scanlines starting at scanline sln into p, which
// must hold n*DecodedScanlineSize() bytes. Run-length encoded data is
// decoded, 15 and 16-bit pixels are expanded to 24 bits and the channel order
// is converted when flags requests RGB. It returns the number of scanlines
// read.
func (t *TGA) ReadScanlines(p []byte, sln, n int, flags Flag) (int, error) {
	const op = "read scanlines"

	h := &t.Header
	size := h.ScanlineSize()

	if len(p) < n*t.DecodedScanlineSize() {
		return 0, t.fail(op, Generic, errShortBuffer)
	}
	if sln < 0 || n < 0 || sln+n > int(h.Height) {
		return 0, t.fail(op, Generic, errBadRange)
	}

	raw := p[:n*size]
	if isPacked(h.Depth) {
		raw = make([]byte, n*size)
	}

	var (
		read int
		err  error
	)
	if h.Type.IsEncoded() {
		read, err = t.readRLE(raw, sln, n)
	} else {
		read, err = t.readRaw(raw, sln, n)
	}

	pixels, terr := transcode(raw[:read*size], h.Depth, flags)
	if terr != nil {
		return 0, t.fail(op, Generic, terr)
	}
	if isPacked(h.Depth) {
		copy(p, pixels)
	}

	if err != nil {
		return read, err
	}

	t.ok()
	return read, nil
}

func (t *TGA) readRaw(raw []byte, sln, n int) (int, error) {
	size := t.Header.ScanlineSize()
	if size == 0 {
		return n, nil
	}

	if err := t.Seek(t.Header.DataOffset() + int64(sln*size)); err != nil {
		return 0, err
	}

	m, err := io.ReadFull(t.f, raw)
	t.off += int64(m)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return m / size, t.fail("read scanlines", ReadFailure, err)
	}

	return n, nil
}

// countingReader counts the bytes handed out by r.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type countingByteReader struct {
	countingReader
	br *bufio.Reader
}

func (c *countingByteReader) ReadByte() (byte, error) {
	b, err := c.br.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

func (t *TGA) readRLE(raw []byte, sln, n int) (int, error) {
	const op = "read scanlines"

	h := &t.Header
	size := h.ScanlineSize()
	bpp := h.BytesPerPixel()
	if size == 0 {
		return n, nil
	}

	// Scanline boundaries are only known by decoding from the start of the
	// data, unless the previous call stopped at or before sln
	line, off := 0, h.DataOffset()
	if t.rleLine > 0 && t.rleLine <= sln {
		line, off = t.rleLine, t.rleOff
	}
	t.rleLine = 0

	if err := t.Seek(off); err != nil {
		return 0, err
	}

	src := &countingReader{r: t.f}
	br := bufio.NewReader(src)
	r := &countingByteReader{countingReader: countingReader{r: br}, br: br}

	var (
		read int
		err  error
	)
	if line < sln {
		scratch := make([]byte, size)
		for ; line < sln; line++ {
			if err = DecodeRLE(r, scratch, bpp); err != nil {
				break
			}
		}
	}
	if err == nil {
		for ; read < n; read++ {
			if err = DecodeRLE(r, raw[read*size:(read+1)*size], bpp); err != nil {
				break
			}
		}
	}

	// bufio reads ahead, move back to the end of the last packet consumed
	t.off = off + src.n
	end := off + r.n
	if serr := t.Seek(end); serr != nil {
		return read, serr
	}

	if err != nil {
		return read, t.fail(op, ReadFailure, err)
	}

	t.rleLine, t.rleOff = sln+n, end
	return read, nil
}

// ReadImage reads the header followed by the sections selected by flags.
// A header failure is returned with a nil Data. Otherwise the remaining
// sections are attempted independently: a failing section has its flag
// cleared and the first such error is returned alongside the Data, whose
// Flags describe what was actually read.
func (t *TGA) ReadImage(flags Flag) (*Data, error) {
	if err := t.ReadHeader(); err != nil {
		return nil, err
	}

	h := &t.Header
	d := &Data{
		Flags:    flags,
		Type:     h.Type.Decoded(),
		Depth:    decodedDepth(h.Depth),
		MapEntry: decodedDepth(h.MapEntry),
	}

	var first error
	note := func(err error) {
		if first == nil {
			first = err
		}
	}

	if flags&ImageID != 0 && h.IDLength > 0 {
		id, err := t.ReadImageID()
		if err != nil {
			d.Flags &^= ImageID
			note(err)
		} else {
			d.ID = id
		}
	} else {
		d.Flags &^= ImageID
	}

	if h.IsMapped() && flags&(ColorMap|ImageData) != 0 {
		cmap, err := t.ReadColorMap(flags)
		switch {
		case err != nil:
			d.Flags &^= ColorMap
			note(err)
		case cmap == nil:
			d.Flags &^= ColorMap
		default:
			d.ColorMap = cmap
			d.Flags |= ColorMap
		}
	} else {
		d.Flags &^= ColorMap
	}

	if flags&ImageData != 0 && h.Type.HasData() {
		d.Pixels = make([]byte, int(h.Height)*t.DecodedScanlineSize())
		if _, err := t.ReadScanlines(d.Pixels, 0, int(h.Height), flags); err != nil {
			d.Pixels = nil
			d.Flags &^= ImageData
			note(err)
		}
	} else {
		d.Flags &^= ImageData
	}

	if first != nil {
		var e *Error
		if errors.As(first, &e) {
			t.last = e
		}
		return d, first
	}

	t.ok()
	return d, nil
}
