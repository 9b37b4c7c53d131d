/*
Package image implements a TGA image decoder and encoder on top of the tga
codec, converting between TGA files and the standard library image types.

Color mapped images decode to *image.Paletted, grayscale images to
*image.Gray and everything else to *image.NRGBA. Pixels are placed
according to the image origin stored in the header so the decoded image is
always the right way up. 15 and 16-bit pixels are scaled to 8 bits per
channel and an alpha channel is only honored when the header declares alpha
bits.

Encoding picks the smallest representation for the image type: paletted
images become 8-bit color mapped files, gray images 8-bit grayscale and the
rest 24-bit truecolor, or 32-bit if any pixel is not fully opaque. Encoded
images always use a top-left origin.
*/
package image

import (
	"errors"
	"io"
)

const maxDimension = 1<<16 - 1

var errReadOnly = errors.New("tga: read only")

// buffer is an in-memory tga.File. The codec needs to seek, so images are
// staged in memory rather than streamed.
type buffer struct {
	b   []byte
	off int64
}

func (b *buffer) Read(p []byte) (int, error) {
	if b.off >= int64(len(b.b)) {
		return 0, io.EOF
	}
	n := copy(p, b.b[b.off:])
	b.off += int64(n)
	return n, nil
}

func (b *buffer) Write(p []byte) (int, error) {
	if end := b.off + int64(len(p)); end > int64(len(b.b)) {
		b.b = append(b.b, make([]byte, end-int64(len(b.b)))...)
	}
	n := copy(b.b[b.off:], p)
	b.off += int64(n)
	return n, nil
}

func (b *buffer) Seek(off int64, whence int) (int64, error) {
	switch whence {
	case io.SeekCurrent:
		off += b.off
	case io.SeekEnd:
		off += int64(len(b.b))
	}
	if off < 0 {
		return b.off, errors.New("tga: negative offset")
	}
	b.off = off
	return off, nil
}

// readOnly is a buffer that refuses writes.
type readOnly struct {
	buffer
}

func (r *readOnly) Write([]byte) (int, error) {
	return 0, errReadOnly
}
