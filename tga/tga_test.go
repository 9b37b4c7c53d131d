package tga

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFile is an in-memory File.
type memFile struct {
	b   []byte
	off int64
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.off >= int64(len(m.b)) {
		return 0, io.EOF
	}
	n := copy(p, m.b[m.off:])
	m.off += int64(n)
	return n, nil
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.off + int64(len(p)); end > int64(len(m.b)) {
		m.b = append(m.b, make([]byte, end-int64(len(m.b)))...)
	}
	n := copy(m.b[m.off:], p)
	m.off += int64(n)
	return n, nil
}

func (m *memFile) Seek(off int64, whence int) (int64, error) {
	switch whence {
	case io.SeekCurrent:
		off += m.off
	case io.SeekEnd:
		off += int64(len(m.b))
	}
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	m.off = off
	return off, nil
}

// lyingFile reports success but never moves.
type lyingFile struct {
	memFile
}

func (l *lyingFile) Seek(off int64, whence int) (int64, error) {
	return l.off, nil
}

func writeImage(t *testing.T, name string, h Header, d *Data) {
	t.Helper()
	w, err := Open(name, "w")
	require.NoError(t, err)
	w.Header = h
	require.NoError(t, w.WriteImage(d))
	require.NoError(t, w.Close())
}

func readImage(t *testing.T, name string, flags Flag) (*TGA, *Data) {
	t.Helper()
	r, err := Open(name, "r")
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	d, err := r.ReadImage(flags)
	require.NoError(t, err)
	return r, d
}

func TestOpenMissing(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "missing.tga"), "r")
	assert.Nil(t, r)
	require.ErrorIs(t, err, OpenFailure)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpenBadMode(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "x.tga"), "q")
	assert.Nil(t, r)
	require.ErrorIs(t, err, OpenFailure)
}

func TestTrueColorScenario(t *testing.T) {
	name := filepath.Join(t.TempDir(), "rgb.tga")
	h := Header{Type: TrueColor, Width: 2, Height: 1, Depth: 24}
	writeImage(t, name, h, &Data{
		Pixels: []byte{10, 20, 30, 40, 50, 60},
		Flags:  ImageData,
	})

	b, err := os.ReadFile(name)
	require.NoError(t, err)
	require.Len(t, b, HeaderSize+6)
	assert.Equal(t, []byte{10, 20, 30, 40, 50, 60}, b[HeaderSize:])

	r, d := readImage(t, name, ImageData|RGB)
	assert.Equal(t, h, r.Header)
	assert.True(t, d.Has(ImageData))
	assert.Equal(t, []byte{30, 20, 10, 60, 50, 40}, d.Pixels)
	assert.Equal(t, OK, r.Last())

	_, d = readImage(t, name, ImageData)
	assert.Equal(t, []byte{10, 20, 30, 40, 50, 60}, d.Pixels)
}

func TestWriteRGBDoesNotModifyCaller(t *testing.T) {
	name := filepath.Join(t.TempDir(), "rgb.tga")
	pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	writeImage(t, name, Header{Type: TrueColor, Width: 2, Height: 1, Depth: 32}, &Data{
		Pixels: pixels,
		Flags:  ImageData | RGB,
	})
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, pixels)

	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 2, 1, 4, 7, 6, 5, 8}, b[HeaderSize:])
}

func TestRLEScenario(t *testing.T) {
	name := filepath.Join(t.TempDir(), "rle.tga")
	width, height := 300, 4
	pixels := make([]byte, width*height*3)
	for i := range pixels {
		// Runs of 5 identical pixels
		pixels[i] = byte(i / 15)
	}

	writeImage(t, name, Header{Type: TrueColor, Width: uint16(width), Height: uint16(height), Depth: 24}, &Data{
		Pixels: pixels,
		Flags:  ImageData | RLEEncode,
	})

	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, byte(RLETrueColor), b[2])
	assert.Less(t, len(b), HeaderSize+len(pixels))

	r, d := readImage(t, name, ImageData)
	assert.Equal(t, RLETrueColor, r.Header.Type)
	assert.Equal(t, TrueColor, d.Type)
	assert.Equal(t, uint8(24), d.Depth)
	assert.Equal(t, pixels, d.Pixels)
}

func TestRLEReadScanlinesOutOfOrder(t *testing.T) {
	name := filepath.Join(t.TempDir(), "rle.tga")
	width, height := 5, 6
	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = byte(i / 2)
	}
	writeImage(t, name, Header{Type: Grayscale, Width: uint16(width), Height: uint16(height), Depth: 8}, &Data{
		Pixels: pixels,
		Flags:  ImageData | RLEEncode,
	})

	r, err := Open(name, "r")
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.ReadHeader())

	line := make([]byte, width)
	for _, sln := range []int{3, 4, 1, 5, 0} {
		n, err := r.ReadScanlines(line, sln, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, pixels[sln*width:(sln+1)*width], line, "scanline %d", sln)
	}

	all := make([]byte, 2*width)
	n, err := r.ReadScanlines(all, 2, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, pixels[2*width:4*width], all)
}

func TestRLEWriteScanlinesInOrder(t *testing.T) {
	f := &memFile{}
	w := New("mem", f)
	w.Header = Header{Type: Grayscale, Width: 4, Height: 3, Depth: 8}

	_, err := w.WriteScanlines([]byte{1, 1, 1, 1}, 0, 1, RLEEncode)
	require.NoError(t, err)
	_, err = w.WriteScanlines([]byte{2, 3, 4, 5}, 1, 1, RLEEncode)
	require.NoError(t, err)
	assert.Equal(t, RLEGrayscale, w.Header.Type)

	_, err = w.WriteScanlines([]byte{6, 6, 6, 6}, 1, 1, RLEEncode)
	require.ErrorIs(t, err, Generic)
	_, err = w.WriteScanlines([]byte{6, 6, 6, 6}, 2, 1, RLEEncode)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader())

	assert.Equal(t, []byte{0x83, 1, 0x03, 2, 3, 4, 5, 0x83, 6}, f.b[HeaderSize:])

	r := New("mem", &memFile{b: f.b})
	d, err := r.ReadImage(ImageData)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 1, 1, 2, 3, 4, 5, 6, 6, 6, 6}, d.Pixels)
}

func TestImageID(t *testing.T) {
	name := filepath.Join(t.TempDir(), "id.tga")
	writeImage(t, name, Header{IDLength: 5, Type: Grayscale, Width: 1, Height: 1, Depth: 8}, &Data{
		ID:     []byte("hello"),
		Pixels: []byte{9},
		Flags:  ImageID | ImageData,
	})

	_, d := readImage(t, name, ImageID|ImageData)
	assert.True(t, d.Has(ImageID|ImageData))
	assert.Equal(t, []byte("hello"), d.ID)
	assert.Equal(t, []byte{9}, d.Pixels)
}

func TestImageIDEmpty(t *testing.T) {
	name := filepath.Join(t.TempDir(), "noid.tga")
	w := &Data{
		ID:     []byte("ignored"),
		Pixels: []byte{9},
		Flags:  ImageID | ImageData,
	}
	writeImage(t, name, Header{Type: Grayscale, Width: 1, Height: 1, Depth: 8}, w)
	assert.Equal(t, ImageData, w.Flags)

	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Len(t, b, HeaderSize+1)

	_, d := readImage(t, name, ImageID|ImageData)
	assert.False(t, d.Has(ImageID))
	assert.Nil(t, d.ID)
}

func TestColorMap(t *testing.T) {
	name := filepath.Join(t.TempDir(), "mapped.tga")
	cmap := []byte{
		255, 0, 0,
		0, 255, 0,
		0, 0, 255,
	}
	writeImage(t, name, Header{MapLen: 3, MapEntry: 24, Width: 3, Height: 1, Depth: 8}, &Data{
		ColorMap: cmap,
		Pixels:   []byte{2, 1, 0},
		Flags:    ImageData | RGB,
	})

	r, d := readImage(t, name, ImageData)
	assert.Equal(t, uint8(1), r.Header.MapType)
	assert.Equal(t, MappedType, r.Header.Type)
	assert.True(t, d.Has(ColorMap|ImageData))
	// Stored as BGR, read back without conversion
	assert.Equal(t, []byte{0, 0, 255, 0, 255, 0, 255, 0, 0}, d.ColorMap)
	assert.Equal(t, []byte{2, 1, 0}, d.Pixels)

	_, d = readImage(t, name, ColorMap|RGB)
	assert.True(t, d.Has(ColorMap))
	assert.False(t, d.Has(ImageData))
	assert.Equal(t, cmap, d.ColorMap)
}

func TestColorMap16(t *testing.T) {
	h := Header{MapType: 1, Type: MappedType, MapLen: 2, MapEntry: 16, Width: 2, Height: 1, Depth: 8}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	b = append(b, 0x1f, 0x00, 0x00, 0x7c, 1, 0)

	r := New("mem", &memFile{b: b})
	d, err := r.ReadImage(ImageData | RGB)
	require.NoError(t, err)
	assert.Equal(t, uint8(24), d.MapEntry)
	assert.Equal(t, []byte{0, 0, 31, 31, 0, 0}, d.ColorMap)
	assert.Equal(t, []byte{1, 0}, d.Pixels)
}

func TestUnmappedClearsColorMapFlag(t *testing.T) {
	name := filepath.Join(t.TempDir(), "rgb.tga")
	writeImage(t, name, Header{Type: TrueColor, Width: 1, Height: 1, Depth: 24}, &Data{
		Pixels: []byte{1, 2, 3},
		Flags:  ImageData | ColorMap,
	})

	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, b[3:8])

	_, d := readImage(t, name, ColorMap|ImageData)
	assert.False(t, d.Has(ColorMap))
	assert.Nil(t, d.ColorMap)
}

func TestPixels16(t *testing.T) {
	h := Header{Type: RLETrueColor, Width: 3, Height: 1, Depth: 16}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	// Repeat packet of two red pixels, direct packet of one blue pixel
	b = append(b, 0x81, 0x00, 0x7c, 0x00, 0x1f, 0x00)

	r := New("mem", &memFile{b: b})
	d, err := r.ReadImage(ImageData)
	require.NoError(t, err)
	assert.Equal(t, TrueColor, d.Type)
	assert.Equal(t, uint8(24), d.Depth)
	assert.Equal(t, 9, r.DecodedScanlineSize())
	assert.Equal(t, []byte{0, 0, 31, 0, 0, 31, 31, 0, 0}, d.Pixels)
}

func TestTruncatedPixelData(t *testing.T) {
	h := Header{IDLength: 2, Type: TrueColor, Width: 2, Height: 2, Depth: 24}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	b = append(b, 'i', 'd', 1, 2, 3)

	var handled []Code
	r := New("mem", &memFile{b: b}, WithErrorHandler(ErrorHandlerFunc(func(_ *TGA, err *Error) {
		handled = append(handled, err.Code)
	})))

	d, err := r.ReadImage(ImageID | ImageData)
	require.ErrorIs(t, err, ReadFailure)
	require.NotNil(t, d)
	assert.True(t, d.Has(ImageID))
	assert.False(t, d.Has(ImageData))
	assert.Nil(t, d.Pixels)
	assert.Equal(t, []byte("id"), d.ID)
	assert.Equal(t, ReadFailure, r.Last())
	assert.Equal(t, []Code{ReadFailure}, handled)
}

func TestTruncatedRLE(t *testing.T) {
	h := Header{Type: RLEGrayscale, Width: 4, Height: 2, Depth: 8}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	b = append(b, 0x83, 1, 0x03, 2)

	r := New("mem", &memFile{b: b})
	require.NoError(t, r.ReadHeader())
	p := make([]byte, 8)
	n, err := r.ReadScanlines(p, 0, 2, 0)
	require.ErrorIs(t, err, ReadFailure)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{1, 1, 1, 1}, p[:4])
}

func TestSeekVerified(t *testing.T) {
	h := Header{IDLength: 4, Type: Grayscale, Width: 1, Height: 1, Depth: 8}
	b, err := h.MarshalBinary()
	require.NoError(t, err)

	r := New("mem", &lyingFile{memFile{b: append(b, 'a', 'b', 'c', 'd', 1)}})
	require.NoError(t, r.ReadHeader())

	// The pixel data is not at the current offset and the seek silently
	// stays put
	_, err = r.ReadScanlines(make([]byte, 1), 0, 1, 0)
	require.ErrorIs(t, err, SeekFailure)
	assert.Equal(t, int64(HeaderSize), r.Offset())
}

func TestHeaderFailureIsFatal(t *testing.T) {
	r := New("mem", &memFile{})
	d, err := r.ReadImage(ImageInfo | ImageData)
	assert.Nil(t, d)
	require.ErrorIs(t, err, ReadFailure)
}

func TestWriteImageMissingPixels(t *testing.T) {
	f := &memFile{}
	w := New("mem", f)
	w.Header = Header{Type: TrueColor, Width: 2, Height: 2, Depth: 24}

	d := &Data{Pixels: []byte{1, 2, 3}, Flags: ImageData}
	err := w.WriteImage(d)
	require.ErrorIs(t, err, Generic)
	assert.False(t, d.Has(ImageData))

	// The header is still written and records that no data follows
	require.Len(t, f.b, HeaderSize)
	assert.Equal(t, byte(NoData), f.b[2])
}

func TestDefaultErrorLogging(t *testing.T) {
	var buf bytes.Buffer
	r := New("broken.tga", &memFile{}, WithLogger(log.New(&buf, "", 0)))
	require.Error(t, r.ReadHeader())
	assert.Contains(t, buf.String(), "broken.tga")
	assert.Contains(t, buf.String(), "Read failed")

	r.ClearError()
	assert.NoError(t, r.Err())
}

func TestFree(t *testing.T) {
	d := &Data{ID: []byte{1}, Pixels: []byte{2}, Flags: ImageID | ImageData | RGB}
	d.Free()
	d.Free()
	assert.Nil(t, d.ID)
	assert.Nil(t, d.Pixels)
	assert.Equal(t, RGB, d.Flags)

	var nilData *Data
	nilData.Free()
}

func TestStrError(t *testing.T) {
	assert.Equal(t, "Success", StrError(OK))
	assert.Equal(t, "Seek failed", StrError(SeekFailure))
	assert.Equal(t, "Unknown sub-format", StrError(UnsupportedSubFormat))
	assert.Equal(t, "Error", StrError(Code(42)))
	assert.Equal(t, "Error", StrError(Code(0)))
	assert.Equal(t, OK, CodeOf(nil))
	assert.Equal(t, Generic, CodeOf(io.EOF))
	assert.False(t, Warning.Fatal())
	assert.True(t, ReadFailure.Fatal())
}

func TestRLEZeroDepth(t *testing.T) {
	h := Header{Type: RLETrueColor, Width: 2, Height: 1}
	b, err := h.MarshalBinary()
	require.NoError(t, err)

	r := New("zero.tga", &memFile{b: append(b, 0x81, 0x81)})
	require.NoError(t, r.ReadHeader())

	n, err := r.ReadScanlines(nil, 0, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
