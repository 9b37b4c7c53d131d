package tga

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteOrder(t *testing.T) {
	var b [2]byte
	PutUint16(b[:], 0x1234)
	assert.Equal(t, [2]byte{0x34, 0x12}, b)
	assert.Equal(t, uint16(0x1234), Uint16(b[:]))
}

func TestHeaderRoundTrip(t *testing.T) {
	tables := []Header{
		{
			Type:   TrueColor,
			Width:  640,
			Height: 480,
			Depth:  24,
		},
		{
			IDLength:   12,
			MapType:    1,
			Type:       RLEMapped,
			MapFirst:   3,
			MapLen:     253,
			MapEntry:   32,
			X:          0x0102,
			Y:          0xfffe,
			Width:      0xffff,
			Height:     1,
			Depth:      8,
			Alpha:      8,
			Horizontal: true,
			Vertical:   true,
		},
		{
			Type:     Grayscale,
			Width:    3,
			Height:   3,
			Depth:    8,
			Vertical: true,
		},
		{
			Type: NoData,
		},
	}

	for _, table := range tables {
		f := &memFile{}
		w := New("mem", f)
		w.Header = table
		require.NoError(t, w.WriteHeader())
		require.Len(t, f.b, HeaderSize)

		r := New("mem", &memFile{b: f.b})
		require.NoError(t, r.ReadHeader())
		if diff := cmp.Diff(table, r.Header); diff != "" {
			t.Errorf("header round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestHeaderLayout(t *testing.T) {
	h := Header{
		IDLength: 5,
		MapType:  1,
		Type:     MappedType,
		MapFirst: 0x0201,
		MapLen:   0x0403,
		MapEntry: 24,
		X:        0x0605,
		Y:        0x0807,
		Width:    0x0a09,
		Height:   0x0c0b,
		Depth:    8,
		Alpha:    0x0f,
		Vertical: true,
	}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		5, 1, 1,
		0x01, 0x02, 0x03, 0x04, 24,
		0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c,
		8, 0x2f,
	}, b)
}

func TestHeaderUnmappedZeroesMapFields(t *testing.T) {
	h := Header{
		Type:     TrueColor,
		MapFirst: 0xffff,
		MapLen:   0xffff,
		MapEntry: 24,
		Width:    1,
		Height:   1,
		Depth:    24,
	}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, b[3:8])
	assert.Equal(t, byte(0), b[1])
}

func TestReadHeaderValidation(t *testing.T) {
	tables := map[string]Header{
		"mapped 24-bit": {MapType: 1, Type: MappedType, MapLen: 2, MapEntry: 24, Width: 1, Height: 1, Depth: 24},
		"12-bit":        {Type: TrueColor, Width: 1, Height: 1, Depth: 12},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			b, err := table.MarshalBinary()
			require.NoError(t, err)

			r := New("mem", &memFile{b: b})
			err = r.ReadHeader()
			require.ErrorIs(t, err, UnsupportedSubFormat)
			assert.Equal(t, UnsupportedSubFormat, r.Last())
			assert.Equal(t, table.Depth, r.Header.Depth)
		})
	}
}

func TestReadHeaderShort(t *testing.T) {
	r := New("mem", &memFile{b: make([]byte, 10)})
	err := r.ReadHeader()
	require.ErrorIs(t, err, ReadFailure)
	assert.Equal(t, ReadFailure, CodeOf(err))
}

func TestImageType(t *testing.T) {
	assert.Equal(t, RLETrueColor, TrueColor.Encoded())
	assert.Equal(t, RLETrueColor, RLETrueColor.Encoded())
	assert.Equal(t, NoData, NoData.Encoded())
	assert.Equal(t, Grayscale, RLEGrayscale.Decoded())
	assert.Equal(t, MappedType, MappedType.Decoded())
	assert.True(t, RLEMapped.IsEncoded())
	assert.True(t, RLEMapped.IsMapped())
	assert.False(t, TrueColor.IsEncoded())
	assert.False(t, NoData.HasData())
	assert.False(t, ImageType(5).Known())
	assert.Equal(t, "compressed truecolor", RLETrueColor.String())
}

func TestHeaderSizes(t *testing.T) {
	h := Header{IDLength: 4, MapType: 1, MapLen: 16, MapEntry: 24, Width: 10, Height: 3, Depth: 8}
	assert.Equal(t, int64(48), h.ColorMapSize())
	assert.Equal(t, int64(22), h.ColorMapOffset())
	assert.Equal(t, int64(70), h.DataOffset())
	assert.Equal(t, 10, h.ScanlineSize())
	assert.Equal(t, 30, h.DataSize())

	h = Header{Width: 10, Height: 3, Depth: 15}
	assert.Equal(t, 2, h.BytesPerPixel())
}
