package tga

// Data holds the sections of an image transferred by ReadImage and
// WriteImage. All buffers are owned by the Data value and are released
// together by Free.
type Data struct {
	ID       []byte
	ColorMap []byte
	Pixels   []byte

	// Flags selects the sections to transfer. After ReadImage or
	// WriteImage only the bits of the sections that succeeded remain set.
	Flags Flag

	// Type, Depth and MapEntry describe the in-memory representation
	// filled in by ReadImage. Type is always uncompressed and 15 or 16-bit
	// pixels and color map entries have been expanded to 24 bits.
	Type     ImageType
	Depth    uint8
	MapEntry uint8
}

// Free drops every section buffer and clears the matching flags. It is safe
// to call on a partially populated or already freed Data.
func (d *Data) Free() {
	if d == nil {
		return
	}
	d.ID = nil
	d.ColorMap = nil
	d.Pixels = nil
	d.Flags &^= ImageID | ColorMap | ImageData
}

// Has reports whether every section in f is present.
func (d *Data) Has(f Flag) bool {
	return d != nil && d.Flags&f == f
}
