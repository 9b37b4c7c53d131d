package libtga

import (
	"fmt"
	"io"

	"github.com/madebr/libtga/tga"
)

// Copy re-writes the image src to dst, run-length encoding the pixel data if
// encode is set and storing it uncompressed otherwise.
func (t *Tools) Copy(src, dst string, encode bool) error {
	in, err := t.open(src, "r")
	if err != nil {
		return err
	}
	defer in.Close()

	d, err := in.ReadImage(tga.ImageID | tga.ImageData | tga.RGB)
	if err != nil {
		return err
	}
	defer d.Free()

	out, err := t.open(dst, "w")
	if err != nil {
		return err
	}
	defer out.Close()

	out.Header = copyHeader(in.Header, d)

	if encode {
		d.Flags |= tga.RLEEncode
	}

	if err := out.WriteImage(d); err != nil {
		return err
	}

	t.logger.Printf("Copied \"%s\" (%s) to \"%s\" (%s)\n", src, in.Header.Type, dst, out.Header.Type)

	return out.Close()
}

// Dump writes a description of the header of the image name to w.
func (t *Tools) Dump(w io.Writer, name string) error {
	in, err := t.open(name, "r")
	if err != nil {
		return err
	}
	defer in.Close()

	d, err := in.ReadImage(tga.ImageInfo)
	if err != nil {
		return err
	}

	if !d.Has(tga.ImageInfo) {
		return nil
	}

	h := in.Header

	mapped := "not color mapped"
	if h.IsMapped() {
		mapped = "color mapped"
	}
	vert := "bottom"
	if h.Vertical {
		vert = "top"
	}
	horz := "left"
	if h.Horizontal {
		horz = "right"
	}

	fmt.Fprintf(w, "[info] width=%d\n", h.Width)
	fmt.Fprintf(w, "[info] height=%d\n", h.Height)
	fmt.Fprintf(w, "[info] color map type=%d\n", h.MapType)
	fmt.Fprintf(w, "-> [text] %s\n", mapped)
	if h.IsMapped() {
		fmt.Fprintf(w, "[info] color map first=%d length=%d depth=%d\n", h.MapFirst, h.MapLen, h.MapEntry)
	}
	fmt.Fprintf(w, "[info] image type=%d\n", h.Type)
	fmt.Fprintf(w, "-> [text] %s\n", h.Type)
	fmt.Fprintf(w, "[info] depth=%d\n", h.Depth)
	fmt.Fprintf(w, "[info] alpha bits=%d\n", h.Alpha)
	fmt.Fprintf(w, "[info] id length=%d\n", h.IDLength)
	fmt.Fprintf(w, "[info] x=%d\n", h.X)
	fmt.Fprintf(w, "[info] y=%d\n", h.Y)
	fmt.Fprintf(w, "[info] orientation=%s-%s\n", vert, horz)

	return nil
}
