package libtga

import (
	"errors"
	"image"
	"os"

	tgaimage "github.com/madebr/libtga/image"
)

var errNotTGAOutput = errors.New("output must be a TGA file")

func decodeFile(file string) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if isTGA(file) {
		return tgaimage.Decode(f)
	}

	m, _, err := image.Decode(f)
	return m, err
}

// Convert reads the image src, either a TGA file or any format registered
// with the image package, and writes it to the TGA file dst, run-length
// encoded if encode is set.
func (t *Tools) Convert(src, dst string, encode bool) error {
	if !isTGA(dst) {
		return errNotTGAOutput
	}

	m, err := decodeFile(src)
	if err != nil {
		return err
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := tgaimage.Encode(f, m, &tgaimage.Options{RLE: encode}); err != nil {
		return err
	}

	t.logger.Printf("Converted \"%s\" to \"%s\", %dx%d\n", src, dst, m.Bounds().Dx(), m.Bounds().Dy())

	return f.Close()
}
