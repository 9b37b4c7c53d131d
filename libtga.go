/*
Package libtga provides the tools built on top of the tga codec: dumping
image information, re-encoding with or without run-length compression,
converting between color mapped and truecolor images, sanity checking files
and maintaining a searchable catalog of the TGA files found under a
directory.
*/
package libtga

import (
	"errors"
	"log"

	"github.com/madebr/libtga/tga"
)

const defaultWorkers = 10

var errNoCatalog = errors.New("no catalog database")

// Tools carries the shared state of the tools: the catalog, which may be
// nil for tools that do not need it, and a logger.
type Tools struct {
	db     *Catalog
	logger *log.Logger

	// Workers is the number of files indexed concurrently
	Workers int
}

// New returns a Tools using the given catalog and logger.
func New(db *Catalog, logger *log.Logger) *Tools {
	return &Tools{
		db:      db,
		logger:  logger,
		Workers: defaultWorkers,
	}
}

func (t *Tools) open(name, mode string) (*tga.TGA, error) {
	return tga.Open(name, mode, tga.WithLogger(t.logger))
}

// copyHeader returns the header for writing d, as read from an image with
// header src, to a new file. 15 and 16-bit data has been expanded to 24 bits
// by the time it is in d.
func copyHeader(src tga.Header, d *tga.Data) tga.Header {
	h := src
	h.Type = d.Type
	h.Depth = d.Depth
	if d.Has(tga.ColorMap) {
		h.MapEntry = d.MapEntry
	}
	if d.Depth != src.Depth {
		h.Alpha = 0
	}
	return h
}
