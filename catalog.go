package libtga

import (
	"database/sql"
	"fmt"

	"github.com/madebr/libtga/tga"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one cataloged image.
type Entry struct {
	Path     string
	Size     int64
	CRC      string
	IDLength uint8
	MapType  uint8
	Type     tga.ImageType
	MapLen   uint16
	MapEntry uint8
	Width    uint16
	Height   uint16
	Depth    uint8
}

func newEntry(path string, size int64, crc string, h tga.Header) Entry {
	return Entry{
		Path:     path,
		Size:     size,
		CRC:      crc,
		IDLength: h.IDLength,
		MapType:  h.MapType,
		Type:     h.Type,
		MapLen:   h.MapLen,
		MapEntry: h.MapEntry,
		Width:    h.Width,
		Height:   h.Height,
		Depth:    h.Depth,
	}
}

// Catalog is a sqlite database of image headers.
type Catalog struct {
	db *sql.DB
}

// NewCatalog opens, creating if necessary, the catalog stored in file.
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer, serialize the index workers here
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, size INTEGER NOT NULL, crc TEXT NOT NULL, id_len INTEGER NOT NULL, map_type INTEGER NOT NULL, image_type INTEGER NOT NULL, map_len INTEGER NOT NULL, map_entry INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, depth INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS image_crc ON image (crc)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add stores e, replacing any existing entry for the same path.
func (c *Catalog) Add(e Entry) error {
	if _, err := c.db.Exec("INSERT OR REPLACE INTO image (path, size, crc, id_len, map_type, image_type, map_len, map_entry, width, height, depth) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", e.Path, e.Size, e.CRC, e.IDLength, e.MapType, e.Type, e.MapLen, e.MapEntry, e.Width, e.Height, e.Depth); err != nil {
		return err
	}
	return nil
}

// Remove deletes the entry for path, if any.
func (c *Catalog) Remove(path string) error {
	_, err := c.db.Exec("DELETE FROM image WHERE path = ?", path)
	return err
}

const selectEntry = "SELECT path, size, crc, id_len, map_type, image_type, map_len, map_entry, width, height, depth FROM image"

type scanner interface {
	Scan(...interface{}) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	err := s.Scan(&e.Path, &e.Size, &e.CRC, &e.IDLength, &e.MapType, &e.Type, &e.MapLen, &e.MapEntry, &e.Width, &e.Height, &e.Depth)
	return e, err
}

// Find returns the entry for path or nil if there is none.
func (c *Catalog) Find(path string) (*Entry, error) {
	e, err := scanEntry(c.db.QueryRow(selectEntry+" WHERE path = ?", path))
	switch err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return &e, nil
	default:
		return nil, err
	}
}

func (c *Catalog) query(query string, args ...interface{}) ([]Entry, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// FindByCRC returns every entry whose file has the given checksum.
func (c *Catalog) FindByCRC(crc string) ([]Entry, error) {
	return c.query(selectEntry+" WHERE crc = ? ORDER BY path", crc)
}

// List returns every entry ordered by path.
func (c *Catalog) List() ([]Entry, error) {
	return c.query(selectEntry + " ORDER BY path")
}

// Length returns the number of entries.
func (c *Catalog) Length() (int, error) {
	var n int
	err := c.db.QueryRow("SELECT COUNT(*) FROM image").Scan(&n)
	return n, err
}
