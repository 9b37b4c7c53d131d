package tga

import (
	"bytes"
	"errors"
	"io"
)

// Packets carry at most this many pixels.
const maxRun = 128

var (
	errTruncatedPacket = errors.New("tga: run-length packet truncated")
	errPixelSize       = errors.New("tga: run-length pixels must be 1 to 4 bytes")
)

// RLEReader is what DecodeRLE consumes packets from.
type RLEReader interface {
	io.Reader
	io.ByteReader
}

// DecodeRLE fills dst with one run-length encoded scanline read from r. The
// scanline is len(dst)/bpp pixels wide. A packet that runs past the end of
// the scanline is cut short, runs never continue onto the next scanline.
func DecodeRLE(r RLEReader, dst []byte, bpp int) error {
	if bpp < 1 || bpp > 4 {
		return errPixelSize
	}

	var (
		repeat, direct int
		sample         [4]byte
	)

	for x := 0; x+bpp <= len(dst); x += bpp {
		if repeat == 0 && direct == 0 {
			head, err := r.ReadByte()
			if err != nil {
				return unexpected(err)
			}
			if head >= maxRun {
				repeat = int(head) - maxRun + 1
				if _, err := io.ReadFull(r, sample[:bpp]); err != nil {
					return unexpected(err)
				}
			} else {
				direct = int(head) + 1
			}
		}

		if repeat > 0 {
			copy(dst[x:x+bpp], sample[:bpp])
			repeat--
		} else {
			if _, err := io.ReadFull(r, dst[x:x+bpp]); err != nil {
				return unexpected(err)
			}
			direct--
		}
	}

	return nil
}

func unexpected(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errTruncatedPacket
	}
	return err
}

// EncodeRLE appends the run-length encoding of one scanline to dst and
// returns the extended slice. Runs of identical pixels become repeat packets
// with a header of 128+n-1, everything else is grouped into direct packets
// with a header of n-1. A lone pixel is always written as a direct packet.
func EncodeRLE(dst, line []byte, bpp int) []byte {
	if bpp < 1 {
		return dst
	}
	n := len(line) / bpp
	px := func(i int) []byte {
		return line[i*bpp : (i+1)*bpp]
	}

	for i := 0; i < n; {
		j := i + 1
		for j < n && j-i < maxRun && bytes.Equal(px(i), px(j)) {
			j++
		}
		if j-i > 1 {
			dst = append(dst, byte(maxRun+j-i-1))
			dst = append(dst, px(i)...)
			i = j
			continue
		}

		// Extend the direct run up to the first pixel that starts a repeat
		for j < n && j-i < maxRun && !(j+1 < n && bytes.Equal(px(j), px(j+1))) {
			j++
		}
		dst = append(dst, byte(j-i-1))
		dst = append(dst, line[i*bpp:j*bpp]...)
		i = j
	}

	return dst
}
