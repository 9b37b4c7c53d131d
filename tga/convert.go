package tga

import "errors"

var errOddLength = errors.New("tga: 16-bit pixel data has an odd length")

// canSwap reports whether pixels of depth d have separate red and blue bytes.
func canSwap(d uint8) bool {
	return d == 24 || d == 32
}

// isPacked reports whether pixels of depth d are packed 5-5-5 values.
func isPacked(d uint8) bool {
	return d == 15 || d == 16
}

// SwapChannels exchanges the first and third byte of every stride sized
// pixel in b, converting between BGR(A) and RGB(A) in place. Only strides of
// 3 and 4 are meaningful, any other stride leaves b untouched.
func SwapChannels(b []byte, stride int) {
	if stride != 3 && stride != 4 {
		return
	}
	for i := 0; i+stride <= len(b); i += stride {
		b[i], b[i+2] = b[i+2], b[i]
	}
}

// Expand16To24 unpacks little-endian 5-5-5 pixels into one byte per channel,
// keeping the file's blue, green, red order. Each output byte holds a value
// in the range 0-31 and the result is one and a half times the size of b.
func Expand16To24(b []byte) ([]byte, error) {
	if len(b)%2 != 0 {
		return nil, errOddLength
	}
	out := make([]byte, len(b)/2*3)
	for i, j := 0, 0; i < len(b); i, j = i+2, j+3 {
		v := Uint16(b[i:])
		out[j+0] = byte(v & 0x1f)
		out[j+1] = byte(v >> 5 & 0x1f)
		out[j+2] = byte(v >> 10 & 0x1f)
	}
	return out, nil
}

// decodedDepth returns the depth of pixels of depth d once read into memory.
func decodedDepth(d uint8) uint8 {
	if isPacked(d) {
		return 24
	}
	return d
}

// transcode converts raw pixels of the given stored depth into their
// in-memory form, expanding packed pixels and applying the requested channel
// order. The returned slice may alias raw.
func transcode(raw []byte, depth uint8, flags Flag) ([]byte, error) {
	out := raw
	if isPacked(depth) {
		var err error
		if out, err = Expand16To24(raw); err != nil {
			return nil, err
		}
	}
	if flags.swap() && canSwap(decodedDepth(depth)) {
		SwapChannels(out, int(decodedDepth(depth))/8)
	}
	return out, nil
}
