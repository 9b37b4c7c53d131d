package libtga

import (
	"fmt"
	"io"
	"os"
)

// CheckOptions controls which parts of a file Check examines.
type CheckOptions struct {
	// SkipData skips decoding the pixel data
	SkipData bool
}

// CheckResult is the outcome of a single check.
type CheckResult struct {
	OK      bool
	Message string
}

// Report collects the results of checking one file.
type Report struct {
	Name    string
	Size    int64
	Results []CheckResult
}

func (r *Report) check(ok bool, format string, a ...interface{}) bool {
	r.Results = append(r.Results, CheckResult{
		OK:      ok,
		Message: fmt.Sprintf(format, a...),
	})
	return ok
}

func (r *Report) checkErr(err error, what string) bool {
	if err != nil {
		return r.check(false, "%s: %v", what, err)
	}
	return r.check(true, "%s", what)
}

// Failed returns the number of failed checks.
func (r *Report) Failed() int {
	var n int
	for _, c := range r.Results {
		if !c.OK {
			n++
		}
	}
	return n
}

// WriteTo writes the report in a checklist format.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, c := range r.Results {
		mark := ' '
		if c.OK {
			mark = 'x'
		}
		n, err := fmt.Fprintf(w, "[%c] %s\n", mark, c.Message)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	summary := "Everything ok!"
	if f := r.Failed(); f > 0 {
		summary = fmt.Sprintf("%d check(s) failed!", f)
	}
	n, err := fmt.Fprintln(w, summary)
	total += int64(n)
	return total, err
}

func mapDepthOK(d uint8) bool {
	switch d {
	case 15, 16, 24, 32:
		return true
	}
	return false
}

// Check runs a series of sanity checks over the file name. An error is only
// returned if the file cannot be opened at all.
func (t *Tools) Check(name string, opts CheckOptions) (*Report, error) {
	r := &Report{Name: name}

	in, err := t.open(name, "r")
	if err != nil {
		return nil, err
	}
	defer in.Close()

	if !r.checkErr(in.ReadHeader(), "read header") {
		return r, nil
	}

	h := in.Header
	mapped := h.IsMapped()
	hasData := h.Type.HasData()

	r.check(true, "id length = %d", h.IDLength)

	r.check(h.MapType <= 1, "color map type = %d", h.MapType)
	if mapped {
		r.check(h.MapLen > 0, "color map length = %d", h.MapLen)
		r.check(h.MapFirst < h.MapLen, "color map first = %d", h.MapFirst)
		r.check(h.Type.IsMapped(), "image type = %d is color mapped", h.Type)
		r.check(mapDepthOK(h.MapEntry), "color map depth = %d", h.MapEntry)
	}

	r.check(h.Type.Known(), "image type = %d (%s)", h.Type, h.Type)
	if hasData {
		r.check(h.Depth != 0, "image depth = %d", h.Depth)
		r.check(h.Width > 0 && h.Height > 0, "image size = %dx%d", h.Width, h.Height)
	}
	r.check(h.Alpha <= 8, "alpha bits = %d", h.Alpha)

	if h.IDLength > 0 {
		id, err := in.ReadImageID()
		r.checkErr(err, "read image id")
		r.check(len(id) == int(h.IDLength), "image id has %d bytes", len(id))
	}

	if mapped {
		cmap, err := in.ReadColorMap(0)
		r.checkErr(err, "read color map")
		r.check(cmap != nil, "color map present")
	}

	if hasData && !opts.SkipData {
		p := make([]byte, int(h.Height)*in.DecodedScanlineSize())
		n, err := in.ReadScanlines(p, 0, int(h.Height), 0)
		r.checkErr(err, "read scanlines")
		r.check(n == int(h.Height), "read %d of %d scanlines", n, h.Height)
	}

	info, err := os.Stat(name)
	if !r.checkErr(err, "stat") {
		return r, nil
	}
	r.Size = info.Size()

	want := h.DataOffset()
	if hasData && !h.Type.IsEncoded() {
		want += int64(h.DataSize())
	}
	r.check(r.Size >= want, "size = %d bytes, at least %d expected", r.Size, want)

	return r, nil
}
