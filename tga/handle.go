package tga

import (
	"errors"
	"io"
	"log"
	"os"
)

var errBadMode = errors.New("tga: unknown open mode")

// File is the backing store of a handle. *os.File satisfies it.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
}

// TGA is an open image. It is not safe for concurrent use.
type TGA struct {
	// Header is the image header. It is filled in by ReadHeader and
	// persisted by WriteHeader.
	Header Header

	name string
	f    File
	off  int64
	last *Error

	// Next scanline and its offset when RLE data is being transferred
	// sequentially
	rleLine int
	rleOff  int64

	handler ErrorHandler
	logger  *log.Logger
}

// Option configures a handle.
type Option func(*TGA)

// WithLogger sets the logger the default error handling writes to.
func WithLogger(l *log.Logger) Option {
	return func(t *TGA) {
		t.logger = l
	}
}

// WithErrorHandler installs h to be notified of every failure.
func WithErrorHandler(h ErrorHandler) Option {
	return func(t *TGA) {
		t.handler = h
	}
}

func modeFlags(mode string) (int, error) {
	switch mode {
	case "r", "rb":
		return os.O_RDONLY, nil
	case "w", "wb":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "r+", "rb+", "r+b":
		return os.O_RDWR, nil
	case "w+", "wb+", "w+b":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	}
	return 0, errBadMode
}

// Open opens the named file using an fopen(3) style mode, one of "r", "w",
// "r+" or "w+". On failure no handle is returned and the error carries the
// OpenFailure code.
func Open(name, mode string, opts ...Option) (*TGA, error) {
	flag, err := modeFlags(mode)
	if err != nil {
		return nil, &Error{Op: "open", Code: OpenFailure, Err: err}
	}

	f, err := os.OpenFile(name, flag, 0666)
	if err != nil {
		return nil, &Error{Op: "open", Code: OpenFailure, Err: err}
	}

	return New(name, f, opts...), nil
}

// New returns a handle reading and writing f, which is assumed to be
// positioned at offset zero.
func New(name string, f File, opts ...Option) *TGA {
	t := &TGA{
		name:   name,
		f:      f,
		logger: log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Name returns the name the handle was opened with.
func (t *TGA) Name() string {
	return t.name
}

// Close releases the backing store if it implements io.Closer.
func (t *TGA) Close() error {
	if c, ok := t.f.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return &Error{Op: "close", Code: Generic, Err: err}
		}
	}
	return nil
}

// Err returns the error recorded by the most recent operation, or nil if it
// succeeded.
func (t *TGA) Err() error {
	if t.last == nil {
		return nil
	}
	return t.last
}

// Last returns the status code of the most recent operation.
func (t *TGA) Last() Code {
	if t.last == nil {
		return OK
	}
	return t.last.Code
}

// ClearError resets the recorded status to OK.
func (t *TGA) ClearError() {
	t.last = nil
}

// Offset returns the tracked offset into the backing store.
func (t *TGA) Offset() int64 {
	return t.off
}

func (t *TGA) fail(op string, code Code, err error) error {
	e := &Error{Op: op, Code: code, Err: err}
	t.last = e
	if t.handler != nil {
		t.handler.HandleError(t, e)
	}
	t.logger.Printf("%s: %v", t.name, e)
	return e
}

func (t *TGA) ok() {
	t.last = nil
}

// Seek moves to the absolute offset off. The seek is skipped when the tracked
// offset already matches, otherwise the resulting position is verified.
func (t *TGA) Seek(off int64) error {
	if t.off == off {
		return nil
	}
	pos, err := t.f.Seek(off, io.SeekStart)
	if err != nil {
		// The real position is unknown, make sure the next seek happens
		t.off = -1
		return t.fail("seek", SeekFailure, err)
	}
	t.off = pos
	if pos != off {
		return t.fail("seek", SeekFailure, nil)
	}
	return nil
}

func (t *TGA) read(op string, b []byte) error {
	n, err := io.ReadFull(t.f, b)
	t.off += int64(n)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return t.fail(op, ReadFailure, err)
	}
	return nil
}

func (t *TGA) write(op string, b []byte) error {
	n, err := t.f.Write(b)
	t.off += int64(n)
	if err == nil && n != len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return t.fail(op, WriteFailure, err)
	}
	return nil
}
