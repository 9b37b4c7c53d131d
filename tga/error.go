package tga

import "fmt"

// Code classifies a failure. The numbering matches libtga's TGA_* status
// codes.
type Code int

// Status codes
const (
	OK                   Code = 1
	OutOfMemory          Code = 2
	OpenFailure          Code = 3
	SeekFailure          Code = 4
	ReadFailure          Code = 5
	WriteFailure         Code = 6
	Generic              Code = 7
	Warning              Code = 8
	UnknownFormat        Code = 9
	UnsupportedSubFormat Code = 10
)

var codeStrings = [...]string{
	"Success",
	"Out of memory",
	"Failed to open file",
	"Seek failed",
	"Read failed",
	"Write failed",
	"Error",
	"Warning",
	"Unknown format",
	"Unknown sub-format",
}

// StrError returns the message for code. Codes outside the known range map
// to the Generic message.
func StrError(code Code) string {
	if code < OK || int(code) > len(codeStrings) {
		code = Generic
	}
	return codeStrings[code-1]
}

func (c Code) String() string {
	return StrError(c)
}

// Error makes a Code usable as a target for errors.Is.
func (c Code) Error() string {
	return "tga: " + StrError(c)
}

// Fatal reports whether a failure of this kind leaves the handle unusable for
// the current operation. Only Warning and OK are recoverable.
func (c Code) Fatal() bool {
	return c != OK && c != Warning
}

// Error is returned by every failing operation on a TGA handle.
type Error struct {
	Op   string
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tga: %s: %s: %v", e.Op, StrError(e.Code), e.Err)
	}
	return fmt.Sprintf("tga: %s: %s", e.Op, StrError(e.Code))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a bare Code so callers can write errors.Is(err, tga.SeekFailure).
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// CodeOf returns the Code carried by err, OK for a nil error and Generic for
// errors that did not originate in this package.
func CodeOf(err error) Code {
	switch e := err.(type) {
	case nil:
		return OK
	case *Error:
		return e.Code
	case Code:
		return e
	}
	return Generic
}

// ErrorHandler is notified of every failure recorded on a handle before the
// default handling, which logs it, takes place.
type ErrorHandler interface {
	HandleError(t *TGA, err *Error)
}

// ErrorHandlerFunc adapts an ordinary function to ErrorHandler.
type ErrorHandlerFunc func(*TGA, *Error)

// HandleError calls f(t, err).
func (f ErrorHandlerFunc) HandleError(t *TGA, err *Error) {
	f(t, err)
}
