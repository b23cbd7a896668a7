// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidName is returned when a claim name cannot be encoded for the backend.
	ErrInvalidName = errors.New("invalid claim name")
	// ErrResourceCreation is returned when the OS refuses to create, open, bind or lock
	// the resource backing a claim.
	ErrResourceCreation = errors.New("claim resource creation failed")
	// ErrMutex is returned on windows when CreateMutex hands back an unusable handle.
	ErrMutex = errors.New("mutex creation failed")
	// ErrUnsupportedBackend is returned when a backend is not available on this platform.
	ErrUnsupportedBackend = errors.New("claim backend not supported on this platform")
)

// Kind tags the variant carried by an Error.
type Kind int

const (
	KindInvalidName Kind = iota + 1
	KindResourceCreation
	KindMutex
	KindUnsupported
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidName:
		return ErrInvalidName
	case KindResourceCreation:
		return ErrResourceCreation
	case KindMutex:
		return ErrMutex
	case KindUnsupported:
		return ErrUnsupportedBackend
	}
	return nil
}

// Error is the error type returned by every Acquirer. Callers match the
// variant with errors.Is against the Err* sentinels, and reach the
// underlying OS error through errors.As or errors.Unwrap.
type Error struct {
	Kind    Kind
	Backend Backend
	Name    string
	// Op is the failing step, e.g. "socket", "bind", "open", "lock".
	Op string
	// Code is the raw OS error code. Only set for KindMutex.
	Code uint32
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s claim %q: ", e.Backend, e.Name)
	switch e.Kind {
	case KindMutex:
		fmt.Fprintf(&b, "CreateMutex failed with error code %d", e.Code)
		return b.String()
	case KindInvalidName:
		b.WriteString(ErrInvalidName.Error())
	case KindUnsupported:
		b.WriteString(ErrUnsupportedBackend.Error())
	default:
		b.WriteString(e.Op)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// InvalidNameError builds a KindInvalidName error.
func InvalidNameError(backend Backend, name string, reason error) error {
	return &Error{Kind: KindInvalidName, Backend: backend, Name: name, Err: reason}
}

// ResourceError builds a KindResourceCreation error for the failing op.
func ResourceError(backend Backend, name, op string, err error) error {
	return &Error{Kind: KindResourceCreation, Backend: backend, Name: name, Op: op, Err: err}
}

// UnsupportedError builds a KindUnsupported error.
func UnsupportedError(backend Backend, name string) error {
	return &Error{Kind: KindUnsupported, Backend: backend, Name: name}
}

var (
	errEmptyName = errors.New("name is empty")
	errNotUTF8   = errors.New("name is not valid UTF-8")
	errNulInName = errors.New("name contains a NUL byte")
)

// ValidateName checks the encoding rules shared by every backend: the name
// must be non-empty UTF-8 without NUL bytes.
func ValidateName(backend Backend, name string) error {
	switch {
	case name == "":
		return InvalidNameError(backend, name, errEmptyName)
	case !utf8.ValidString(name):
		return InvalidNameError(backend, name, errNotUTF8)
	case strings.IndexByte(name, 0) >= 0:
		return InvalidNameError(backend, name, errNulInName)
	}
	return nil
}
