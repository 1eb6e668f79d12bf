package object

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("object not found")
	ErrCorruptObject   = errors.New("corrupt object")
	ErrMalformedHeader = errors.New("malformed object header")
	ErrTruncatedObject = errors.New("truncated object")
	ErrWrongKind       = errors.New("wrong object kind")
	ErrIO              = errors.New("object i/o failure")
	ErrInvalidHash     = errors.New("invalid object hash")
)

// Error carries the operation, object and path involved in a store failure.
// Err is normally wrapped around one of the sentinels above so callers can
// classify it with errors.Is.
type Error struct {
	Op   string
	Hash Hash
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.Op)
	if !e.Hash.IsZero() {
		b.WriteByte(' ')
		b.WriteString(e.Hash.String())
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindError reports an object whose type differs from the one the caller
// required.
type KindError struct {
	Hash Hash
	Want ObjectType
	Got  ObjectType
}

func (e *KindError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("object %s: %s: want %s, found %s", e.Hash, ErrWrongKind, e.Want, e.Got)
}

func (e *KindError) Is(target error) bool {
	return target == ErrWrongKind
}

// ioError tags a filesystem failure as ErrIO while keeping the original
// error reachable for errors.Is(err, fs.ErrPermission) and friends.
type ioError struct {
	err error
}

func (e *ioError) Error() string { return e.err.Error() }

func (e *ioError) Unwrap() []error { return []error{ErrIO, e.err} }

// WrapIO tags err as ErrIO. The original error stays reachable through
// errors.Is and errors.As. A nil err stays nil.
func WrapIO(err error) error {
	if err == nil {
		return nil
	}
	return &ioError{err: err}
}
