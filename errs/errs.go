// Package errs defines the sentinel errors returned by the psb codec, grouped
// by the failure taxonomy the format distinguishes: malformed framing, bad
// references into a table, and structural violations of the value tree.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers should compare against these with errors.Is,
// since every returned error is wrapped in a *PsbError that carries
// additional context.
var (
	// ErrIO wraps an underlying read/write/seek failure from the stream.
	ErrIO = errors.New("psb: io error")

	// ErrInvalidFile indicates a signature mismatch on a PSB or MDF stream.
	ErrInvalidFile = errors.New("psb: invalid file signature")

	// ErrInvalidHeader indicates a malformed fixed-size PSB header.
	ErrInvalidHeader = errors.New("psb: invalid header")

	// ErrUnknownHeaderVersion indicates a header version outside 1..=4.
	ErrUnknownHeaderVersion = errors.New("psb: unknown header version")

	// ErrInvalidIndex indicates a reference handle out of range for its table.
	ErrInvalidIndex = errors.New("psb: reference index out of range")

	// ErrInvalidValue indicates an unknown opcode or malformed number encoding.
	ErrInvalidValue = errors.New("psb: invalid value encoding")

	// ErrInvalidRoot indicates the root value was not an Object.
	ErrInvalidRoot = errors.New("psb: root value is not an object")

	// ErrInvalidOffsetTable indicates a malformed offset/length array or a
	// dangling object key reference.
	ErrInvalidOffsetTable = errors.New("psb: invalid offset table")

	// ErrDuplicateKey indicates an Object would contain the same key twice.
	ErrDuplicateKey = errors.New("psb: duplicate object key")

	// ErrKeyContainsNUL indicates an Object key contains a NUL byte, which
	// cannot round-trip through the NUL-terminated name encoding.
	ErrKeyContainsNUL = errors.New("psb: object key contains NUL byte")
)

// Error wraps a sentinel error with an optional underlying cause and
// free-form context, mirroring the kind+cause shape of the original
// format's error type while following Go's error-wrapping conventions.
type Error struct {
	Kind    error
	Context string
	Cause   error
}

// New creates an Error of the given kind with context.
func New(kind error, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Wrap creates an Error of the given kind, wrapping cause.
func Wrap(kind error, context string, cause error) *Error {
	return &Error{Kind: kind, Context: context, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Context != "" {
			return fmt.Sprintf("%s: %s: %s", e.Kind, e.Context, e.Cause)
		}

		return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
	}

	if e.Context != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Context)
	}

	return e.Kind.Error()
}

// Unwrap returns the sentinel kind so errors.Is(err, errs.ErrInvalidValue)
// works regardless of context or cause.
func (e *Error) Unwrap() error {
	return e.Kind
}

// IO wraps a stream error as ErrIO with the given context.
func IO(context string, cause error) error {
	if cause == nil {
		return nil
	}

	return Wrap(ErrIO, context, cause)
}
