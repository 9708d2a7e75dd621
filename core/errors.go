package core

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// The error taxonomy of the object layer. Errors returned by this module
// wrap one of these sentinels, so callers test for them with errors.Is.
var (
	// ErrInvalidReference is returned when a reference that is not indirect
	// is used where an indirect one is required.
	ErrInvalidReference = errors.New("pdfobj: invalid reference")
	// ErrObjectNotFound is returned when an object number is absent from the
	// cross-reference table.
	ErrObjectNotFound = errors.New("pdfobj: object not found")
	// ErrGenerationMismatch marks an ErrObjectNotFound caused by a stale
	// generation number.
	ErrGenerationMismatch = errors.New("pdfobj: generation mismatch")
	// ErrTypeMismatch is returned by accessors invoked on the wrong variant.
	ErrTypeMismatch = errors.New("pdfobj: type mismatch")
	// ErrKeyNotFound is returned by dictionary lookups that miss.
	ErrKeyNotFound = errors.New("pdfobj: key not found")
	// ErrIndexOutOfRange is returned by array accesses outside [0, len).
	ErrIndexOutOfRange = errors.New("pdfobj: index out of range")
	// ErrImmutableViolation is returned by mutations of a locked object.
	ErrImmutableViolation = errors.New("pdfobj: object is immutable")
	// ErrUseAfterFinish is returned by any use of a handle or view after its
	// document has been finished.
	ErrUseAfterFinish = errors.New("pdfobj: use after finish")
)

// TypeMismatchError describes an accessor called against the wrong variant.
type TypeMismatchError struct {
	Ref  Ref
	Want string
	Got  ObjectType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("pdfobj: object %s: requested %s, have %s", e.Ref, e.Want, e.Got)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// IndexError describes an array access outside the current bounds.
type IndexError struct {
	Ref   Ref
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("pdfobj: object %s: index %d out of range [0,%d)", e.Ref, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// FinishedError carries the reference of an object accessed through a
// handle or view invalidated by Document.Finish.
type FinishedError struct {
	Ref Ref
}

func (e *FinishedError) Error() string {
	return fmt.Sprintf("pdfobj: object %s: use after finish", e.Ref)
}

func (e *FinishedError) Unwrap() error { return ErrUseAfterFinish }
