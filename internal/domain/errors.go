// Package domain holds the error taxonomy shared by every docportal component.
package domain

import (
	"errors"
	"fmt"
)

// Each failure kind has exactly one sentinel. Components wrap the sentinel
// together with the original cause, so callers match on kind with errors.Is
// and still reach the underlying error.
var (
	// ErrValidation indicates bad caller input: an empty upload set, a bad
	// file type combination, an unsafe session id or invalid parameters.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedFile marks a file whose extension is not accepted.
	// Ingestion skips such files instead of failing.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrEncryptedDocument indicates a document that cannot be opened
	// because it is encrypted.
	ErrEncryptedDocument = errors.New("document is encrypted")

	// ErrEmptyIngestion indicates that no document yielded usable text.
	ErrEmptyIngestion = errors.New("no usable text in uploaded documents")

	// ErrIndexNotFound indicates that a location holds no valid persisted index.
	ErrIndexNotFound = errors.New("index not found")

	// ErrDimensionMismatch indicates a vector whose dimension differs from
	// the dimension of the index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrResponseFormat indicates model output that failed schema parsing
	// and repair.
	ErrResponseFormat = errors.New("model response does not match schema")

	// ErrProvider indicates an embedding or language model failure,
	// including missing credentials.
	ErrProvider = errors.New("provider call failed")
)

// DimensionMismatchError reports the expected and actual vector dimension.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: index has %d, got %d", ErrDimensionMismatch, e.Want, e.Got)
}

// Is makes errors.Is(err, ErrDimensionMismatch) hold.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// Wrap annotates cause with a failure kind and a message. The result matches
// both kind and cause with errors.Is. A nil cause yields kind plus message.
func Wrap(kind error, cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if cause == nil {
		return fmt.Errorf("%w: %s", kind, msg)
	}
	if errors.Is(cause, kind) {
		return fmt.Errorf("%s: %w", msg, cause)
	}
	return fmt.Errorf("%w: %s: %w", kind, msg, cause)
}
