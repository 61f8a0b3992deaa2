package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a rejected entity payload or request parameter.
	ErrValidation = errors.New("validation failed")
	// ErrVectorization signals an embedding or vector index write failure.
	ErrVectorization = errors.New("vectorization failed")
	// ErrNotFound signals a missing entity record.
	ErrNotFound = errors.New("not found")
	// ErrOwnership signals a mutation by an identity that does not own the entity.
	ErrOwnership = errors.New("not the owner of this entity")
	// ErrInconsistentState signals a ranking entry whose record is gone from the document store.
	ErrInconsistentState = errors.New("inconsistent state")
	// ErrDeadlineParse signals an application deadline that could not be parsed.
	ErrDeadlineParse = errors.New("deadline parse failed")
	// ErrNotVectorized signals a source entity with no stored vectors.
	ErrNotVectorized = errors.New("entity has no vectors")
	// ErrUnauthenticated signals missing or invalid credentials at the HTTP boundary.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// ValidationError names the offending field. Unwraps to ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a field-level validation error.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
