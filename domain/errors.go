package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCategory    = errors.New("unknown category")
	ErrInvalidRange       = errors.New("value out of range")
	ErrIncompleteArtifact = errors.New("incomplete model artifact")
)

// UnknownCategoryError reports a categorical value that is not part of a
// fitted mapping or criteria table.
type UnknownCategoryError struct {
	Column string
	Value  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for %s", e.Value, e.Column)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// RangeError reports an income or credit score outside meaningful bounds.
type RangeError struct {
	Field string
	Value float64
	Bound string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %v out of range: must be %s", e.Field, e.Value, e.Bound)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// IncompleteArtifactError reports a persisted model bundle missing a
// required component.
type IncompleteArtifactError struct {
	Missing string
}

func (e *IncompleteArtifactError) Error() string {
	return fmt.Sprintf("incomplete model artifact: missing %s", e.Missing)
}

func (e *IncompleteArtifactError) Unwrap() error { return ErrIncompleteArtifact }
