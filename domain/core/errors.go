package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Source errors
	ErrDatasetMissing = errors.New("dataset missing")
	ErrSchemaMismatch = errors.New("dataset does not match declared schema")

	// Analysis precondition errors
	ErrInsufficientFeatures = errors.New("insufficient features for analysis")
	ErrInsufficientSamples  = errors.New("insufficient samples for analysis")
	ErrUnknownColumn        = errors.New("unknown column")
	ErrColumnType           = errors.New("column has the wrong type")
	ErrInvalidParameter     = errors.New("invalid parameter")
)

// DatasetMissingError names the dataset whose backing source is absent.
type DatasetMissingError struct {
	Name   string
	Source string
}

func (e *DatasetMissingError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%v: %s", ErrDatasetMissing, e.Name)
	}
	return fmt.Sprintf("%v: %s (looked in %s)", ErrDatasetMissing, e.Name, e.Source)
}

func (e *DatasetMissingError) Unwrap() error { return ErrDatasetMissing }

// Error constructors with context
func NewDatasetMissingError(name, source string) error {
	return &DatasetMissingError{Name: name, Source: source}
}

func NewUnknownColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
}

func NewColumnTypeError(column, want string) error {
	return fmt.Errorf("%w: %q is not %s", ErrColumnType, column, want)
}

func NewInsufficientFeaturesError(usable, required int) error {
	return fmt.Errorf("%w: %d usable numeric columns, need at least %d", ErrInsufficientFeatures, usable, required)
}

func NewInsufficientSamplesError(what string, got, required int) error {
	return fmt.Errorf("%w: %s has %d observations, need at least %d", ErrInsufficientSamples, what, got, required)
}

func NewInvalidParameterError(name, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidParameter, name, reason)
}

// Error checking helpers
func IsDatasetMissing(err error) bool {
	return errors.Is(err, ErrDatasetMissing)
}

// IsPreconditionError reports errors that disable a single artifact
// rather than a whole page.
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrInsufficientFeatures) ||
		errors.Is(err, ErrInsufficientSamples)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrUnknownColumn) ||
		errors.Is(err, ErrColumnType) ||
		errors.Is(err, ErrInvalidParameter)
}
