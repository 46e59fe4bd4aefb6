package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Load-time errors, fatal at startup
	ErrDataFormat = errors.New("malformed dataset")

	// Configuration errors
	ErrConfig           = errors.New("invalid configuration")
	ErrNoControlGroup   = errors.New("no control group in dataset")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Retrieval errors
	ErrNotFound         = errors.New("resource not found")
	ErrResolutionFailed = errors.New("index hit could not be resolved to a record")
	ErrInvalidMetric    = errors.New("unknown ranking metric")
	ErrInvalidField     = errors.New("unknown filter field")

	// External collaborator errors
	ErrGeneration = errors.New("answer generation failed")
	ErrEmbedding  = errors.New("text embedding failed")
)

// Error constructors with context
func NewDataFormatError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDataFormat, reason)
}

func NewConfigError(reason string) error {
	return fmt.Errorf("%w: %s", ErrConfig, reason)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewResolutionError(id RecordID) error {
	return fmt.Errorf("%w: %s", ErrResolutionFailed, id)
}

func NewInvalidMetricError(metric string, known []string) error {
	return fmt.Errorf("%w: %q (known: %v)", ErrInvalidMetric, metric, known)
}

func NewInvalidFieldError(field string, known []string) error {
	return fmt.Errorf("%w: %q (known: %v)", ErrInvalidField, field, known)
}

func NewInsufficientDataError(group string, n int) error {
	return fmt.Errorf("%w: group %s has %d samples, need at least 2", ErrInsufficientData, group, n)
}

// Error checking helpers
func IsDataFormatError(err error) bool {
	return errors.Is(err, ErrDataFormat)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsResolutionError(err error) bool {
	return errors.Is(err, ErrResolutionFailed)
}
