package report

import (
	"errors"
	"fmt"
)

// DataUnavailableError the input source could not be read. Recoverable:
// the worker requeues the request once with a backoff before giving up.
type DataUnavailableError struct {
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable: %s: %v", e.Source, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// GenerationError the input was malformed. Not retried.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %s", e.Reason)
}

// DeliveryError a destination could not be reached. Transient, retried
// by the dispatcher up to the configured budget.
type DeliveryError struct {
	Destination string
	Err         error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Destination, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsDataUnavailable reports whether err is a DataUnavailableError
func IsDataUnavailable(err error) bool {
	var target *DataUnavailableError
	return errors.As(err, &target)
}

// IsGeneration reports whether err is a GenerationError
func IsGeneration(err error) bool {
	var target *GenerationError
	return errors.As(err, &target)
}

// IsDelivery reports whether err is a DeliveryError
func IsDelivery(err error) bool {
	var target *DeliveryError
	return errors.As(err, &target)
}
