package tierkv

import (
	"errors"
	"fmt"
)

var ErrNoTiers = errors.New("tierkv: at least one tier is required")

// ConfigurationError reports an invalid construction.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tierkv: configuration: %s: %v", e.Reason, e.Err)
	}
	return "tierkv: configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// FatalError marks a failure that must never be contained, even when it
// comes from a cache tier.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "fatal: " + e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err so the default rescue set lets it propagate. Nil stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
