package models

import (
	"errors"
	"fmt"
)

// Error taxonomy for a simulation run. Callers match with errors.Is.
var (
	// ErrInvalidConfiguration marks bad input parameters. Fatal, reported
	// before any round executes.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDegenerateElection marks a round in which every coalition is empty.
	// Recoverable: the round is recorded and the run continues.
	ErrDegenerateElection = errors.New("degenerate election")

	// ErrNumericalInstability marks an impossible intermediate value such as a
	// coalition larger than the electorate. Fatal.
	ErrNumericalInstability = errors.New("numerical instability")
)

// ConfigError names the parameter that violated its constraint.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidConfiguration.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// InvalidConfig builds a ConfigError with a formatted reason.
func InvalidConfig(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
