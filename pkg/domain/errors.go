package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownDistinguisher is returned when a distinguisher mode is not one of
// legacy, full_hash, diff_to_affected or off.
var ErrUnknownDistinguisher = errors.New("unknown exec configuration distinguisher")

// ErrMissingFragment is returned when a fragment required by a transition is
// absent from the configuration it was handed.
var ErrMissingFragment = errors.New("required fragment missing")

// ErrUnknownFragment is returned when a fragment kind has no registered model.
var ErrUnknownFragment = errors.New("unknown fragment kind")

// ErrConfigurationNotFound is returned when a configuration key cannot be found in the store.
var ErrConfigurationNotFound = errors.New("configuration not found")

// ModeError reports a distinguisher value that failed to parse.
type ModeError struct {
	Value string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("invalid distinguisher %q: must be one of %s", e.Value, modeList())
}

func (e *ModeError) Unwrap() error {
	return ErrUnknownDistinguisher
}

// FragmentError ties a failure to the fragment kind it concerns.
type FragmentError struct {
	Kind FragmentKind
	Err  error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("fragment %q: %v", e.Kind, e.Err)
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}
