package finance

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is matched by every InvalidInputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownTier is matched by every UnknownTierError.
	ErrUnknownTier = errors.New("unknown tier")
)

// InvalidInputError reports a numeric argument outside its allowed domain.
// It is a caller bug and never worth retrying.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// UnknownTierError reports a winner tier that is not part of the configured tier shares.
type UnknownTierError struct {
	Tier string
}

func (e *UnknownTierError) Error() string {
	return fmt.Sprintf("unknown prize tier %q", e.Tier)
}

func (e *UnknownTierError) Is(target error) bool {
	return target == ErrUnknownTier
}

func invalid(field string, value interface{}, reason string) error {
	return &InvalidInputError{Field: field, Value: fmt.Sprint(value), Reason: reason}
}
