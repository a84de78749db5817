package model

import (
	"errors"
	"fmt"
)

// ValidationError reports an empty or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation on an unknown fund id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("fund %d not found", e.ID)
}

// PolicyError reports an operation the workflow rules forbid.
type PolicyError struct {
	ID     int64
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("fund %d: %s", e.ID, e.Reason)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsPolicy(err error) bool {
	var e *PolicyError
	return errors.As(err, &e)
}
