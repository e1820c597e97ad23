// Package errs defines the error kinds shared by the piece store, the
// lifecycle controller and the API client.
//
// Each kind is a concrete type carrying detail plus a sentinel it matches
// through errors.Is, so callers can branch on the kind without a type switch:
//
//	if errors.Is(err, errs.ErrNotFound) { ... }
package errs

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrTransport  = errors.New("transport failure")
)

// ValidationError reports a missing or malformed field on creation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Required returns the ValidationError for an absent required field.
func Required(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "is required"}
}

// NotFoundError reports an operation on a piece that does not exist or is no
// longer pending.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return "piece " + strconv.FormatInt(e.ID, 10) + " not found or already fired"
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransportError wraps a communication failure between a client and a remote
// piece store.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
