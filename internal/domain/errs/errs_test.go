package errs_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/dalemusser/kilntrack/internal/domain/errs"
)

func TestKindsMatchSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"validation", errs.Required("title"), errs.ErrValidation},
		{"not found", &errs.NotFoundError{ID: 42}, errs.ErrNotFound},
		{"transport", &errs.TransportError{Op: "GET /pieces", Err: io.EOF}, errs.ErrTransport},
		{"wrapped validation", fmt.Errorf("create piece: %w", errs.Required("title")), errs.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.want)
			}
		})
	}
}

func TestKindsDoNotCrossMatch(t *testing.T) {
	if errors.Is(errs.Required("title"), errs.ErrNotFound) {
		t.Error("validation error should not match ErrNotFound")
	}
	if errors.Is(&errs.NotFoundError{ID: 1}, errs.ErrValidation) {
		t.Error("not found error should not match ErrValidation")
	}
}

func TestTransportErrorUnwraps(t *testing.T) {
	err := &errs.TransportError{Op: "POST /pieces", Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected TransportError to unwrap to its cause")
	}
	if got, want := err.Error(), "POST /pieces: unexpected EOF"; got != want {
		t.Errorf("Error(): got %q, want %q", got, want)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	if got, want := errs.Required("submittedBy.email").Error(), "submittedBy.email: is required"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	var ve *errs.ValidationError
	if !errors.As(fmt.Errorf("wrap: %w", errs.Required("title")), &ve) || ve.Field != "title" {
		t.Errorf("errors.As did not recover the field, got %+v", ve)
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	if got, want := (&errs.NotFoundError{ID: 7}).Error(), "piece 7 not found or already fired"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
