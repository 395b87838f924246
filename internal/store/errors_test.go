package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_IsMatchesVariants(t *testing.T) {
	wrapped := fmt.Errorf("get session: %w", ErrReadingSessionNotFound)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("expected %v to match ErrNotFound", wrapped)
	}
	if errors.Is(wrapped, ErrAlreadyExists) {
		t.Fatalf("did not expect %v to match ErrAlreadyExists", wrapped)
	}
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrInvalidInput.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be unwrapped")
	}
	if err.HTTPCode() != http.StatusBadRequest {
		t.Errorf("HTTPCode: got %d, want %d", err.HTTPCode(), http.StatusBadRequest)
	}
	if got, want := err.Error(), "invalid input: disk full"; got != want {
		t.Errorf("Error: got %q, want %q", got, want)
	}
}
