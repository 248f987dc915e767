package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	cause := stdErrors.New("database is locked")
	err := New("CHAIN_LOOKUP_FAILED", "Chain lookup failed", http.StatusInternalServerError).WithInternal(cause)

	if err.Error() != "Chain lookup failed: database is locked" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected internal error to be reachable")
	}
}

func TestWithInternalCopies(t *testing.T) {
	with := ErrNotFound.WithInternal(stdErrors.New("record not found"))

	if with == ErrNotFound {
		t.Fatal("expected WithInternal to return a copy")
	}
	if ErrNotFound.Internal != nil {
		t.Fatal("expected sentinel to remain unchanged")
	}
	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestFromError(t *testing.T) {
	if out := FromError(ErrNotFound); out != ErrNotFound {
		t.Fatal("expected FromError to return the same AppError instance")
	}
	if FromError(nil) != nil {
		t.Fatal("expected nil for nil error")
	}

	out := FromError(stdErrors.New("raw"))
	if out.Code != ErrInternalServer.Code || out.Internal == nil {
		t.Fatalf("expected internal server error with cause, got %+v", out)
	}

	wrapped := fmt.Errorf("ratelimit: %w", ErrRateLimit)
	if FromError(wrapped).StatusCode != http.StatusTooManyRequests {
		t.Fatal("expected wrapped AppError to be unwrapped")
	}
}

func TestNewPermissionDeniedMatchesSentinel(t *testing.T) {
	err := NewPermissionDenied("You don't have permission to update this user")
	if err.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
	if !stdErrors.Is(err, ErrPermissionDenied) {
		t.Fatal("expected permission denied copy to match sentinel")
	}
	if ErrPermissionDenied.Message != "Permission denied" {
		t.Fatal("expected sentinel message to stay unchanged")
	}

	wrapped := fmt.Errorf("chain service: %w", err)
	if !stdErrors.Is(wrapped, ErrPermissionDenied) {
		t.Fatal("expected wrapped error to match sentinel")
	}
	if stdErrors.Is(err, ErrNotFound) {
		t.Fatal("expected codes to differ")
	}
}

func TestNewValidation(t *testing.T) {
	err := NewValidation("name is required", []FieldError{{Field: "name", Message: "name is required"}})
	if err.Code != ErrBadRequest.Code || err.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected error: %+v", err)
	}
	if len(err.Fields) != 1 || err.Fields[0].Field != "name" {
		t.Fatalf("unexpected fields: %+v", err.Fields)
	}
	if len(ErrBadRequest.Fields) != 0 {
		t.Fatal("expected sentinel to stay without fields")
	}
}
