package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromStatus_MapsCodes(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusBadRequest, CodeInvalidInput},
		{http.StatusUnprocessableEntity, CodeInvalidInput},
		{http.StatusUnauthorized, CodeUnauthorized},
		{http.StatusForbidden, CodeForbidden},
		{http.StatusNotFound, CodeNotFound},
		{http.StatusConflict, CodeConflict},
		{http.StatusBadGateway, CodeServiceUnavail},
		{http.StatusInternalServerError, CodeInternal},
		{http.StatusTeapot, CodeInternal},
	}
	for _, tc := range cases {
		err := FromStatus(tc.status, "boom")
		if err.Code != tc.want {
			t.Errorf("status %d: got %s, want %s", tc.status, err.Code, tc.want)
		}
		if err.Status != tc.status {
			t.Errorf("status %d: Status field = %d", tc.status, err.Status)
		}
	}
}

func TestDetail(t *testing.T) {
	wrapped := fmt.Errorf("create agent: %w", FromStatus(http.StatusNotFound, "Agent not found"))
	if got := Detail(wrapped, "Failed"); got != "Agent not found" {
		t.Errorf("Detail(wrapped) = %q", got)
	}

	plain := errors.New("dial tcp: connection refused")
	if got := Detail(plain, "Failed to save agent."); got != "Failed to save agent." {
		t.Errorf("Detail(plain) = %q, want fallback", got)
	}
	if got := Detail(plain, ""); got != plain.Error() {
		t.Errorf("Detail(plain, \"\") = %q, want error text", got)
	}

	empty := &AppError{Code: CodeInternal}
	if got := Detail(empty, "fallback"); got != "fallback" {
		t.Errorf("Detail(empty message) = %q", got)
	}
}

func TestPredicates(t *testing.T) {
	if !IsNotFound(NewNotFoundError("x")) {
		t.Error("IsNotFound should match")
	}
	if !IsInvalidInput(fmt.Errorf("wrap: %w", NewInvalidInputError("x"))) {
		t.Error("IsInvalidInput should see through wrapping")
	}
	if !IsConflict(NewConflictError("x")) {
		t.Error("IsConflict should match")
	}
	if !IsUnavailable(NewUnavailableError("x", errors.New("eof"))) {
		t.Error("IsUnavailable should match")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("plain errors carry no code")
	}
}

func TestHTTPStatus(t *testing.T) {
	if got := HTTPStatus(NewInvalidInputError("x")); got != http.StatusBadRequest {
		t.Errorf("invalid input -> %d", got)
	}
	if got := HTTPStatus(NewConflictError("x")); got != http.StatusConflict {
		t.Errorf("conflict -> %d", got)
	}
	if got := HTTPStatus(errors.New("x")); got != http.StatusInternalServerError {
		t.Errorf("plain -> %d", got)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("eof")
	err := NewInternalErrorWithCause("decode", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if err.Error() != "[INTERNAL_ERROR] decode: eof" {
		t.Errorf("Error() = %q", err.Error())
	}
}
