package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestWrap(t *testing.T) {
	originalErr := errors.New("mongo connection reset")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if !errors.Is(wrapped, originalErr) {
		t.Errorf("expected wrapped error to match original error")
	}
	if wrapped.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, wrapped.Code)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "Viewing not found"},
			expected: "NOT_FOUND: Viewing not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "Failed to create viewing",
				Err:     errors.New("write conflict"),
			},
			expected: "INTERNAL_ERROR: Failed to create viewing (caused by: write conflict)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NotFoundWithID("Viewing", "1"), http.StatusNotFound},
		{"validation", Validation("bad", nil), http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), http.StatusBadRequest},
		{"conflict", Conflict("Slot has already been booked for viewing"), http.StatusConflict},
		{"internal", Internal("boom", nil), http.StatusInternalServerError},
		{"timeout", Timeout("slow"), http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Room lock"), http.StatusServiceUnavailable},
		{"too many requests", TooManyRequests("slow down"), http.StatusTooManyRequests},
		{"zero status", &AppError{Code: CodeInternal}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.StatusCode(); got != tt.want {
				t.Errorf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Viewing", "65f1c0ffee")

	if err.Message != "Viewing not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["id"] != "65f1c0ffee" {
		t.Errorf("expected id '65f1c0ffee', got %v", err.Details["id"])
	}
	if err.Details["resource"] != "Viewing" {
		t.Errorf("expected resource 'Viewing', got %v", err.Details["resource"])
	}
}

func TestWithDetailsAndCause(t *testing.T) {
	cause := errors.New("lock held")
	err := Conflict("room busy").
		WithDetails(map[string]any{"room_id": "r1"}).
		WithCause(cause)

	if err.Details["room_id"] != "r1" {
		t.Errorf("expected room_id detail, got %v", err.Details)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be reachable")
	}
}

func TestUnavailable(t *testing.T) {
	err := Unavailable("Room lock")

	if err.Message != "Room lock is temporarily unavailable" {
		t.Errorf("expected message to contain service name, got %s", err.Message)
	}
}

func TestIsAppError(t *testing.T) {
	appErr := NotFoundWithID("Viewing", "1")
	wrapped := fmt.Errorf("outer: %w", appErr)

	if !IsAppError(appErr) {
		t.Errorf("IsAppError() should return true for AppError")
	}
	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through wrapping")
	}
	if IsAppError(errors.New("regular error")) {
		t.Errorf("IsAppError() should return false for regular error")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("taken")
	regularErr := errors.New("regular error")

	if AsAppError(fmt.Errorf("tx: %w", appErr)) != appErr {
		t.Errorf("AsAppError() should unwrap to the same AppError")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	body := string(NotFoundWithID("Viewing", "12345").ToJSON())

	if !strings.Contains(body, `"code":"NOT_FOUND"`) {
		t.Errorf("ToJSON() should contain error code, got %s", body)
	}
	if !strings.Contains(body, `"message":"Viewing not found"`) {
		t.Errorf("ToJSON() should contain error message, got %s", body)
	}
}
