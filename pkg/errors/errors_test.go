package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found with id", NotFoundWithID("Booking", "42"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid range", InvalidRange("10:00", "09:00"), CodeInvalidRange, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("who"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("no"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("dup"), CodeConflict, http.StatusConflict},
		{"too many requests", TooManyRequests("slow down"), CodeTooManyRequests, http.StatusTooManyRequests},
		{"internal", Internal("boom", errors.New("db")), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("late"), CodeTimeout, http.StatusGatewayTimeout},
		{"unsupported media type", UnsupportedMediaType("application/json"), CodeUnsupportedMediaType, http.StatusUnsupportedMediaType},
		{"payload too large", PayloadTooLarge(1024), CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	plain := &AppError{Code: CodeNotFound, Message: "booking not found"}
	if got := plain.Error(); got != "NOT_FOUND: booking not found" {
		t.Errorf("Error() = %q", got)
	}

	caused := &AppError{Code: CodeInternal, Message: "internal error", Err: errors.New("connection refused")}
	if got := caused.Error(); got != "INTERNAL_ERROR: internal error (caused by: connection refused)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	original := errors.New("original error")
	wrapped := Internal("wrapped", original)

	if !errors.Is(wrapped, original) {
		t.Errorf("errors.Is should find the original error")
	}
}

func TestAppError_StatusCodeDefaultsToInternal(t *testing.T) {
	err := &AppError{Code: CodeBadRequest, Message: "no status"}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want %d", err.StatusCode(), http.StatusInternalServerError)
	}
}

func TestInvalidRange_Details(t *testing.T) {
	err := InvalidRange("10:00", "09:00")

	if err.Details["start_time"] != "10:00" {
		t.Errorf("expected start_time detail, got %v", err.Details["start_time"])
	}
	if err.Details["end_time"] != "09:00" {
		t.Errorf("expected end_time detail, got %v", err.Details["end_time"])
	}
}

func TestIsAppError_Wrapped(t *testing.T) {
	appErr := NotFoundWithID("Booking", "1")
	wrapped := fmt.Errorf("handler: %w", appErr)

	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through fmt wrapping")
	}
	if IsAppError(errors.New("plain")) {
		t.Errorf("IsAppError() should be false for plain errors")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("taken"))

	if !HasCode(err, CodeConflict) {
		t.Errorf("HasCode() should match CONFLICT")
	}
	if HasCode(err, CodeNotFound) {
		t.Errorf("HasCode() should not match NOT_FOUND")
	}
	if HasCode(errors.New("plain"), CodeConflict) {
		t.Errorf("HasCode() should be false for plain errors")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFoundWithID("Room", "1")
	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return the same AppError")
	}

	regular := errors.New("regular error")
	result := AsAppError(regular)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap a regular error as internal, got %s", result.Code)
	}
	if result.Err != regular {
		t.Errorf("AsAppError() should keep the original error")
	}
}

func TestNotFoundWithID_Details(t *testing.T) {
	err := NotFoundWithID("Booking", "12345")
	if err.Message != "Booking not found" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["id"] != "12345" || err.Details["resource"] != "Booking" {
		t.Errorf("Details = %v", err.Details)
	}
}
