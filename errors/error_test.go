package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestFailError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *FailError
		expected string
	}{
		{
			name: "error with details",
			err: &FailError{
				Code:    ErrInvalidPlacement,
				Message: "ambiguous placement",
				Details: "only one of below or above can be specified",
			},
			expected: "[NTF001] ambiguous placement: only one of below or above can be specified",
		},
		{
			name: "error without details",
			err: &FailError{
				Code:    ErrNotConfigured,
				Message: "no notifier configured",
			},
			expected: "[CON001] no notifier configured",
		},
		{
			name: "error with cause",
			err: &FailError{
				Code:    ErrDeliveryFailure,
				Message: "post failed",
				Cause:   errors.New("connection refused"),
			},
			expected: "[NET001] post failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("FailError.Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFailError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(cause, ErrDeliveryFailure, "post failed")

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("FailError.Unwrap() = %v, want %v", unwrapped, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	if unwrapped := New(ErrInvalidConfig, "bad").Unwrap(); unwrapped != nil {
		t.Errorf("FailError.Unwrap() = %v, want nil", unwrapped)
	}
}

func TestFailError_Is(t *testing.T) {
	err1 := New(ErrInvalidPlacement, "first")
	err2 := New(ErrInvalidPlacement, "second")
	err3 := New(ErrUnknownSection, "different")

	if !err1.Is(err2) {
		t.Error("errors with same code should match")
	}
	if err1.Is(err3) {
		t.Error("errors with different codes should not match")
	}
	if err1.Is(errors.New("standard error")) {
		t.Error("FailError should not match standard errors")
	}
}

func TestIsCodeAndCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("notify: %w", New(ErrNotConfigured, "no notifier"))

	if !IsCode(wrapped, ErrNotConfigured) {
		t.Error("IsCode should see through fmt wrapping")
	}
	if IsCode(wrapped, ErrDeliveryFailure) {
		t.Error("IsCode matched the wrong code")
	}
	if IsCode(nil, ErrNotConfigured) {
		t.Error("IsCode(nil) should be false")
	}
	if got := CodeOf(wrapped); got != ErrNotConfigured {
		t.Errorf("CodeOf() = %v, want %v", got, ErrNotConfigured)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %v, want empty", got)
	}
}

func TestWithContext(t *testing.T) {
	err := NewNetworkError(ErrDeliveryTimeout, "collector:80", errors.New("i/o timeout"))

	if err.Context["endpoint"] != "collector:80" {
		t.Errorf("endpoint context = %v", err.Context["endpoint"])
	}
	if err.Context["category"] != NetworkCategory {
		t.Errorf("category context = %v", err.Context["category"])
	}
	if err.Message != "Delivery to collector timed out" {
		t.Errorf("message = %q", err.Message)
	}
}

func TestGetErrorInfo(t *testing.T) {
	absorbed := []Code{ErrDeliveryFailure, ErrDeliveryTimeout, ErrTLSFailure, ErrUnexpectedStatus, ErrEncodingFailed, ErrInvalidPayload}
	for _, code := range absorbed {
		if !IsAbsorbed(code) {
			t.Errorf("%s should be absorbed", code)
		}
	}

	raised := []Code{ErrInvalidPlacement, ErrUnknownSection, ErrNotConfigured, ErrInvalidConfig}
	for _, code := range raised {
		if IsAbsorbed(code) {
			t.Errorf("%s should propagate", code)
		}
	}

	if GetCategory(ErrTLSFailure) != NetworkCategory {
		t.Errorf("GetCategory(ErrTLSFailure) = %s", GetCategory(ErrTLSFailure))
	}

	unknown := GetErrorInfo("XXX999")
	if unknown.Category != "UNKNOWN" {
		t.Errorf("unknown category = %s", unknown.Category)
	}
}
