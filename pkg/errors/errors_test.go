package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidTheme, "unknown theme: %s", "sepia")

	if err.Code != ErrCodeInvalidTheme {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidTheme)
	}

	if err.Message != "unknown theme: sepia" {
		t.Errorf("Message = %v, want %v", err.Message, "unknown theme: sepia")
	}

	expected := "INVALID_THEME: unknown theme: sepia"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeWrite, cause, "write a.png")

	if err.Code != ErrCodeWrite {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeWrite)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	if got := err.Error(); got != "WRITE_FAILED: write a.png: disk full" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeSyntax, "test"),
			code:     ErrCodeSyntax,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeSyntax, "test"),
			code:     ErrCodeRender,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeRender, New(ErrCodeSyntax, "inner"), "outer"),
			code:     ErrCodeRender,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeSyntax,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeSyntax,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidPattern, "test"),
			expected: ErrCodeInvalidPattern,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidConfig, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "wrapped chain",
			err:      Wrap(ErrCodeRender, New(ErrCodeSyntax, "line 2: unexpected token"), "render a.mmd"),
			expected: "render a.mmd: line 2: unexpected token",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsFileLevel(t *testing.T) {
	fileLevel := []Code{ErrCodeSyntax, ErrCodeUnsupported, ErrCodeRead, ErrCodeRender, ErrCodeRasterize, ErrCodeWrite}
	for _, code := range fileLevel {
		if !IsFileLevel(New(code, "x")) {
			t.Errorf("IsFileLevel(%s) = false, want true", code)
		}
	}

	runLevel := []Code{ErrCodeInvalidConfig, ErrCodeInvalidPattern, ErrCodePartialFailure, ErrCodeInternal}
	for _, code := range runLevel {
		if IsFileLevel(New(code, "x")) {
			t.Errorf("IsFileLevel(%s) = true, want false", code)
		}
	}

	if IsFileLevel(errors.New("plain")) {
		t.Error("IsFileLevel(plain) = true, want false")
	}
}
