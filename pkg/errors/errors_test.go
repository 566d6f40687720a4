package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNoBuilds, "no builds for product %s", "1207658924")

	if err.Code != ErrCodeNoBuilds {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeNoBuilds)
	}
	if err.Message != "no builds for product 1207658924" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Cause != nil {
		t.Error("New() should not set a cause")
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "failed to fetch builds")

	if err.Cause != cause {
		t.Error("Wrap() did not preserve cause")
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestErrorString(t *testing.T) {
	plain := New(ErrCodeUnauthorized, "missing token")
	if got := plain.Error(); got != "UNAUTHORIZED: missing token" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := Wrap(ErrCodeNetwork, stderrors.New("timeout"), "secure link request")
	if got := wrapped.Error(); got != "NETWORK_ERROR: secure link request: timeout" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeUnsupportedGeneration, "generation 3")

	if !Is(err, ErrCodeUnsupportedGeneration) {
		t.Error("Is() should match the error's code")
	}
	if Is(err, ErrCodeNoBuilds) {
		t.Error("Is() should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeNoBuilds) {
		t.Error("Is() should not match a plain error")
	}

	// Works through fmt wrapping
	outer := fmt.Errorf("resolve: %w", err)
	if !Is(outer, ErrCodeUnsupportedGeneration) {
		t.Error("Is() should unwrap fmt-wrapped errors")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeTimeout, "slow")); got != ErrCodeTimeout {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeTimeout)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeNoBuilds, "no builds found")); got != "no builds found" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(stderrors.New("raw")); got != "raw" {
		t.Errorf("UserMessage on plain error = %q", got)
	}
}

func TestRateLimitedError(t *testing.T) {
	err := &RateLimitedError{RetryAfter: 30}
	if got := err.Error(); got != "rate limited: retry after 30 seconds" {
		t.Errorf("Error() = %q", got)
	}
	if err.Code() != ErrCodeRateLimited {
		t.Errorf("Code() = %q", err.Code())
	}

	bare := &RateLimitedError{}
	if got := bare.Error(); got != "rate limited" {
		t.Errorf("Error() = %q", got)
	}
}
