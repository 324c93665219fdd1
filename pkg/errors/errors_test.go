package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("boom")
	err := Wrap(CodeDependency, cause, "store call failed")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedError(t *testing.T) {
	t.Parallel()

	inner := New(CodeStateConflict, "approved proofs cannot change")
	wrapped := fmt.Errorf("handler: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeStateConflict {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != 500 {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code Code
		want bool
	}{
		{CodeValidation, false},
		{CodeDependency, true},
		{CodeCancelled, true},
		{CodeAnalysis, false},
		{CodeStateConflict, false},
	}
	for _, tc := range cases {
		if got := Retryable(New(tc.code, "x")); got != tc.want {
			t.Fatalf("Retryable(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
	if Retryable(fmt.Errorf("plain")) {
		t.Fatal("plain errors are not retryable")
	}
}
