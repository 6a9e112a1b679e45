package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidation_IsErrValidation(t *testing.T) {
	err := fmt.Errorf("create rule: %w", Validation("ruleName", "is required"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation in chain, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "ruleName" {
		t.Fatalf("errors.As failed: %+v", ve)
	}
	if got := ve.Error(); got != "ruleName: is required" {
		t.Fatalf("message = %q", got)
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("trade", "abc")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err.Error() != "trade abc not found" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestConflict(t *testing.T) {
	err := Conflict("rule %d is %s", 7, "ACTIVE")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if err.Error() != "conflict: rule 7 is ACTIVE" {
		t.Fatalf("message = %q", err.Error())
	}
}
