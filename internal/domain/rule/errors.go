package rule

import (
	"errors"
	"fmt"
)

var (
	// ErrEvaluation marks a rule that could not be evaluated (malformed condition, type mismatch,
	// unavailable valuation input). It is never swallowed: a broken rule blocks routing.
	ErrEvaluation = errors.New("rule evaluation error")

	ErrNotDraft  = errors.New("rule is not in DRAFT status")
	ErrNotActive = errors.New("rule is not ACTIVE")
	ErrRetired   = errors.New("retired rule cannot be activated")
	// ErrConcurrentActivation is returned when the family's active pointer moved under us.
	ErrConcurrentActivation = errors.New("rule family was modified concurrently")
)

// EvaluationError is tagged with the offending rule and field.
type EvaluationError struct {
	RuleID    uint64
	RuleName  string
	FieldCode string
	Reason    string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("rule evaluation error: rule %d (%s) field %q: %s", e.RuleID, e.RuleName, e.FieldCode, e.Reason)
}

func (e *EvaluationError) Unwrap() error { return ErrEvaluation }
