package rule

import (
	"fmt"
	"strconv"
	"strings"

	"tradecore/internal/domain/apperr"
)

// Validate checks a rule definition before it is stored.
func (r ApprovalRule) Validate() error {
	if strings.TrimSpace(r.RuleName) == "" {
		return apperr.Validation("ruleName", "is required")
	}
	if !r.TriggerEvent.Valid() {
		return apperr.Validation("triggerEvent", fmt.Sprintf("unsupported trigger event %q", r.TriggerEvent))
	}
	if r.Priority < 0 {
		return apperr.Validation("priority", "must be greater than or equal to 0")
	}
	for i, c := range r.Conditions {
		if err := validateCondition(c); err != nil {
			return apperr.Validation(fmt.Sprintf("conditions[%d]", i), err.Error())
		}
	}
	return ValidateRouting(r.Routing)
}

func validateCondition(c Condition) error {
	kind, ok := Fields[c.FieldCode]
	if !ok {
		return fmt.Errorf("unknown field %q", c.FieldCode)
	}
	if !c.Operator.Valid() {
		return fmt.Errorf("unknown operator %q", c.Operator)
	}
	if strings.TrimSpace(c.Value) == "" {
		return fmt.Errorf("value is required")
	}
	if kind == KindNumber {
		if _, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64); err != nil {
			return fmt.Errorf("field %q is numeric, value %q is not", c.FieldCode, c.Value)
		}
	}
	if kind == KindText && c.Operator.Ordered() {
		return fmt.Errorf("operator %s not applicable to non-numeric field %q", c.Operator, c.FieldCode)
	}
	return nil
}

// ValidateRouting requires levels 1..N, strictly increasing with no gaps.
func ValidateRouting(steps []RoutingStep) error {
	if len(steps) == 0 {
		return apperr.Validation("routing", "at least one routing step is required")
	}
	for i, s := range steps {
		if s.ApprovalLevel != i+1 {
			return apperr.Validation(fmt.Sprintf("routing[%d]", i),
				fmt.Sprintf("approval level %d out of sequence, want %d", s.ApprovalLevel, i+1))
		}
		if strings.TrimSpace(s.ApprovalRole) == "" {
			return apperr.Validation(fmt.Sprintf("routing[%d]", i), "approvalRole is required")
		}
	}
	return nil
}
