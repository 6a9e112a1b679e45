package rule

import (
	"errors"
	"testing"

	"tradecore/internal/domain/apperr"
)

func TestApprovalRule_Validate(t *testing.T) {
	base := func() ApprovalRule {
		return ApprovalRule{
			RuleName:     "Large gas",
			TriggerEvent: TriggerTradeBook,
			Priority:     1,
			Conditions:   []Condition{{FieldCode: "quantity", Operator: OpGt, Value: "1000"}},
			Routing:      []RoutingStep{{ApprovalLevel: 1, ApprovalRole: "RISK"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *ApprovalRule)
		wantErr bool
	}{
		{"valid", func(r *ApprovalRule) {}, false},
		{"no conditions is a catch-all", func(r *ApprovalRule) { r.Conditions = nil }, false},
		{"missing name", func(r *ApprovalRule) { r.RuleName = " " }, true},
		{"bad trigger", func(r *ApprovalRule) { r.TriggerEvent = "EXPIRY" }, true},
		{"negative priority", func(r *ApprovalRule) { r.Priority = -1 }, true},
		{"unknown field", func(r *ApprovalRule) { r.Conditions[0].FieldCode = "colour" }, true},
		{"unknown operator", func(r *ApprovalRule) { r.Conditions[0].Operator = "=~" }, true},
		{"non numeric value", func(r *ApprovalRule) { r.Conditions[0].Value = "many" }, true},
		{"ordered op on text", func(r *ApprovalRule) {
			r.Conditions[0] = Condition{FieldCode: "commodity", Operator: OpGt, Value: "GAS"}
		}, true},
		{"no routing", func(r *ApprovalRule) { r.Routing = nil }, true},
		{"level gap", func(r *ApprovalRule) {
			r.Routing = []RoutingStep{{ApprovalLevel: 1, ApprovalRole: "RISK"}, {ApprovalLevel: 3, ApprovalRole: "CRO"}}
		}, true},
		{"level does not start at 1", func(r *ApprovalRule) { r.Routing[0].ApprovalLevel = 2 }, true},
		{"missing role", func(r *ApprovalRule) { r.Routing[0].ApprovalRole = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}
}

func TestParseOperator(t *testing.T) {
	for in, want := range map[string]Operator{"==": OpEq, "=": OpEq, "!=": OpNeq, ">": OpGt, "gte": OpGte, " <= ": OpLte, "LT": OpLt} {
		got, err := ParseOperator(in)
		if err != nil || got != want {
			t.Fatalf("ParseOperator(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseOperator("between"); err == nil {
		t.Fatal("want error for unknown operator")
	}
}

func TestSnapshotFromMap(t *testing.T) {
	s, err := SnapshotFromMap(map[string]any{"quantity": float64(10), "commodity": "GAS", "mtm": nil})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s["quantity"].Kind() != KindNumber || s["commodity"].Kind() != KindText {
		t.Fatalf("kinds: %v %v", s["quantity"].Kind(), s["commodity"].Kind())
	}
	if _, ok := s["mtm"]; ok {
		t.Fatal("nil values must be dropped")
	}
	if _, err := SnapshotFromMap(map[string]any{"x": []int{1}}); err == nil {
		t.Fatal("want error for unsupported type")
	}
}
