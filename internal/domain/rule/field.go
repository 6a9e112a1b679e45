package rule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNumber Kind = iota + 1
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	}
	return "unknown"
}

// FieldValue is a trade field as seen by the engine: either a number or text, never coerced.
type FieldValue struct {
	kind Kind
	num  float64
	text string
}

func Number(v float64) FieldValue { return FieldValue{kind: KindNumber, num: v} }
func Text(v string) FieldValue    { return FieldValue{kind: KindText, text: v} }

func (v FieldValue) Kind() Kind { return v.kind }

// Float returns the number held by v, if it is one.
func (v FieldValue) Float() (float64, bool) { return v.num, v.kind == KindNumber }

func (v FieldValue) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	}
	return ""
}

// Snapshot is a trade's condition-relevant fields keyed by fieldCode.
type Snapshot map[string]FieldValue

// SnapshotFromMap builds a snapshot from decoded JSON/YAML: numbers become Number, strings Text.
func SnapshotFromMap(m map[string]any) (Snapshot, error) {
	out := make(Snapshot, len(m))
	for k, raw := range m {
		switch v := raw.(type) {
		case nil:
			continue
		case float64:
			out[k] = Number(v)
		case float32:
			out[k] = Number(float64(v))
		case int:
			out[k] = Number(float64(v))
		case int64:
			out[k] = Number(float64(v))
		case uint64:
			out[k] = Number(float64(v))
		case string:
			out[k] = Text(v)
		case bool:
			out[k] = Text(strconv.FormatBool(v))
		default:
			return nil, fmt.Errorf("field %q: unsupported value type %T", k, raw)
		}
	}
	return out, nil
}

// Fields is the catalogue of condition fields a rule may reference.
var Fields = map[string]Kind{
	"quantity":       KindNumber,
	"price":          KindNumber,
	"notional":       KindNumber,
	"mtm":            KindNumber,
	"delta":          KindNumber,
	"counterparty":   KindText,
	"instrumentType": KindText,
	"portfolio":      KindText,
	"commodity":      KindText,
	"desk":           KindText,
	"side":           KindText,
	"currency":       KindText,
}

// ValuationFields are only known after a call to the valuation service.
var ValuationFields = []string{"mtm", "delta"}

type Operator string

const (
	OpEq  Operator = "=="
	OpNeq Operator = "!="
	OpGt  Operator = ">"
	OpLt  Operator = "<"
	OpGte Operator = ">="
	OpLte Operator = "<="
)

func (o Operator) Valid() bool {
	switch o {
	case OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte:
		return true
	}
	return false
}

// Ordered reports whether the operator needs an ordering (numeric only).
func (o Operator) Ordered() bool {
	switch o {
	case OpGt, OpLt, OpGte, OpLte:
		return true
	}
	return false
}

// ParseOperator accepts the symbolic form plus a few spellings seen in CSV uploads.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "==", "=", "EQ":
		return OpEq, nil
	case "!=", "<>", "NE", "NEQ":
		return OpNeq, nil
	case ">", "GT":
		return OpGt, nil
	case "<", "LT":
		return OpLt, nil
	case ">=", "GTE", "GE":
		return OpGte, nil
	case "<=", "LTE", "LE":
		return OpLte, nil
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

var errFieldMissing = errors.New("field not present on trade")

// evaluate applies the condition to the snapshot. Numeric fields compare numerically;
// text fields only support == and !=.
func (c Condition) evaluate(s Snapshot) (bool, FieldValue, error) {
	if !c.Operator.Valid() {
		return false, FieldValue{}, fmt.Errorf("unknown operator %q", c.Operator)
	}
	actual, ok := s[c.FieldCode]
	if !ok {
		return false, FieldValue{}, errFieldMissing
	}
	switch actual.kind {
	case KindNumber:
		want, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
		if err != nil {
			return false, actual, fmt.Errorf("type mismatch: numeric field compared with %q", c.Value)
		}
		return compareNumbers(actual.num, c.Operator, want), actual, nil
	case KindText:
		switch c.Operator {
		case OpEq:
			return actual.text == c.Value, actual, nil
		case OpNeq:
			return actual.text != c.Value, actual, nil
		}
		return false, actual, fmt.Errorf("operator %s not applicable to non-numeric field", c.Operator)
	}
	return false, actual, errors.New("field has no value")
}

func compareNumbers(a float64, op Operator, b float64) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNeq:
		return a != b
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	case OpGte:
		return a >= b
	case OpLte:
		return a <= b
	}
	return false
}
