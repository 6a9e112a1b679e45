package rule

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"tradecore/internal/domain/apperr"
	domain "tradecore/internal/domain/rule"
	"tradecore/internal/domain/uow"
)

// CSVColumns is the upload header. Multi-condition rules join field/operator/value with ';',
// and the routing columns take ';'-joined ladders the same way.
var CSVColumns = []string{
	"ruleName", "triggerEvent", "priority", "active", "status", "version",
	"conditionField", "conditionOperator", "conditionValue", "approvalRole", "approvalLevel",
}

var requiredColumns = []string{"ruleName", "triggerEvent", "priority", "approvalRole", "approvalLevel"}

type csvRow struct {
	line     int
	rule     domain.ApprovalRule
	activate bool
}

// UploadCSV creates one rule per row in a single transaction. Rows marked active (or with
// status ACTIVE) are activated after creation. Any bad row fails the whole upload.
func (u *Usecase) UploadCSV(ctx context.Context, src io.Reader, actor string) ([]domain.ApprovalRule, error) {
	rows, err := parseRulesCSV(src)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ApprovalRule, 0, len(rows))
	err = u.uow.WithinTx(ctx, func(repos uow.Repos) error {
		for _, row := range rows {
			r := row.rule
			if err := createDraft(ctx, repos.Rules, &r, r.Version, actor); err != nil {
				return fmt.Errorf("row %d: %w", row.line, err)
			}
			if row.activate {
				act, _, err := activate(ctx, repos.Rules, r.ID)
				if err != nil {
					return fmt.Errorf("row %d: %w", row.line, err)
				}
				r = *act
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int("rules", len(out)).Str("actor", actor).Msg("rules uploaded")
	return out, nil
}

func parseRulesCSV(src io.Reader) ([]csvRow, error) {
	cr := csv.NewReader(src)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperr.Validation("file", "empty CSV")
	}
	if err != nil {
		return nil, apperr.Validation("file", err.Error())
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := col[strings.ToLower(c)]; !ok {
			return nil, apperr.Validation("header", fmt.Sprintf("missing column %q", c))
		}
	}

	var rows []csvRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("row %d", line), err.Error())
		}
		get := func(name string) string {
			i, ok := col[strings.ToLower(name)]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if strings.Join(rec, "") == "" {
			continue
		}
		row, err := parseRow(get)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("row %d", line), err.Error())
		}
		row.line = line
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, apperr.Validation("file", "no rule rows")
	}
	return rows, nil
}

func parseRow(get func(string) string) (csvRow, error) {
	var row csvRow
	r := domain.ApprovalRule{
		RuleName:     get("ruleName"),
		TriggerEvent: domain.TriggerEvent(strings.ToUpper(get("triggerEvent"))),
		Version:      1,
	}

	prio, err := strconv.Atoi(get("priority"))
	if err != nil {
		return row, fmt.Errorf("priority %q is not an integer", get("priority"))
	}
	r.Priority = prio

	if v := get("version"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return row, fmt.Errorf("version %q must be a positive integer", v)
		}
		r.Version = n
	}

	switch status := strings.ToUpper(get("status")); status {
	case "", string(domain.StatusDraft):
	case string(domain.StatusActive):
		row.activate = true
	default:
		return row, fmt.Errorf("status %q cannot be uploaded", status)
	}
	if a := get("active"); a != "" {
		on, err := strconv.ParseBool(a)
		if err != nil {
			return row, fmt.Errorf("active %q is not a boolean", a)
		}
		row.activate = row.activate || on
	}

	fields, ops, vals := splitList(get("conditionField")), splitList(get("conditionOperator")), splitList(get("conditionValue"))
	if len(fields) != len(ops) || len(fields) != len(vals) {
		return row, fmt.Errorf("condition columns have %d fields, %d operators, %d values", len(fields), len(ops), len(vals))
	}
	for i := range fields {
		op, err := domain.ParseOperator(ops[i])
		if err != nil {
			return row, err
		}
		r.Conditions = append(r.Conditions, domain.Condition{FieldCode: fields[i], Operator: op, Value: vals[i]})
	}

	roles, levels := splitList(get("approvalRole")), splitList(get("approvalLevel"))
	if len(roles) != len(levels) {
		return row, fmt.Errorf("routing columns have %d roles and %d levels", len(roles), len(levels))
	}
	for i := range roles {
		lvl, err := strconv.Atoi(levels[i])
		if err != nil {
			return row, fmt.Errorf("approvalLevel %q is not an integer", levels[i])
		}
		r.Routing = append(r.Routing, domain.RoutingStep{ApprovalLevel: lvl, ApprovalRole: strings.ToUpper(roles[i])})
	}

	if err := r.Validate(); err != nil {
		return row, err
	}
	row.rule = r
	return row, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
