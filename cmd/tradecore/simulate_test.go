package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const cliRules = `ruleName,triggerEvent,priority,active,status,version,conditionField,conditionOperator,conditionValue,approvalRole,approvalLevel
Large Brent,TRADE_BOOK,1,false,DRAFT,1,quantity;commodity,>;==,1000;BRENT,RISK;HEAD_TRADER,1;2
Amend price,AMEND,1,false,DRAFT,1,price,>,100,RISK,1
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadTrade_YAML(t *testing.T) {
	p := writeFile(t, "trade.yaml", "commodity: BRENT\nquantity: 1500\nprice: 82.5\n")
	got, err := loadTrade(p)
	if err != nil {
		t.Fatalf("loadTrade: %v", err)
	}
	if got["commodity"] != "BRENT" || got["quantity"] != 1500 || got["price"] != 82.5 {
		t.Fatalf("unexpected fields %+v", got)
	}
}

func TestSimulate_DraftRowsAreEvaluated(t *testing.T) {
	res, err := simulate(context.Background(), strings.NewReader(cliRules),
		map[string]any{"commodity": "BRENT", "quantity": 1500}, "TRADE_BOOK")
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if res.FinalStatus != "PENDING_APPROVAL" || len(res.Ladder) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}

	res, err = simulate(context.Background(), strings.NewReader(cliRules),
		map[string]any{"commodity": "WTI", "quantity": 1500}, "TRADE_BOOK")
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if res.FinalStatus != "APPROVED" || res.MatchedRuleID != nil {
		t.Fatalf("expected no match, got %+v", res)
	}
}

func TestSimulateCmd_PrintsJSON(t *testing.T) {
	rules := writeFile(t, "rules.csv", cliRules)
	tr := writeFile(t, "trade.yaml", "price: 120\n")

	cmd := simulateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--rules", rules, "--trade", tr, "--trigger", "amend"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var res struct {
		FinalStatus string `json:"finalStatus"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v; raw=%s", err, out.String())
	}
	if res.FinalStatus != "PENDING_APPROVAL" {
		t.Fatalf("expected the amend rule to route, got %s", res.FinalStatus)
	}
}

func TestSimulateCmd_RequiresInputs(t *testing.T) {
	cmd := simulateCmd()
	cmd.SetArgs([]string{"--rules", "x.csv"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error without --trade")
	}
}
