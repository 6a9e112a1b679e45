package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm/logger"

	"tradecore/internal/adapter/repository/mysql"
	"tradecore/internal/domain/rule"
	"tradecore/internal/infrastructure/db"
	ucRule "tradecore/internal/usecase/rule"
)

func simulateCmd() *cobra.Command {
	var rulesPath, tradePath, trigger string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "evaluate a rules CSV against a trade without a database",
		Long: `Loads every row of the rules CSV as if it were ACTIVE and runs the engine
against the trade described in a YAML (or JSON) file. Prints the trace as JSON.

Examples:
  tradecore simulate --rules rules.csv --trade trade.yaml
  tradecore simulate --rules rules.csv --trade amend.yaml --trigger AMEND`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rulesPath == "" || tradePath == "" {
				return fmt.Errorf("--rules and --trade are required")
			}
			rules, err := os.Open(rulesPath)
			if err != nil {
				return err
			}
			defer rules.Close()
			fields, err := loadTrade(tradePath)
			if err != nil {
				return err
			}
			res, err := simulate(cmd.Context(), rules, fields, rule.TriggerEvent(strings.ToUpper(trigger)))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "rules CSV in the upload format")
	cmd.Flags().StringVar(&tradePath, "trade", "", "trade fields as YAML")
	cmd.Flags().StringVar(&trigger, "trigger", string(rule.TriggerTradeBook), "trigger event to evaluate")
	return cmd
}

// loadTrade reads a flat map of fieldCode to value. YAML is a superset of JSON, so both work.
func loadTrade(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fields, nil
}

// simulate stages the CSV in a throwaway in-memory store and evaluates every row.
func simulate(ctx context.Context, csv io.Reader, fields map[string]any, trigger rule.TriggerEvent) (*ucRule.SimulationResult, error) {
	gdb, err := db.OpenSQLite(":memory:", logger.Silent)
	if err != nil {
		return nil, err
	}
	if err := mysql.Migrate(gdb); err != nil {
		return nil, err
	}
	uc := ucRule.NewUsecase(mysql.NewRuleRepository(gdb), mysql.NewTradeRepository(gdb), mysql.NewGormUoW(gdb), nil)

	staged, err := uc.UploadCSV(ctx, csv, "cli")
	if err != nil {
		return nil, err
	}
	in := ucRule.SimulateInput{TriggerEvent: trigger, Trade: fields}
	for _, r := range staged {
		in.RuleIDs = append(in.RuleIDs, r.ID)
	}
	return uc.Simulate(ctx, in)
}
