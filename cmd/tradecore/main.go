package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "tradecore",
		Short:         "trade capture with rule-driven approval routing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), simulateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tradecore:", err)
		os.Exit(1)
	}
}
