package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "backtest",
		Short: "Replay a buy-and-hold investment against historical prices",
		Long: `backtest replays an initial purchase, monthly contributions and
optionally reinvested dividends against daily Yahoo Finance closes and
prints the resulting report.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-pretty", false, "human readable log output")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newRunCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "backtest %s\n", version.Version)
		},
	}
}
