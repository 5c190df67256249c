package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/api/request"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/api/response"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/database"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/logging"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/repository"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/service"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/validation"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/yahoo"
)

type runOptions struct {
	start    string
	end      string
	initial  float64
	monthly  float64
	reinvest bool
	dbPath   string
	yahooURL string
	timeout  time.Duration
	cacheTTL time.Duration
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run [symbol]",
		Short: "Run a backtest for a symbol",
		Example: `  backtest run SPY --start 2015-01-01 --end 2024-12-31 --initial 10000 --monthly 500 --reinvest
  backtest run VWRL.AS --start 2020-01-01 --end 2020-12-31 --monthly 250 --db ./data/backtest.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacktest(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.start, "start", "", "first day of the backtest (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.end, "end", "", "last day of the backtest (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&opts.initial, "initial", 0, "amount invested on the first trading day")
	cmd.Flags().Float64Var(&opts.monthly, "monthly", 0, "amount invested at the start of every following month")
	cmd.Flags().BoolVar(&opts.reinvest, "reinvest", false, "reinvest dividends into shares")
	cmd.Flags().StringVar(&opts.dbPath, "db", database.InMemory, "sqlite file for the series cache and stored runs")
	cmd.Flags().StringVar(&opts.yahooURL, "yahoo-url", "", "override the Yahoo Finance chart endpoint")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "timeout for each Yahoo request")
	cmd.Flags().DurationVar(&opts.cacheTTL, "cache-ttl", 12*time.Hour, "lifetime of cached price and dividend series")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runBacktest(cmd *cobra.Command, symbol string, opts runOptions) error {
	level, _ := cmd.Flags().GetString("log-level")
	pretty, _ := cmd.Flags().GetBool("log-pretty")
	logger := logging.NewWithWriter(logging.Config{Level: level, Pretty: pretty}, cmd.ErrOrStderr())

	req, err := validation.ValidateBacktest(request.BacktestRequest{
		Symbol:            symbol,
		StartDate:         opts.start,
		EndDate:           opts.end,
		InitialAmount:     opts.initial,
		MonthlyAmount:     opts.monthly,
		ReinvestDividends: opts.reinvest,
	})
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	marketData := service.NewMarketDataService(
		yahoo.NewFinanceClient(opts.yahooURL, opts.timeout),
		repository.NewSeriesCacheRepository(db),
		opts.cacheTTL,
		logger,
	)
	svc := service.NewBacktestService(
		marketData,
		repository.NewBacktestRunRepository(db),
		service.NewRunTracker(),
		logger,
	)

	report, err := svc.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(response.NewBacktestResponse(report))
}
