package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alejandrodnm/barsim/config"
	"github.com/alejandrodnm/barsim/internal/adapters/feed"
	"github.com/alejandrodnm/barsim/internal/adapters/notify"
	"github.com/alejandrodnm/barsim/internal/adapters/storage"
	"github.com/alejandrodnm/barsim/internal/analytics"
	"github.com/alejandrodnm/barsim/internal/domain"
	"github.com/alejandrodnm/barsim/internal/engine/broker"
	"github.com/alejandrodnm/barsim/internal/engine/clock"
	"github.com/alejandrodnm/barsim/internal/engine/execution"
	"github.com/alejandrodnm/barsim/internal/engine/portfolio"
	"github.com/alejandrodnm/barsim/internal/engine/recorder"
	"github.com/alejandrodnm/barsim/internal/engine/simulator"
	"github.com/alejandrodnm/barsim/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	csvPath := flag.String("csv", "", "bars CSV file (overrides config)")
	strategyName := flag.String("strategy", "", "strategy to run (overrides config)")
	runID := flag.String("run-id", "", "run identifier (generated if empty)")
	compare := flag.Bool("compare", false, "run every registered strategy and compare")
	listStrategies := flag.Bool("list", false, "list registered strategies and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
		slog.Warn("config file not loaded, using defaults", "err", err, "path", *configPath)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if *csvPath != "" {
		cfg.Data.CSVPath = *csvPath
	}
	if *strategyName != "" {
		cfg.Backtest.Strategy = *strategyName
	}

	registry := strategy.NewRegistry()
	console := notify.NewConsole()

	if *listStrategies {
		printStrategies(registry)
		return
	}

	if cfg.Data.CSVPath == "" {
		slog.Error("no bars file given, set data.csv_path or pass -csv")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	source := feed.NewCSV(cfg.Data.CSVPath, cfg.Data.Symbol)
	bars, err := source.Bars(ctx)
	if err != nil {
		slog.Error("failed to load bars", "err", err)
		os.Exit(1)
	}
	universe := universeOf(cfg, bars)

	slog.Info("barsim starting",
		"config", *configPath,
		"bars", len(bars),
		"universe", universe,
		"strategy", cfg.Backtest.Strategy,
	)

	names := []string{cfg.Backtest.Strategy}
	if *compare {
		names = registry.Names()
	}

	baseID := *runID
	if baseID == "" {
		baseID = "bt_" + time.Now().UTC().Format("20060102_150405")
	}

	var reports []*analytics.Report
	for _, name := range names {
		report, err := runOne(ctx, cfg, registry, name, bars, universe, resolveRunID(baseID, name, *compare))
		if err != nil {
			slog.Error("run failed", "strategy", name, "err", err)
			os.Exit(1)
		}
		reports = append(reports, report)
		console.PrintReport(report)
	}

	if *compare {
		console.PrintComparison(analytics.CompareStrategies(reports))
	}

	slog.Info("barsim finished")
}

// runOne executes a single strategy over the loaded bars and builds its
// report.
func runOne(ctx context.Context, cfg *config.Config, registry *strategy.Registry, name string, bars []domain.Bar, universe []string, runID string) (*analytics.Report, error) {
	strat, err := registry.Create(name, cfg.Backtest.Params)
	if err != nil {
		return nil, err
	}

	manager, err := portfolio.NewManager(cfg.Backtest.InitialCash)
	if err != nil {
		return nil, err
	}

	rec, cleanup, err := buildRecorder(cfg, name, runID)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	runner, err := simulator.NewRunner(strat, buildBroker(cfg), clock.NewHistorical(bars), manager, rec, slog.Default())
	if err != nil {
		return nil, err
	}

	result, err := runner.Run(ctx, universe, cfg.Backtest.Params, runID)
	if err != nil {
		return nil, err
	}

	dataset := map[string]any{
		"source": cfg.Data.CSVPath,
		"bars":   result.BarsProcessed,
	}
	return analytics.BuildReport(
		result.RunID, name, cfg.Backtest.Params,
		result.EquityCurve, result.Trades,
		result.Portfolio.InitialCash, dataset, *cfg.Backtest.RiskFree,
	), nil
}

func buildBroker(cfg *config.Config) broker.Broker {
	var slip execution.SlippageModel = execution.NoSlippage{}
	if cfg.Execution.SlippageBps > 0 {
		slip, _ = execution.NewFixedBpsSlippage(cfg.Execution.SlippageBps)
	}
	var fees execution.FeeModel = execution.NoFees{}
	if cfg.Execution.FeePct > 0 {
		fees, _ = execution.NewPercentageFee(cfg.Execution.FeePct)
	}

	var model execution.Model
	if cfg.Execution.Realistic {
		model = execution.NewRealistic(slip, fees, cfg.Execution.SpreadBps, cfg.Execution.MaxFillPct)
	} else {
		model = execution.NewSimulated(slip, fees)
	}

	if cfg.Execution.UsePaperMode {
		return broker.NewPaper(model, cfg.Execution.PaperDelay)
	}
	return broker.NewSimulated(model)
}

// resolveRunID keeps audit rows from different strategies apart when
// several run under one invocation.
func resolveRunID(base, strategyName string, compare bool) string {
	if compare {
		return base + "_" + strategyName
	}
	return base
}

// buildRecorder wires the audit trail: in-memory always, streamed to
// SQLite when a DSN is configured.
func buildRecorder(cfg *config.Config, strategyName, runID string) (recorder.Recorder, func(), error) {
	if cfg.Storage.DSN == "" {
		return recorder.NewEventRecorder(cfg.Backtest.RecordBars), func() {}, nil
	}

	sink, err := storage.NewSQLiteSink(cfg.Storage.DSN, runID, map[string]any{
		"strategy": strategyName,
		"universe": strings.Join(cfg.Backtest.Universe, ","),
	})
	if err != nil {
		return nil, nil, err
	}
	return recorder.NewStreamingRecorder(sink, cfg.Backtest.RecordBars, slog.Default()), func() { sink.Close() }, nil
}

// universeOf prefers the configured universe, falling back to the
// symbols present in the feed.
func universeOf(cfg *config.Config, bars []domain.Bar) []string {
	if len(cfg.Backtest.Universe) > 0 {
		return cfg.Backtest.Universe
	}
	seen := make(map[string]bool)
	var universe []string
	for _, bar := range bars {
		if !seen[bar.Symbol] {
			seen[bar.Symbol] = true
			universe = append(universe, bar.Symbol)
		}
	}
	return universe
}

func printStrategies(registry *strategy.Registry) {
	for _, name := range registry.Names() {
		meta := registry.List()[name]
		slog.Info("strategy", "name", meta.Name, "display", meta.DisplayName, "description", meta.Description)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
