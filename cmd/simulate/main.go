// Package main runs a copytrade backtest over the stored token activity
// snapshot and renders the result as markdown, JSON or CSV.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/reporting"
	"kol-sniper-dashboard/internal/simulator"
	"kol-sniper-dashboard/internal/storage"
	chstore "kol-sniper-dashboard/internal/storage/clickhouse"
	"kol-sniper-dashboard/internal/storage/migrations"
	pgstore "kol-sniper-dashboard/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	wallets := flag.String("wallets", "", "Comma-separated KOL names to follow (required)")
	fromStr := flag.String("from", "", "Window start, RFC3339 or YYYY-MM-DD (required)")
	toStr := flag.String("to", "", "Window end, RFC3339 or YYYY-MM-DD (required)")
	capital := flag.Float64("capital", 10, "Initial capital in SOL")
	maxPositionPct := flag.Float64("max-position-pct", 10, "Max position size as percent of capital")
	stopLossPct := flag.Float64("stop-loss-pct", 0, "Stop loss percent (0 to disable)")
	takeProfitPct := flag.Float64("take-profit-pct", 0, "Take profit percent (0 to disable)")
	strategy := flag.String("strategy", "immediate", "Follow strategy: immediate, delayed, filtered")
	delayMinutes := flag.Int("delay-minutes", 0, "Entry delay for the delayed strategy")
	minKols := flag.Int("min-kols", 0, "Minimum KOL count for the filtered strategy")

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (token source, required)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (persists the result when set)")

	format := flag.String("format", "markdown", "Output format: markdown, json, csv")
	outPath := flag.String("out", "", "Output file (default stdout)")
	flag.Parse()

	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	if *wallets == "" {
		logger.Fatal("--wallets is required")
	}
	if *fromStr == "" || *toStr == "" {
		logger.Fatal("--from and --to are required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	start, err := parseTime(*fromStr)
	if err != nil {
		logger.Fatalf("invalid --from: %v", err)
	}
	end, err := parseTime(*toStr)
	if err != nil {
		logger.Fatalf("invalid --to: %v", err)
	}

	cfg := &domain.SimulationConfig{
		Wallets:            splitList(*wallets),
		StartTime:          start.UnixMilli(),
		EndTime:            end.UnixMilli(),
		InitialCapital:     *capital,
		MaxPositionSizePct: *maxPositionPct,
		Strategy:           domain.FollowStrategy(strings.ToLower(*strategy)),
		DelayMinutes:       *delayMinutes,
		MinKolsCount:       *minKols,
	}
	if *stopLossPct > 0 {
		cfg.StopLossPct = stopLossPct
	}
	if *takeProfitPct > 0 {
		cfg.TakeProfitPct = takeProfitPct
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, cancelling...", sig)
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	records, err := pgstore.NewActivityStore(pool).GetByTimeRange(ctx, cfg.StartTime, cfg.EndTime)
	if err != nil {
		logger.Fatalf("load token activity: %v", err)
	}
	logger.Printf("loaded %d token records in window", len(records))

	var simStore storage.SimulationStore
	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("run clickhouse migrations: %v", err)
		}
		defer conn.Close()
		simStore = chstore.NewSimulationStore(conn)
	}

	sim := simulator.New(simulator.Options{
		Store:  simStore,
		Logger: logger,
	})

	result, err := sim.Simulate(ctx, cfg, records)
	if err != nil {
		logger.Fatalf("simulate: %v", err)
	}
	logger.Printf("simulation %s: %d trades, final capital %.4f SOL",
		result.SimulationID, result.TotalTrades, result.FinalCapital)

	output, err := render(result, *format)
	if err != nil {
		logger.Fatal(err)
	}

	if *outPath == "" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(*outPath, []byte(output), 0o644); err != nil {
		logger.Fatalf("write output: %v", err)
	}
	logger.Printf("wrote %s", *outPath)
}

func render(result *domain.SimulationResult, format string) (string, error) {
	switch format {
	case "markdown":
		return reporting.RenderMarkdown(result), nil
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal result: %w", err)
		}
		return string(data) + "\n", nil
	case "csv":
		return reporting.RenderCSV(result.Trades), nil
	default:
		return "", fmt.Errorf("unknown format %q (markdown, json, csv)", format)
	}
}

// parseTime accepts RFC3339 or a bare date, both interpreted as UTC.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
