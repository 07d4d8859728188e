// Package main renders a report for a previously persisted simulation,
// loading the summary and trade ledger back out of ClickHouse.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kol-sniper-dashboard/internal/reporting"
	"kol-sniper-dashboard/internal/storage"
	chstore "kol-sniper-dashboard/internal/storage/clickhouse"
)

func main() {
	_ = godotenv.Load()

	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (required)")
	simulationID := flag.String("simulation-id", "", "Simulation to render (required)")
	format := flag.String("format", "markdown", "Output format: markdown, json, csv")
	outPath := flag.String("out", "", "Output file (default stdout)")
	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}
	if *simulationID == "" {
		logger.Fatal("--simulation-id is required")
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

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer conn.Close()

	gen := reporting.NewGenerator(chstore.NewSimulationStore(conn))

	output, err := render(ctx, gen, *simulationID, *format)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Fatalf("simulation %s not found", *simulationID)
	}
	if err != nil {
		logger.Fatalf("render report: %v", err)
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

func render(ctx context.Context, gen *reporting.Generator, simulationID, format string) (string, error) {
	switch format {
	case "markdown":
		return gen.Markdown(ctx, simulationID)
	case "json":
		result, err := gen.Load(ctx, simulationID)
		if err != nil {
			return "", err
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal result: %w", err)
		}
		return string(data) + "\n", nil
	case "csv":
		return gen.CSV(ctx, simulationID)
	default:
		return "", fmt.Errorf("unknown format %q (markdown, json, csv)", format)
	}
}
