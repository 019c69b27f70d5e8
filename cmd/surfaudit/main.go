// Command surfaudit fetches one page, extracts its forms, links and cookies,
// injects a payload into each of them and prints the positives as JSON.
//
// Usage:
//
//	surfaudit -target 'http://localhost:9999/item?id=1' -payload '<x>'
//	surfaudit -target http://localhost:9999/account -payload 42 -pattern 'id=(\d+)' -expect 42
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/surfaudit/internal/app"
	"github.com/raysh454/surfaudit/internal/cli"
	"github.com/raysh454/surfaudit/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	args, err := cli.ParseArgs(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "surfaudit: %v\n", err)
		return 2
	}

	cfg, err := app.Load(args.EnvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "surfaudit: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Log, "surfaudit")
	if err != nil {
		fmt.Fprintf(os.Stderr, "surfaudit: %v\n", err)
		return 1
	}
	defer logger.Sync()

	orch, err := app.NewOrchestrator(cfg, nil, logger)
	if err != nil {
		logger.Error("cannot build orchestrator", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}

	application := app.NewApplication(cfg, args, logger, orch)
	defer application.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := application.Run(ctx)
	if err != nil {
		logger.Error("scan failed", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("cannot write report", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}
	if len(report.Findings) > 0 {
		return 3
	}
	return 0
}
