// Command compare-rankings reports how often rankings of two experiment
// types differ in order or cluster structure.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/clusterrank/internal/compare"
	"github.com/okian/clusterrank/internal/config"
	"github.com/okian/clusterrank/pkg/logger"
	"github.com/okian/clusterrank/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.LoadCompare(ctx, args, config.WithUsageOutput(stderr))
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, config.ErrUsage), errors.Is(err, config.ErrInvalidConfig):
		fmt.Fprintln(stderr, "compare-rankings:", err)
		return 2
	case err != nil:
		fmt.Fprintln(stderr, "compare-rankings:", err)
		return 1
	}

	_ = logger.Init(logger.WithWriter(stderr), logger.WithJSON(cfg.LogFormat == "json"))
	lg := logger.Get()
	_ = logger.SetLevelString(cfg.LogLevel)

	specs, err := compare.LoadPairs(cfg.Pairs)
	if err != nil {
		lg.Error(ctx, "read pairs list failed", logger.Error(err))
		return 1
	}

	opts := []compare.Option{
		compare.WithWorkers(cfg.Workers),
		compare.WithDiagnostics(stderr),
		compare.WithLogger(lg),
	}
	if cfg.Verbose {
		opts = append(opts, compare.WithVerbose(stdout))
	}
	runner, err := compare.NewRunner(cfg.Directory, cfg.Suffixes, opts...)
	if err != nil {
		fmt.Fprintln(stderr, "compare-rankings:", err)
		return 2
	}
	tally, err := runner.Run(ctx, specs)
	if err != nil {
		lg.Error(ctx, "comparison failed", logger.Error(err))
		return 1
	}
	if err := tally.WriteTable(stdout); err != nil {
		lg.Error(ctx, "write table failed", logger.Error(err))
		return 1
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			lg.Warn(ctx, "metrics textfile not written", logger.Error(err))
		}
	}
	return 0
}
