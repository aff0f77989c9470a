// Command clusterrank prints a significance-clustered system ranking for one
// language pair.
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

	"github.com/okian/clusterrank/internal/adapters/rankfile"
	service "github.com/okian/clusterrank/internal/app"
	"github.com/okian/clusterrank/internal/config"
	"github.com/okian/clusterrank/pkg/logger"
	"github.com/okian/clusterrank/pkg/metrics"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(ctx, args, config.WithUsageOutput(stderr))
	switch {
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, config.ErrUsage), errors.Is(err, config.ErrInvalidConfig):
		fmt.Fprintln(stderr, "clusterrank:", err)
		return exitUsage
	case err != nil:
		fmt.Fprintln(stderr, "clusterrank:", err)
		return exitFailure
	}

	if err := logger.Init(logger.WithWriter(stderr), logger.WithJSON(cfg.LogFormat == "json")); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()
	lg := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		lg.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := service.New(append(service.FromConfig(cfg), service.WithLogger(lg))...)
	res, err := svc.Run(ctx)
	if err != nil {
		lg.Error(ctx, "ranking failed", logger.Error(err))
		return exitFailure
	}

	if err := writeReport(cfg.Output, stdout, res); err != nil {
		lg.Error(ctx, "write report failed", logger.String("output", cfg.Output), logger.Error(err))
		return exitFailure
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			lg.Warn(ctx, "metrics textfile not written", logger.Error(err))
		}
	}
	return exitOK
}

func writeReport(path string, stdout io.Writer, res *service.Result) error {
	if path == "-" {
		return rankfile.Write(stdout, res.Entries)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rankfile.Write(f, res.Entries); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
