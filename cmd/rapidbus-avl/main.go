package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"

	rapidbusavl "github.com/theoremus-urban-solutions/rapidbus-avl"
	"github.com/theoremus-urban-solutions/rapidbus-avl/config"
	"github.com/theoremus-urban-solutions/rapidbus-avl/feed"
	"github.com/theoremus-urban-solutions/rapidbus-avl/health"
	"github.com/theoremus-urban-solutions/rapidbus-avl/internal"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := ParseOptions(args)
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := config.LoadAppConfig(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	opts.Apply(&cfg)
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	logger := internal.InitLogging(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.Mode == modeOneShot {
		if err := rapidbusavl.RunOneShot(ctx, cfg, os.Stdout); err != nil {
			logger.Error("one-shot fetch failed", "error", err)
			return 1
		}
		return 0
	}

	tracker := health.NewTracker()
	reporter := feed.Tee{feed.NewLogReporter(logger, os.Stdout), tracker}

	if cfg.Server.Port > 0 {
		srv := health.NewServer(fmt.Sprintf(":%d", cfg.Server.Port), tracker, logger)
		if err := srv.Start(); err != nil {
			logger.Error("health server failed to start", "error", err)
			return 1
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				logger.Warn("health server shutdown", "error", err)
			}
		}()
	}

	logger.Info("starting live feed",
		slog.String("route", cfg.Dashboard.RouteID),
		slog.String("server", cfg.Feed.ServerURL),
	)
	if err := rapidbusavl.RunLive(ctx, cfg, reporter, rapidbusavl.WithLogger(logger)); err != nil {
		logger.Error("live feed ended", "error", err)
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}
