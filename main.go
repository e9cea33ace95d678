package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	configPath      = flag.String("config", "", "YAML config file (built-in defaults when empty)")
	httpPort        = flag.Int("port", 0, "HTTP port, overrides config")
	shutdownTimeout = flag.Duration("shutdown_timeout", defaultShutdownTimeout, "HTTP server shutdown timeout")
	levelFlag       logLevelFlag
)

func init() {
	levelFlag.value = slog.LevelInfo
	flag.Var(&levelFlag, "loglevel", "log level: DEBUG, INFO, WARN or ERROR")
}

func main() {
	flag.Parse()
	setupLogging(LogConfig{}, levelFlag.value)

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}
	if *httpPort != 0 {
		cfg.Server.Port = *httpPort
	}
	logCloser := setupLogging(cfg.Log, levelFlag.value)

	a, err := newApp(cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = a.run(ctx, *shutdownTimeout)
	stop()
	if err != nil {
		slog.Error("server error", "error", err)
	}
	_ = logCloser.Close()
	if err != nil {
		os.Exit(1)
	}
}

// run serves HTTP and drives the ticker until ctx is canceled or either fails.
func (a *app) run(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := a.newServer()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr, "entities", len(a.cfg.Entities), "tick", a.cfg.Stream.tickInterval())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.ticker.run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown initiated")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.hub.CloseAll()
		if err := srv.Shutdown(sctx); err != nil {
			return err
		}
		slog.Info("HTTP server shut down successfully")
		return nil
	})
	return g.Wait()
}
