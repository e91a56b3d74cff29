package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"homectl/config"
	"homectl/internal/infra/hubsim"
	"homectl/internal/infra/mock"
)

func main() {
	configPath := flag.String("config", "homectl.yaml", "path to config file")
	addr := flag.String("addr", "", "listen address (overrides simulator.addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Simulator.Addr = *addr
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))

	latency, err := config.Duration(cfg.Simulator.Latency, 0)
	if err != nil {
		logger.Warn("invalid simulator latency, ignoring", "error", err)
	}

	srv := hubsim.NewServer(cfg.Simulator.Addr, mock.NewStore(), logger, hubsim.Options{
		RateLimit: cfg.Simulator.RateLimit,
		Latency:   latency,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		logger.Error("starting hub simulator", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	if err := srv.Stop(); err != nil {
		logger.Error("stopping hub simulator", "error", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
