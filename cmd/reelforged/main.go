package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"reelforge/internal/config"
	"reelforge/internal/daemon"
	"reelforge/internal/deps"
	"reelforge/internal/jobstore"
	"reelforge/internal/logging"
	"reelforge/internal/metrics"
	"reelforge/internal/monitor"
	"reelforge/internal/notifications"
	"reelforge/internal/pipeline"
	"reelforge/internal/queue"
)

func main() {
	// Missing .env is fine; keys can come from the config file or the
	// real environment.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := deps.Verify(cfg); err != nil {
		logger.Error("dependency check failed", logging.Error(err))
		return
	}

	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, "*.log", cfg.Logging.RetentionDays, "reelforge.log")

	store, err := jobstore.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return
	}
	defer store.Close()

	queueClient, err := queue.Dial(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect to broker", logging.Error(err))
		return
	}
	defer queueClient.Close()

	m := metrics.New()
	notifier := notifications.NewService(cfg)
	runner := pipeline.NewDefaultRunner(ctx, cfg, store, notifier, m, logger)
	monitorServer := monitor.NewServer(cfg, store, queueClient, runner.HealthChecks, m, logger)

	d, err := daemon.New(cfg, runner, queueClient, monitorServer, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}

	if err := d.Run(ctx); err != nil {
		logger.Error("worker stopped", logging.Error(err))
	}
}
