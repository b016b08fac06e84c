package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/queue"
	"reelforge/internal/services"
)

// Processor runs one job through the pipeline.
type Processor interface {
	Process(ctx context.Context, jobID int64) error
}

// Consumer delivers job envelopes from the broker.
type Consumer interface {
	Consume(ctx context.Context, maxAttempts int, handler queue.Handler) error
}

// MonitorServer serves the HTTP monitoring endpoints until ctx is cancelled.
type MonitorServer interface {
	Serve(ctx context.Context) error
}

// Daemon owns the worker main loop and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	processor Processor
	consumer  Consumer
	monitor   MonitorServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, processor Processor, consumer Consumer, monitor MonitorServer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || processor == nil || consumer == nil || logger == nil {
		return nil, errors.New("daemon requires config, processor, consumer, and logger")
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "reelforged.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		processor: processor,
		consumer:  consumer,
		monitor:   monitor,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// LockPath returns the instance lock file location.
func (d *Daemon) LockPath() string { return d.lockPath }

// Running reports whether the main loop is active.
func (d *Daemon) Running() bool { return d.running.Load() }

// Run acquires the instance lock and consumes job envelopes until ctx is
// cancelled. The monitor server runs alongside the consumer and shares its
// lifetime.
func (d *Daemon) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another worker instance holds %s", d.lockPath)
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("release instance lock", logging.Error(err))
		}
	}()

	d.running.Store(true)
	defer d.running.Store(false)

	if d.monitor != nil {
		go func() {
			if err := d.monitor.Serve(ctx); err != nil {
				d.logger.Error("monitor server stopped", logging.Error(err))
			}
		}()
	}

	d.logger.Info("worker started", logging.String("lock", d.lockPath))
	err = d.consumer.Consume(ctx, d.cfg.Workflow.MaxAttempts, d.handleEnvelope)
	if errors.Is(err, context.Canceled) {
		d.logger.Info("worker shutting down")
		return nil
	}
	return err
}

func (d *Daemon) handleEnvelope(ctx context.Context, env queue.Envelope) error {
	timeout := time.Duration(d.cfg.Workflow.JobTimeoutSeconds) * time.Second
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	d.logger.Info("processing envelope",
		logging.Int64(logging.FieldJobID, env.JobID),
		logging.Int("attempt", env.Attempt),
	)
	err := d.processor.Process(jobCtx, env.JobID)
	if err != nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTransient, "daemon", "process",
			fmt.Sprintf("job timed out after %s", timeout), err)
	}
	return err
}
