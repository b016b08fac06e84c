package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"reelforge/internal/jobstore"
	"reelforge/internal/logging"
	"reelforge/internal/metrics"
	"reelforge/internal/notifications"
	"reelforge/internal/services"
	"reelforge/internal/stage"
	"reelforge/internal/textutil"
)

type stageEntry struct {
	name    string
	handler stage.Handler
}

// Runner executes the full stage sequence for one job at a time.
type Runner struct {
	store      *jobstore.Store
	storageDir string
	stages     []stageEntry
	notifier   notifications.Service
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewRunner(store *jobstore.Store, storageDir string, notifier notifications.Service, m *metrics.Metrics, logger *slog.Logger) *Runner {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Runner{
		store:      store,
		storageDir: storageDir,
		notifier:   notifier,
		metrics:    m,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}
}

// AddStage appends a stage; stages run in registration order.
func (r *Runner) AddStage(name string, handler stage.Handler) {
	r.stages = append(r.stages, stageEntry{name: name, handler: handler})
}

// HealthChecks reports each registered stage's readiness.
func (r *Runner) HealthChecks(ctx context.Context) []stage.Health {
	checks := make([]stage.Health, 0, len(r.stages))
	for _, entry := range r.stages {
		checks = append(checks, entry.handler.HealthCheck(ctx))
	}
	return checks
}

// Process runs the job end to end. A job that was already completed is
// re-executed in full; re-delivery is treated as explicit re-submission.
// The returned error is the stage error, so the queue's retry bookkeeping
// observes the same transient-vs-fatal classification the store recorded.
func (r *Runner) Process(ctx context.Context, jobID int64) error {
	job, err := r.store.GetByID(ctx, jobID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "load", "load job", err)
	}
	if job == nil {
		return services.Wrap(services.ErrValidation, "pipeline", "load",
			fmt.Sprintf("job %d not found", jobID), nil)
	}

	ctx = services.WithJobID(ctx, job.ID)
	job.ResetForRun()
	job.Attempt++
	if err := r.prepareWorkDir(job); err != nil {
		return r.fail(ctx, job, err)
	}
	if err := r.store.Update(ctx, job); err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "persist", "persist job start", err)
	}

	r.metrics.JobStarted()
	defer func() { r.metrics.JobFinished(string(job.Status)) }()
	r.logger.InfoContext(ctx, "job started",
		logging.String("topic", job.Topic),
		logging.Int("attempt", job.Attempt))

	for _, entry := range r.stages {
		stageCtx := services.WithStage(ctx, entry.name)
		began := time.Now()
		if err := entry.handler.Prepare(stageCtx, job); err != nil {
			return r.fail(stageCtx, job, err)
		}
		if err := r.store.Update(stageCtx, job); err != nil {
			return r.fail(stageCtx, job, services.Wrap(services.ErrTransient, entry.name, "persist", "persist stage progress", err))
		}
		if err := entry.handler.Execute(stageCtx, job); err != nil {
			return r.fail(stageCtx, job, err)
		}
		r.metrics.ObserveStage(entry.name, time.Since(began).Seconds())
		// Stage output is durable before the next stage starts.
		if err := r.store.Update(stageCtx, job); err != nil {
			return r.fail(stageCtx, job, services.Wrap(services.ErrTransient, entry.name, "persist", "persist stage output", err))
		}
	}

	r.finish(ctx, job)
	return nil
}

func (r *Runner) prepareWorkDir(job *jobstore.Job) error {
	dir := filepath.Join(r.storageDir, fmt.Sprintf("%d_%s", job.ID, textutil.Slugify(job.Topic)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "workdir", "create working directory", err)
	}
	job.WorkDir = dir
	return nil
}

// fail records the failure on the job row and re-raises the stage error so
// the queue consumer can apply its own retry budget.
func (r *Runner) fail(ctx context.Context, job *jobstore.Job, cause error) error {
	message := services.Details(cause)
	job.SetFailed(message)
	job.SetMetadataValue("error", message)
	if err := r.store.Update(ctx, job); err != nil {
		r.logger.ErrorContext(ctx, "failed to persist job failure", logging.Error(err))
	}
	if err := r.notifier.NotifyJobFailed(ctx, job.ID, job.Topic, cause); err != nil {
		r.logger.WarnContext(ctx, "failure notification not delivered", logging.Error(err))
	}
	r.logger.ErrorContext(ctx, "job failed", logging.Error(cause))
	return cause
}

func (r *Runner) finish(ctx context.Context, job *jobstore.Job) {
	title, _ := job.Metadata()["title"].(string)
	switch job.Status {
	case jobstore.StatusPendingUpload:
		if err := r.notifier.NotifyPendingUpload(ctx, job.ID, title); err != nil {
			r.logger.WarnContext(ctx, "pending notification not delivered", logging.Error(err))
		}
		r.logger.InfoContext(ctx, "job parked pending upload")
	default:
		if err := r.notifier.NotifyJobCompleted(ctx, job.ID, title, job.VideoID); err != nil {
			r.logger.WarnContext(ctx, "completion notification not delivered", logging.Error(err))
		}
		r.logger.InfoContext(ctx, "job completed", logging.String("video_id", job.VideoID))
	}
}

type noopNotifier struct{}

func (noopNotifier) NotifyJobQueued(context.Context, int64, string) error            { return nil }
func (noopNotifier) NotifyJobCompleted(context.Context, int64, string, string) error { return nil }
func (noopNotifier) NotifyPendingUpload(context.Context, int64, string) error        { return nil }
func (noopNotifier) NotifyJobFailed(context.Context, int64, string, error) error     { return nil }
func (noopNotifier) TestNotification(context.Context) error                          { return nil }
