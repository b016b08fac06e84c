package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/jobstore"
	"reelforge/internal/logging"
	"reelforge/internal/queue"
)

// SubmitJobRequest describes one new job submission.
type SubmitJobRequest struct {
	Config        *config.Config
	Topic         string
	Niche         string
	Language      string
	Voice         string
	LengthSeconds int
	Publish       bool
}

// SubmitJobResult mirrors the acknowledgement printed by the CLI and
// returned by the monitor server.
type SubmitJobResult struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
}

// SubmitJob stores the job row and publishes its envelope to the work queue.
func SubmitJob(ctx context.Context, req SubmitJobRequest) (*SubmitJobResult, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	store, err := jobstore.Open(req.Config)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	job, err := store.NewJob(ctx, jobstore.NewJobRequest{
		Topic:         topic,
		Niche:         strings.TrimSpace(req.Niche),
		Language:      strings.TrimSpace(req.Language),
		Voice:         strings.TrimSpace(req.Voice),
		LengthSeconds: req.LengthSeconds,
		Publish:       req.Publish,
	})
	if err != nil {
		return nil, fmt.Errorf("store job: %w", err)
	}

	client, err := queue.Dial(ctx, req.Config, logging.NewNop())
	if err != nil {
		markPublishFailed(ctx, store, job, err)
		return nil, fmt.Errorf("connect to work queue: %w", err)
	}
	defer client.Close()

	env := queue.Envelope{
		JobID:         job.ID,
		Topic:         job.Topic,
		Niche:         job.Niche,
		Language:      job.Language,
		Voice:         job.Voice,
		LengthSeconds: job.LengthSeconds,
		Publish:       job.Publish,
		SubmittedAt:   time.Now().UTC(),
	}
	if err := client.Publish(ctx, env); err != nil {
		markPublishFailed(ctx, store, job, err)
		return nil, fmt.Errorf("publish job: %w", err)
	}
	return &SubmitJobResult{JobID: job.ID, Status: string(job.Status)}, nil
}

// markPublishFailed records a queue publish failure on the stored row so
// the job does not sit in queued forever with no envelope behind it.
func markPublishFailed(ctx context.Context, store *jobstore.Store, job *jobstore.Job, cause error) {
	job.SetFailed(fmt.Sprintf("publish to work queue: %v", cause))
	_ = store.Update(ctx, job)
}

// ListJobs returns job views, optionally filtered to the given statuses.
func ListJobs(ctx context.Context, cfg *config.Config, statuses ...jobstore.Status) ([]JobView, error) {
	store, err := jobstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	jobs, err := store.List(ctx, statuses...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return NewJobViews(jobs), nil
}

// ShowJob fetches a single job by id.
func ShowJob(ctx context.Context, cfg *config.Config, id int64) (*JobView, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid job id %d", id)
	}
	store, err := jobstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	job, err := store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch job: %w", err)
	}
	if job == nil {
		return nil, fmt.Errorf("job %d not found", id)
	}
	view := NewJobView(job)
	return &view, nil
}

// RetryJobs resets failed jobs back to queued and re-publishes their
// envelopes so a worker picks them up again from the script stage.
func RetryJobs(ctx context.Context, cfg *config.Config, ids ...int64) ([]int64, error) {
	store, err := jobstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	reset, err := store.RetryFailed(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("reset failed jobs: %w", err)
	}
	if len(reset) == 0 {
		return nil, nil
	}

	client, err := queue.Dial(ctx, cfg, logging.NewNop())
	if err != nil {
		return nil, fmt.Errorf("connect to work queue: %w", err)
	}
	defer client.Close()

	for _, id := range reset {
		job, err := store.GetByID(ctx, id)
		if err != nil || job == nil {
			return reset, fmt.Errorf("reload job %d after reset: %w", id, err)
		}
		env := queue.Envelope{
			JobID:         job.ID,
			Topic:         job.Topic,
			Niche:         job.Niche,
			Language:      job.Language,
			Voice:         job.Voice,
			LengthSeconds: job.LengthSeconds,
			Publish:       job.Publish,
			SubmittedAt:   time.Now().UTC(),
		}
		if err := client.Publish(ctx, env); err != nil {
			return reset, fmt.Errorf("re-publish job %d: %w", id, err)
		}
	}
	return reset, nil
}

// ClearJobs removes rows in the given statuses, or every terminal status
// when none are named.
func ClearJobs(ctx context.Context, cfg *config.Config, statuses ...jobstore.Status) (int64, error) {
	store, err := jobstore.Open(cfg)
	if err != nil {
		return 0, fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	if len(statuses) == 0 {
		statuses = []jobstore.Status{jobstore.StatusCompleted, jobstore.StatusPendingUpload, jobstore.StatusFailed}
	}
	removed, err := store.Clear(ctx, statuses...)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return removed, nil
}
