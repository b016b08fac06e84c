package jobstore_test

import (
	"context"
	"testing"

	"reelforge/internal/jobstore"
	"reelforge/internal/testsupport"
)

func TestOpenCreatesSchemaAndInsertsJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job, err := store.NewJob(ctx, jobstore.NewJobRequest{
		Topic:         "why the ocean is salty",
		Niche:         "science",
		Language:      "en",
		Voice:         "alloy",
		LengthSeconds: 60,
		Publish:       true,
	})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if job.ID == 0 {
		t.Fatal("expected job ID to be assigned")
	}
	if job.Status != jobstore.StatusQueued {
		t.Fatalf("expected queued status, got %s", job.Status)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Topic != "why the ocean is salty" {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}
	if !fetched.Publish {
		t.Fatal("expected publish flag to persist")
	}
	if fetched.LengthSeconds != 60 {
		t.Fatalf("unexpected length: %d", fetched.LengthSeconds)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job, err := store.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil for missing job, got %#v", job)
	}
}

func TestUpdatePersistsStageOutputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job, err := store.NewJob(ctx, jobstore.NewJobRequest{Topic: "ants", LengthSeconds: 45})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}

	job.Status = jobstore.StatusScriptGenerated
	job.ScriptJSON = `{"title":"Ant Facts"}`
	job.WorkDir = "/tmp/jobs/1_ants"
	job.SetMetadataValue("assets", []string{"01_clip.mp4"})
	job.SetProgress("script", "script generated")
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != jobstore.StatusScriptGenerated {
		t.Fatalf("unexpected status: %s", fetched.Status)
	}
	if fetched.ScriptJSON == "" {
		t.Fatal("expected script JSON to persist")
	}
	meta := fetched.Metadata()
	if _, ok := meta["assets"]; !ok {
		t.Fatalf("expected assets metadata, got %#v", meta)
	}
	if fetched.ProgressStage != "script" {
		t.Fatalf("unexpected progress stage: %q", fetched.ProgressStage)
	}
	if fetched.UpdatedAt.Before(fetched.CreatedAt) {
		t.Fatal("expected updated_at to advance")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, err := store.NewJob(ctx, jobstore.NewJobRequest{Topic: "first"})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	second, err := store.NewJob(ctx, jobstore.NewJobRequest{Topic: "second"})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}

	second.SetFailed("script stage failed")
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	failed, err := store.List(ctx, jobstore.StatusFailed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != second.ID {
		t.Fatalf("unexpected failed list: %#v", failed)
	}
	if failed[0].ErrorMessage != "script stage failed" {
		t.Fatalf("unexpected error message: %q", failed[0].ErrorMessage)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}
	if all[0].ID != first.ID {
		t.Fatalf("expected creation order, got %#v", all)
	}
}

func TestRetryFailedResetsToQueued(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job, err := store.NewJob(ctx, jobstore.NewJobRequest{Topic: "retryable"})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	job.Attempt = 3
	job.SetFailed("tts provider unavailable")
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reset, err := store.RetryFailed(ctx, job.ID)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if len(reset) != 1 || reset[0] != job.ID {
		t.Fatalf("unexpected reset ids: %v", reset)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != jobstore.StatusQueued {
		t.Fatalf("expected queued, got %s", fetched.Status)
	}
	if fetched.ErrorMessage != "" || fetched.Attempt != 0 {
		t.Fatalf("expected cleared error and attempt, got %#v", fetched)
	}
}

func TestClearRemovesTerminalJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	done, err := store.NewJob(ctx, jobstore.NewJobRequest{Topic: "done"})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	done.Status = jobstore.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := store.NewJob(ctx, jobstore.NewJobRequest{Topic: "waiting"}); err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}

	removed, err := store.Clear(ctx, jobstore.StatusCompleted)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	remaining, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Topic != "waiting" {
		t.Fatalf("unexpected remaining jobs: %#v", remaining)
	}
}

func TestHealthAggregatesCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	statuses := []jobstore.Status{
		jobstore.StatusQueued,
		jobstore.StatusProcessing,
		jobstore.StatusTTSComplete,
		jobstore.StatusPendingUpload,
		jobstore.StatusCompleted,
		jobstore.StatusFailed,
	}
	for i, status := range statuses {
		job, err := store.NewJob(ctx, jobstore.NewJobRequest{Topic: string(status)})
		if err != nil {
			t.Fatalf("NewJob %d failed: %v", i, err)
		}
		job.Status = status
		if err := store.Update(ctx, job); err != nil {
			t.Fatalf("Update %d failed: %v", i, err)
		}
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != len(statuses) {
		t.Fatalf("unexpected total: %d", health.Total)
	}
	if health.Queued != 1 || health.Processing != 2 || health.PendingUpload != 1 || health.Completed != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health summary: %#v", health)
	}
}

func TestPendingUploadRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job, err := store.NewJob(ctx, jobstore.NewJobRequest{Topic: "held back"})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}

	pending := &jobstore.PendingUpload{
		JobID:         job.ID,
		VideoPath:     "/videos/final.mp4",
		ThumbnailPath: "/videos/thumbnail.png",
		Title:         "Held Back",
		Description:   "a video we could not upload",
		Publish:       true,
		Reason:        "missing YouTube credentials",
	}
	pending.SetTags([]string{"science", "shorts"})
	if err := store.SavePendingUpload(ctx, pending); err != nil {
		t.Fatalf("SavePendingUpload failed: %v", err)
	}
	if pending.ID == 0 {
		t.Fatal("expected pending upload ID")
	}

	listed, err := store.ListPendingUploads(ctx)
	if err != nil {
		t.Fatalf("ListPendingUploads failed: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one pending upload, got %d", len(listed))
	}
	got := listed[0]
	if got.Reason != "missing YouTube credentials" || !got.Publish {
		t.Fatalf("unexpected pending upload: %#v", got)
	}
	tags := got.Tags()
	if len(tags) != 2 || tags[0] != "science" {
		t.Fatalf("unexpected tags: %v", tags)
	}

	byJob, err := store.PendingUploadForJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("PendingUploadForJob failed: %v", err)
	}
	if byJob == nil || byJob.ID != pending.ID {
		t.Fatalf("unexpected lookup result: %#v", byJob)
	}

	if err := store.DeletePendingUpload(ctx, pending.ID); err != nil {
		t.Fatalf("DeletePendingUpload failed: %v", err)
	}
	byJob, err = store.PendingUploadForJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("PendingUploadForJob failed: %v", err)
	}
	if byJob != nil {
		t.Fatalf("expected pending upload removed, got %#v", byJob)
	}
}

func TestResetForRunClearsArtifacts(t *testing.T) {
	job := jobstore.Job{
		Status:        jobstore.StatusFailed,
		ScriptJSON:    `{"title":"x"}`,
		NarrationFile: "/tmp/narration.mp3",
		VideoFile:     "/tmp/final.mp4",
		ErrorMessage:  "composition failed",
	}
	job.ResetForRun()
	if job.Status != jobstore.StatusProcessing {
		t.Fatalf("unexpected status: %s", job.Status)
	}
	if job.ScriptJSON != "" || job.NarrationFile != "" || job.VideoFile != "" || job.ErrorMessage != "" {
		t.Fatalf("expected cleared artifacts: %#v", job)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := jobstore.ParseStatus("  Tts_Complete "); !ok || status != jobstore.StatusTTSComplete {
		t.Fatalf("unexpected parse result: %v %v", status, ok)
	}
	if _, ok := jobstore.ParseStatus("uploading"); ok {
		t.Fatal("expected unknown status to fail")
	}
	if !jobstore.IsTerminal(jobstore.StatusPendingUpload) {
		t.Fatal("pending_upload should be terminal")
	}
	if jobstore.IsTerminal(jobstore.StatusAssetsReady) {
		t.Fatal("assets_ready should not be terminal")
	}
}
