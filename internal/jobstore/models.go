package jobstore

import (
	"encoding/json"
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued          Status = "queued"
	StatusProcessing      Status = "processing"
	StatusScriptGenerated Status = "script_generated"
	StatusTTSComplete     Status = "tts_complete"
	StatusAssetsReady     Status = "assets_ready"
	StatusVideoComposed   Status = "video_composed"
	StatusThumbnailReady  Status = "thumbnail_ready"
	StatusPendingUpload   Status = "pending_upload"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusScriptGenerated,
	StatusTTSComplete,
	StatusAssetsReady,
	StatusVideoComposed,
	StatusThumbnailReady,
	StatusPendingUpload,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// inFlightStatuses are the states a live worker moves a job through. Statuses
// past a stage checkpoint still count as in flight because the worker holds
// the job until a terminal state.
var inFlightStatuses = map[Status]struct{}{
	StatusProcessing:      {},
	StatusScriptGenerated: {},
	StatusTTSComplete:     {},
	StatusAssetsReady:     {},
	StatusVideoComposed:   {},
	StatusThumbnailReady:  {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends the pipeline for a job.
func IsTerminal(status Status) bool {
	switch status {
	case StatusCompleted, StatusPendingUpload, StatusFailed:
		return true
	default:
		return false
	}
}

// IsInFlightStatus reports whether a status reflects an in-flight job.
func IsInFlightStatus(status Status) bool {
	_, ok := inFlightStatuses[status]
	return ok
}

// HealthSummary describes aggregated job counts per key lifecycle states.
type HealthSummary struct {
	Total         int
	Queued        int
	Processing    int
	PendingUpload int
	Completed     int
	Failed        int
}

// Job represents a content factory job persisted in SQLite.
type Job struct {
	ID            int64
	Topic         string
	Niche         string
	Language      string
	Voice         string
	LengthSeconds int
	Publish       bool
	Status        Status
	Attempt       int
	WorkDir       string
	ScriptJSON    string
	NarrationFile string
	CaptionsFile  string
	VideoFile     string
	ThumbnailFile string
	VideoID       string
	ErrorMessage  string
	MetadataJSON  string
	ProgressStage string
	ProgressMsg   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastHeartbeat *time.Time
}

// PendingUpload records a finished video that could not be pushed to YouTube,
// typically because OAuth credentials were absent.
type PendingUpload struct {
	ID            int64
	JobID         int64
	VideoPath     string
	ThumbnailPath string
	Title         string
	Description   string
	TagsJSON      string
	Publish       bool
	Reason        string
	CreatedAt     time.Time
}

// IsInFlight returns true when the job is being worked on.
func (j Job) IsInFlight() bool {
	_, ok := inFlightStatuses[j.Status]
	return ok
}

// SetProgress updates the progress fields shown by the monitor API.
func (j *Job) SetProgress(stage, message string) {
	j.ProgressStage = stage
	j.ProgressMsg = message
}

// SetFailed marks the job as failed with the given error message.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressStage = "failed"
	j.ProgressMsg = message
	j.LastHeartbeat = nil
}

// ResetForRun clears per-run state so a re-delivered job restarts from the
// script stage.
func (j *Job) ResetForRun() {
	j.Status = StatusProcessing
	j.ErrorMessage = ""
	j.ScriptJSON = ""
	j.NarrationFile = ""
	j.CaptionsFile = ""
	j.VideoFile = ""
	j.ThumbnailFile = ""
	j.VideoID = ""
	j.MetadataJSON = ""
	j.ProgressStage = ""
	j.ProgressMsg = ""
}

// Metadata decodes the metadata JSON blob into a map. Returns an empty map
// when the blob is absent or malformed.
func (j Job) Metadata() map[string]any {
	meta := map[string]any{}
	if strings.TrimSpace(j.MetadataJSON) == "" {
		return meta
	}
	_ = json.Unmarshal([]byte(j.MetadataJSON), &meta)
	return meta
}

// SetMetadataValue merges a single key into the metadata JSON blob.
func (j *Job) SetMetadataValue(key string, value any) {
	meta := j.Metadata()
	meta[key] = value
	encoded, err := json.Marshal(meta)
	if err != nil {
		return
	}
	j.MetadataJSON = string(encoded)
}

// Tags decodes the tags recorded for pending uploads.
func (p PendingUpload) Tags() []string {
	var tags []string
	if strings.TrimSpace(p.TagsJSON) == "" {
		return nil
	}
	_ = json.Unmarshal([]byte(p.TagsJSON), &tags)
	return tags
}
