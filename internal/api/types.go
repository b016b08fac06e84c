package api

import (
	"time"

	"reelforge/internal/jobstore"
)

// JobView is the job representation shared by the CLI tables and the
// monitor server's JSON responses.
type JobView struct {
	ID            int64     `json:"id"`
	Topic         string    `json:"topic"`
	Niche         string    `json:"niche,omitempty"`
	Language      string    `json:"language,omitempty"`
	Voice         string    `json:"voice,omitempty"`
	LengthSeconds int       `json:"length_seconds"`
	Publish       bool      `json:"publish"`
	Status        string    `json:"status"`
	Attempt       int       `json:"attempt"`
	ProgressStage string    `json:"progress_stage,omitempty"`
	ProgressMsg   string    `json:"progress_message,omitempty"`
	VideoID       string    `json:"video_id,omitempty"`
	VideoFile     string    `json:"video_file,omitempty"`
	ErrorMessage  string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewJobView converts a stored job row into the shared representation.
func NewJobView(job *jobstore.Job) JobView {
	return JobView{
		ID:            job.ID,
		Topic:         job.Topic,
		Niche:         job.Niche,
		Language:      job.Language,
		Voice:         job.Voice,
		LengthSeconds: job.LengthSeconds,
		Publish:       job.Publish,
		Status:        string(job.Status),
		Attempt:       job.Attempt,
		ProgressStage: job.ProgressStage,
		ProgressMsg:   job.ProgressMsg,
		VideoID:       job.VideoID,
		VideoFile:     job.VideoFile,
		ErrorMessage:  job.ErrorMessage,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
}

// NewJobViews converts a slice of rows.
func NewJobViews(jobs []*jobstore.Job) []JobView {
	views := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, NewJobView(job))
	}
	return views
}
