package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Envelope is the wire form of a job submission.
type Envelope struct {
	JobID         int64     `json:"job_id"`
	Topic         string    `json:"topic"`
	Niche         string    `json:"niche,omitempty"`
	Language      string    `json:"language,omitempty"`
	Voice         string    `json:"voice,omitempty"`
	LengthSeconds int       `json:"length_seconds"`
	Publish       bool      `json:"publish"`
	SubmittedAt   time.Time `json:"submitted_at"`
	Attempt       int       `json:"attempt"`
}

// Validate checks the envelope carries enough to run a job.
func (e Envelope) Validate() error {
	if e.JobID <= 0 {
		return fmt.Errorf("envelope job_id must be positive, got %d", e.JobID)
	}
	if strings.TrimSpace(e.Topic) == "" {
		return fmt.Errorf("envelope for job %d has empty topic", e.JobID)
	}
	return nil
}

// NextAttempt returns a copy of the envelope with the attempt counter bumped.
func (e Envelope) NextAttempt() Envelope {
	e.Attempt++
	return e
}

// Encode serializes the envelope for publishing.
func (e Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// DecodeEnvelope parses and validates an envelope from a delivery body.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
