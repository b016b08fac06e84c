package queue

import (
	"testing"
	"time"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env := Envelope{
		JobID:         12,
		Topic:         "why cats purr",
		Niche:         "animals",
		Language:      "en",
		Voice:         "alloy",
		LengthSeconds: 45,
		Publish:       true,
		SubmittedAt:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		Attempt:       1,
	}

	body, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := DecodeEnvelope(body)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if decoded != env {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", decoded, env)
	}
}

func TestDecodeEnvelopeRejectsBadPayloads(t *testing.T) {
	if _, err := DecodeEnvelope([]byte("not json")); err == nil {
		t.Fatal("expected decode error for invalid JSON")
	}
	if _, err := DecodeEnvelope([]byte(`{"job_id":0,"topic":"x"}`)); err == nil {
		t.Fatal("expected validation error for missing job id")
	}
	if _, err := DecodeEnvelope([]byte(`{"job_id":3,"topic":"  "}`)); err == nil {
		t.Fatal("expected validation error for blank topic")
	}
}

func TestNextAttemptIncrements(t *testing.T) {
	env := Envelope{JobID: 1, Topic: "x", Attempt: 0}
	next := env.NextAttempt()
	if next.Attempt != 1 {
		t.Fatalf("expected attempt 1, got %d", next.Attempt)
	}
	if env.Attempt != 0 {
		t.Fatal("NextAttempt should not mutate the receiver")
	}
}
