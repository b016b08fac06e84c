package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/services"
)

const (
	defaultElevenLabsVoiceID = "21m00Tcm4TlvDq8ikWAM"

	elevenLabsRetryAttempts = 3
	elevenLabsRetryBase     = 2 * time.Second
	elevenLabsRetryCap      = 10 * time.Second
)

// elevenLabsVoiceAliases remaps generic voice profile names onto
// ElevenLabs voice identifiers. Unknown values pass through unchanged so
// explicit voice ids keep working.
var elevenLabsVoiceAliases = map[string]string{
	"alloy":   defaultElevenLabsVoiceID,
	"default": defaultElevenLabsVoiceID,
	"":        defaultElevenLabsVoiceID,
}

// ElevenLabs synthesizes speech through the ElevenLabs HTTP API.
type ElevenLabs struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	retry   services.RetryPolicy
}

// ElevenLabsConfig carries the provider settings taken from the narration
// section of the daemon configuration.
type ElevenLabsConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

func NewElevenLabs(cfg ElevenLabsConfig) *ElevenLabs {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}
	model := cfg.Model
	if model == "" {
		model = "eleven_multilingual_v2"
	}
	return &ElevenLabs{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		retry: services.RetryPolicy{
			Attempts: elevenLabsRetryAttempts,
			Base:     elevenLabsRetryBase,
			Cap:      elevenLabsRetryCap,
		},
	}
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }

func (e *ElevenLabs) Configured() bool { return e.apiKey != "" }

// WithRetrySleep overrides the retry sleeper, used by tests.
func (e *ElevenLabs) WithRetrySleep(sleep func(time.Duration)) *ElevenLabs {
	e.retry.Sleep = sleep
	return e
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	voiceID := voice
	if mapped, ok := elevenLabsVoiceAliases[strings.ToLower(strings.TrimSpace(voice))]; ok {
		voiceID = mapped
	}
	var audio []byte
	err := e.retry.Do(ctx, func() error {
		var synthErr error
		audio, synthErr = e.synthesizeOnce(ctx, text, voiceID)
		return synthErr
	}, services.IsRetriable)
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func (e *ElevenLabs) synthesizeOnce(ctx context.Context, text, voiceID string) ([]byte, error) {
	body, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": e.model,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "narration", "elevenlabs", "encode request", err)
	}
	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=mp3_44100_128", e.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "narration", "elevenlabs", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "narration", "elevenlabs", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		message := fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, services.Wrap(services.ErrTransient, "narration", "elevenlabs", message, nil)
		}
		return nil, services.Wrap(services.ErrValidation, "narration", "elevenlabs", message, nil)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "narration", "elevenlabs", "read audio", err)
	}
	if len(audio) == 0 {
		return nil, services.Wrap(services.ErrTransient, "narration", "elevenlabs", "empty audio response", nil)
	}
	return audio, nil
}
