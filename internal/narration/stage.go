package narration

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reelforge/internal/fileutil"
	"reelforge/internal/jobstore"
	"reelforge/internal/logging"
	"reelforge/internal/media"
	"reelforge/internal/script"
	"reelforge/internal/services"
	"reelforge/internal/stage"
)

const narrationFileName = "narration.mp3"

// Stage runs the provider chain for one job and records the narration
// file on the job row.
type Stage struct {
	providers []Provider
	ffmpeg    string
	logger    *slog.Logger
}

func NewStage(providers []Provider, ffmpegBinary string, logger *slog.Logger) *Stage {
	return &Stage{
		providers: providers,
		ffmpeg:    ffmpegBinary,
		logger:    logging.NewComponentLogger(logger, "narration"),
	}
}

func (s *Stage) Prepare(ctx context.Context, job *jobstore.Job) error {
	if job.ScriptJSON == "" {
		return services.Wrap(services.ErrValidation, "narration", "prepare", "job has no script", nil)
	}
	if job.WorkDir == "" {
		return services.Wrap(services.ErrValidation, "narration", "prepare", "job has no working directory", nil)
	}
	job.SetProgress("narration", "synthesizing narration")
	return nil
}

func (s *Stage) Execute(ctx context.Context, job *jobstore.Job) error {
	obj, err := script.FromJob(job)
	if err != nil {
		return err
	}
	text := obj.NarrationText()
	if strings.TrimSpace(text) == "" {
		return services.Wrap(services.ErrValidation, "narration", "synthesize", "script produced no narration text", nil)
	}

	configured := s.configuredProviders()
	if len(configured) == 0 {
		return services.Wrap(services.ErrCredentialsMissing, "narration", "synthesize",
			"no narration provider configured: set an ElevenLabs API key or AWS credentials for Polly", nil)
	}

	chunks := SplitChunks(text, ChunkLimit)
	outputPath := filepath.Join(job.WorkDir, narrationFileName)

	var lastErr error
	for _, provider := range configured {
		if err := s.synthesizeAll(ctx, provider, chunks, job.Voice, outputPath); err != nil {
			lastErr = err
			s.logger.WarnContext(ctx, "narration provider failed",
				logging.String("provider", provider.Name()),
				logging.Error(err))
			continue
		}
		job.NarrationFile = outputPath
		job.Status = jobstore.StatusTTSComplete
		job.SetMetadataValue("narration_provider", provider.Name())
		s.logger.InfoContext(ctx, "narration synthesized",
			logging.String("provider", provider.Name()),
			logging.Int("chunks", len(chunks)))
		return nil
	}
	return services.Wrap(services.ErrTransient, "narration", "synthesize", "all narration providers failed", lastErr)
}

func (s *Stage) synthesizeAll(ctx context.Context, provider Provider, chunks []string, voice, outputPath string) error {
	chunkDir := filepath.Join(filepath.Dir(outputPath), "narration_chunks")
	if err := os.MkdirAll(chunkDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "narration", "synthesize", "create chunk directory", err)
	}
	paths := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		audio, err := provider.Synthesize(ctx, chunk, voice)
		if err != nil {
			return err
		}
		path := filepath.Join(chunkDir, fmt.Sprintf("chunk_%02d.mp3", i+1))
		if err := fileutil.WriteFileAtomic(path, audio, 0o644); err != nil {
			return services.Wrap(services.ErrTransient, "narration", "synthesize", "write chunk", err)
		}
		paths = append(paths, path)
	}
	if err := media.ConcatAudio(ctx, s.ffmpeg, paths, outputPath); err != nil {
		return services.Wrap(services.ErrTransient, "narration", "synthesize", "concatenate chunks", err)
	}
	return nil
}

func (s *Stage) configuredProviders() []Provider {
	configured := make([]Provider, 0, len(s.providers))
	for _, provider := range s.providers {
		if provider.Configured() {
			configured = append(configured, provider)
		}
	}
	return configured
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	names := make([]string, 0, len(s.providers))
	for _, provider := range s.configuredProviders() {
		names = append(names, provider.Name())
	}
	if len(names) == 0 {
		return stage.Unhealthy("narration", "no provider configured")
	}
	return stage.Healthy("narration")
}
