package pipeline

import (
	"context"
	"log/slog"

	"reelforge/internal/assets"
	"reelforge/internal/compose"
	"reelforge/internal/config"
	"reelforge/internal/jobstore"
	"reelforge/internal/metrics"
	"reelforge/internal/narration"
	"reelforge/internal/notifications"
	"reelforge/internal/script"
	"reelforge/internal/services/llm"
	"reelforge/internal/thumbnail"
	"reelforge/internal/upload"
)

// NewDefaultRunner wires the standard six-stage pipeline from configuration.
func NewDefaultRunner(ctx context.Context, cfg *config.Config, store *jobstore.Store, notifier notifications.Service, m *metrics.Metrics, logger *slog.Logger) *Runner {
	runner := NewRunner(store, cfg.Paths.StorageDir, notifier, m, logger)

	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	runner.AddStage("script", script.NewGenerator(llmClient, logger))

	providers := []narration.Provider{
		narration.NewElevenLabs(narration.ElevenLabsConfig{
			APIKey:         cfg.Narration.ElevenLabsAPIKey,
			BaseURL:        cfg.Narration.ElevenLabsBaseURL,
			Model:          cfg.Narration.ElevenLabsModel,
			TimeoutSeconds: cfg.Narration.TimeoutSeconds,
		}),
		narration.NewPolly(ctx, cfg.Narration.PollyRegion),
	}
	runner.AddStage("narration", narration.NewStage(providers, cfg.FFmpegBinary(), logger))

	pexels := assets.NewPexelsClient(assets.PexelsConfig{
		APIKey:         cfg.Assets.PexelsAPIKey,
		BaseURL:        cfg.Assets.PexelsBaseURL,
		TimeoutSeconds: cfg.Assets.TimeoutSeconds,
	})
	runner.AddStage("assets", assets.NewBuilder(pexels, logger))

	runner.AddStage("compose", compose.NewComposer(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger))

	runner.AddStage("thumbnail", thumbnail.NewStage(thumbnail.NewAIClient(thumbnail.AIConfig{
		APIKey:         cfg.Thumbnail.OpenAIAPIKey,
		BaseURL:        cfg.Thumbnail.OpenAIBaseURL,
		Model:          cfg.Thumbnail.Model,
		TimeoutSeconds: cfg.Thumbnail.TimeoutSeconds,
	}), logger))

	runner.AddStage("upload", upload.NewUploader(cfg.Upload, store, logger))
	return runner
}
