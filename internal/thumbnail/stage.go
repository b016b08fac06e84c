package thumbnail

import (
	"context"
	"log/slog"
	"path/filepath"

	"reelforge/internal/jobstore"
	"reelforge/internal/logging"
	"reelforge/internal/script"
	"reelforge/internal/services"
	"reelforge/internal/stage"
)

const thumbnailFileName = "thumbnail.png"

// Stage produces the cover image for a composed video. It degrades from
// AI generation to the drawn card and only fails on local disk errors.
type Stage struct {
	client *AIClient
	logger *slog.Logger
}

func NewStage(client *AIClient, logger *slog.Logger) *Stage {
	return &Stage{
		client: client,
		logger: logging.NewComponentLogger(logger, "thumbnail"),
	}
}

func (s *Stage) Prepare(ctx context.Context, job *jobstore.Job) error {
	if job.ScriptJSON == "" {
		return services.Wrap(services.ErrValidation, "thumbnail", "prepare", "job has no script", nil)
	}
	if job.WorkDir == "" {
		return services.Wrap(services.ErrValidation, "thumbnail", "prepare", "job has no working directory", nil)
	}
	job.SetProgress("thumbnail", "producing thumbnail")
	return nil
}

func (s *Stage) Execute(ctx context.Context, job *jobstore.Job) error {
	obj, err := script.FromJob(job)
	if err != nil {
		return err
	}
	path := filepath.Join(job.WorkDir, thumbnailFileName)

	if s.client.Configured() {
		err := s.client.Generate(ctx, Prompt(obj.Title, obj.Hook), path)
		if err == nil {
			job.ThumbnailFile = path
			job.Status = jobstore.StatusThumbnailReady
			job.SetMetadataValue("thumbnail_source", "generated")
			s.logger.InfoContext(ctx, "thumbnail generated")
			return nil
		}
		s.logger.WarnContext(ctx, "image generation failed, rendering card", logging.Error(err))
	}

	if err := RenderCard(obj.Title, obj.Hook, path); err != nil {
		return err
	}
	job.ThumbnailFile = path
	job.Status = jobstore.StatusThumbnailReady
	job.SetMetadataValue("thumbnail_source", "card")
	s.logger.InfoContext(ctx, "thumbnail rendered")
	return nil
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if !s.client.Configured() {
		return stage.Health{Name: "thumbnail", Ready: true, Detail: "no image key, card fallback only"}
	}
	return stage.Healthy("thumbnail")
}
