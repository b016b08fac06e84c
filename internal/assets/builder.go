package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"reelforge/internal/jobstore"
	"reelforge/internal/logging"
	"reelforge/internal/script"
	"reelforge/internal/services"
	"reelforge/internal/stage"
)

const assetsDirName = "assets"

// metadataKey is where the ordered descriptor list is stored on the job row.
const metadataKey = "assets"

// Builder is the pipeline stage that produces one visual per script section.
type Builder struct {
	pexels *PexelsClient
	logger *slog.Logger
}

func NewBuilder(pexels *PexelsClient, logger *slog.Logger) *Builder {
	return &Builder{
		pexels: pexels,
		logger: logging.NewComponentLogger(logger, "assets"),
	}
}

func (b *Builder) Prepare(ctx context.Context, job *jobstore.Job) error {
	if job.ScriptJSON == "" {
		return services.Wrap(services.ErrValidation, "assets", "prepare", "job has no script", nil)
	}
	if job.WorkDir == "" {
		return services.Wrap(services.ErrValidation, "assets", "prepare", "job has no working directory", nil)
	}
	job.SetProgress("assets", "collecting section visuals")
	return nil
}

// Execute walks sections in order. Each section independently tries stock
// footage first and degrades to a rendered slide; a failed section never
// fails the stage.
func (b *Builder) Execute(ctx context.Context, job *jobstore.Job) error {
	obj, err := script.FromJob(job)
	if err != nil {
		return err
	}
	dir := filepath.Join(job.WorkDir, assetsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "assets", "build", "create assets directory", err)
	}

	descriptors := make([]Descriptor, 0, len(obj.Sections))
	clips := 0
	for i, section := range obj.Sections {
		desc := b.buildSection(ctx, dir, i, section)
		if desc.Kind == KindClip {
			clips++
		}
		descriptors = append(descriptors, desc)
	}

	if err := StoreDescriptors(job, descriptors); err != nil {
		return err
	}
	job.Status = jobstore.StatusAssetsReady
	b.logger.InfoContext(ctx, "assets collected",
		logging.Int("sections", len(descriptors)),
		logging.Int("clips", clips),
		logging.Int("slides", len(descriptors)-clips))
	return nil
}

// buildSection returns the descriptor for one section, index is 0-based.
func (b *Builder) buildSection(ctx context.Context, dir string, index int, section script.Section) Descriptor {
	if b.pexels.Configured() {
		query := section.BRoll
		if query == "" {
			query = section.Heading
		}
		clipPath := filepath.Join(dir, fmt.Sprintf("%02d_clip.mp4", index+1))
		err := b.fetchClip(ctx, query, clipPath)
		if err == nil {
			return Descriptor{Path: clipPath, Kind: KindClip}
		}
		b.logger.WarnContext(ctx, "stock footage unavailable, rendering slide",
			logging.Int("section", index+1),
			logging.String("query", query),
			logging.Error(err))
	}
	slidePath := filepath.Join(dir, fmt.Sprintf("%02d_slide.png", index+1))
	if err := RenderSlide(section.Heading, section.Body, slidePath); err != nil {
		b.logger.ErrorContext(ctx, "slide render failed", logging.Int("section", index+1), logging.Error(err))
		return Descriptor{Path: slidePath, Kind: KindSlide}
	}
	return Descriptor{Path: slidePath, Kind: KindSlide}
}

func (b *Builder) fetchClip(ctx context.Context, query, path string) error {
	link, err := b.pexels.FindClipURL(ctx, query)
	if err != nil {
		return err
	}
	return b.pexels.Download(ctx, link, path)
}

func (b *Builder) HealthCheck(ctx context.Context) stage.Health {
	if !b.pexels.Configured() {
		return stage.Health{Name: "assets", Ready: true, Detail: "no stock footage key, slides only"}
	}
	return stage.Healthy("assets")
}

// StoreDescriptors records the ordered asset list in job metadata.
func StoreDescriptors(job *jobstore.Job, descriptors []Descriptor) error {
	encoded, err := json.Marshal(descriptors)
	if err != nil {
		return services.Wrap(services.ErrValidation, "assets", "store", "encode descriptors", err)
	}
	job.SetMetadataValue(metadataKey, json.RawMessage(encoded))
	return nil
}

// DescriptorsFromJob decodes the ordered asset list stored by Execute.
func DescriptorsFromJob(job *jobstore.Job) ([]Descriptor, error) {
	value, ok := job.Metadata()[metadataKey]
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "assets", "load", "job has no assets", nil)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "assets", "load", "re-encode assets metadata", err)
	}
	var descriptors []Descriptor
	if err := json.Unmarshal(encoded, &descriptors); err != nil {
		return nil, services.Wrap(services.ErrValidation, "assets", "load", "decode assets metadata", err)
	}
	if len(descriptors) == 0 {
		return nil, services.Wrap(services.ErrValidation, "assets", "load", "job has no assets", nil)
	}
	return descriptors, nil
}
