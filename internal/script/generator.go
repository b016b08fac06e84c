package script

import (
	"context"
	"encoding/json"
	"log/slog"

	"reelforge/internal/jobstore"
	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/services/llm"
	"reelforge/internal/stage"
)

// Generator is the pipeline stage that produces the ScriptObject for a
// job and records it on the job row.
type Generator struct {
	client *llm.Client
	logger *slog.Logger
}

func NewGenerator(client *llm.Client, logger *slog.Logger) *Generator {
	return &Generator{
		client: client,
		logger: logging.NewComponentLogger(logger, "script"),
	}
}

func (g *Generator) Prepare(ctx context.Context, job *jobstore.Job) error {
	if job.Topic == "" {
		return services.Wrap(services.ErrValidation, "script", "prepare", "job has no topic", nil)
	}
	job.SetProgress("script", "generating script")
	return nil
}

// Execute invokes the model and validates the response. Transport failures
// are retried inside the client; parse and validation failures are not,
// since an unchanged prompt would reproduce the same response shape.
func (g *Generator) Execute(ctx context.Context, job *jobstore.Job) error {
	content, err := g.client.CompleteJSON(ctx, systemPrompt, UserPrompt(job.Topic, job.Niche, job.Language, job.LengthSeconds))
	if err != nil {
		return services.Wrap(services.ErrTransient, "script", "generate", "llm request failed", err)
	}

	var payload json.RawMessage
	if err := llm.DecodeLLMJSON(content, &payload); err != nil {
		return services.Wrap(services.ErrMalformedResponse, "script", "parse", "model response is not valid JSON", err)
	}
	obj, err := Parse(payload)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(obj)
	if err != nil {
		return services.Wrap(services.ErrMalformedResponse, "script", "encode", "failed to encode script object", err)
	}
	job.ScriptJSON = string(encoded)
	job.Status = jobstore.StatusScriptGenerated
	job.SetMetadataValue("title", obj.Title)
	job.SetMetadataValue("section_count", len(obj.Sections))

	g.logger.InfoContext(ctx, "script generated",
		logging.String("title", obj.Title),
		logging.Int("sections", len(obj.Sections)))
	return nil
}

func (g *Generator) HealthCheck(ctx context.Context) stage.Health {
	if err := g.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("script", err.Error())
	}
	return stage.Healthy("script")
}

// FromJob decodes the ScriptObject previously stored on a job row.
func FromJob(job *jobstore.Job) (*ScriptObject, error) {
	if job.ScriptJSON == "" {
		return nil, services.Wrap(services.ErrValidation, "script", "load", "job has no script", nil)
	}
	return Parse([]byte(job.ScriptJSON))
}
