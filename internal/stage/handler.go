package stage

import (
	"context"

	"reelforge/internal/jobstore"
)

// Handler describes the contract the pipeline runner needs from each stage.
// Prepare validates inputs and sets up working state before Execute performs
// the stage work against the job, persisting outputs onto the job record.
type Handler interface {
	Prepare(context.Context, *jobstore.Job) error
	Execute(context.Context, *jobstore.Job) error
	HealthCheck(context.Context) Health
}
