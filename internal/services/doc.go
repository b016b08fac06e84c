// Package services provides the shared error taxonomy and context
// annotations used by pipeline stages. Stage failures are tagged with a
// sentinel marker so the orchestrator can classify them without string
// matching; retry loops operate purely on the transient-vs-fatal split.
package services
