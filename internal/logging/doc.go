// Package logging builds the slog loggers used across Reelforge.
//
// It supports a human-oriented console format and a machine-oriented JSON
// format, fans output out to stdout and a shared log file, and standardizes
// structured field names (component, job_id, stage) so log lines stay
// greppable across the worker and CLI. Context-derived attributes come from
// the services package annotations.
package logging
