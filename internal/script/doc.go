// Package script turns a job topic into a validated ScriptObject by
// prompting the configured language model and enforcing the response
// shape before any downstream stage runs.
package script
