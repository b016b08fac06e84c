// Package pipeline drives one job through the ordered stages, persisting
// the job row after every stage so progress is durable before the next
// stage starts. A retried job always restarts from the script stage;
// there is no partial resumption.
package pipeline
