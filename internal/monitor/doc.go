// Package monitor serves the worker's HTTP surface: health and readiness,
// a small job API and the Prometheus metrics endpoint.
package monitor
