// Package daemon ties the worker process together: it holds the instance
// lock, runs the monitor HTTP server, and consumes job envelopes from the
// broker, handing each one to the pipeline runner under a per-job timeout.
package daemon
