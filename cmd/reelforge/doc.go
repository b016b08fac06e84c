// Package main hosts the ReelForge CLI entrypoint and command graph.
//
// The Cobra-based command tree submits jobs to the broker, inspects and
// maintains the job store, and scaffolds configuration. It centralizes
// configuration resolution so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
