// Package config loads, normalizes, and validates Reelforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and YOUTUBE_CLIENT_ID. The Config type centralizes every
// knob the worker and CLI need, from storage directories to per-provider
// credentials and timeouts.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
