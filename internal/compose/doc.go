// Package compose assembles the final video: per-section segments cut to
// word-count proportional durations, cross-faded, normalized to 1920x1080
// and muxed with the narration track. A matching SRT caption file is
// emitted alongside the video.
package compose
