// Package media wraps the ffmpeg and ffprobe binaries behind small
// helpers used by the narration and composition stages.
package media
