// Package thumbnail produces the video's cover image. An AI-generated
// image is requested when a key is configured; any failure falls back
// silently to a locally rendered card, so the stage never fails.
package thumbnail
