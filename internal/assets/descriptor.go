package assets

import (
	"path/filepath"
	"strings"
)

// Kind distinguishes downloaded footage from rendered slides.
type Kind string

const (
	KindClip  Kind = "clip"
	KindSlide Kind = "slide"
)

// Descriptor points at one section's visual. Ordering is positional: the
// descriptor at index i belongs to script section i.
type Descriptor struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
}

// IsVideo reports whether the asset is moving footage rather than a still.
func (d Descriptor) IsVideo() bool { return d.Kind == KindClip }

// KindForPath classifies a stored asset path by its file suffix.
func KindForPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov", ".mkv", ".webm":
		return KindClip
	default:
		return KindSlide
	}
}
