package deps

import (
	"fmt"
	"strings"

	"reelforge/internal/config"
)

// Required lists the external binaries the pipeline executes. Composition
// cannot run without ffmpeg and ffprobe, so neither is optional.
func Required(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Renders segments and muxes the final video",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Measures narration duration before composition",
		},
	}
}

// Verify checks the required binaries and returns an error naming every
// missing one.
func Verify(cfg *config.Config) error {
	var missing []string
	for _, status := range CheckBinaries(Required(cfg)) {
		if !status.Available && !status.Optional {
			missing = append(missing, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required binaries: %s", strings.Join(missing, ", "))
	}
	return nil
}
