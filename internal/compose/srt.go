package compose

import (
	"fmt"
	"math"
	"strings"

	"reelforge/internal/fileutil"
	"reelforge/internal/services"
	"reelforge/internal/textutil"
)

// captionWrapWidth is the maximum characters per subtitle line.
const captionWrapWidth = 40

// WriteSRT emits one cue per section using the section timings. The first
// cue always starts at 00:00:00,000 because the first timing starts at zero.
func WriteSRT(path string, texts []string, timings []Timing) error {
	if len(texts) != len(timings) {
		return services.Wrap(services.ErrValidation, "compose", "captions",
			fmt.Sprintf("cue count %d does not match timing count %d", len(texts), len(timings)), nil)
	}
	var b strings.Builder
	for i := range timings {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", FormatTimestamp(timings[i].Start), FormatTimestamp(timings[i].End()))
		for _, line := range textutil.WrapLines(texts[i], captionWrapWidth) {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if err := fileutil.WriteFileAtomic(path, []byte(b.String()), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "compose", "captions", "write srt", err)
	}
	return nil
}

// FormatTimestamp renders seconds as the SRT HH:MM:SS,mmm clock.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int(math.Round(seconds * 1000))
	h := millis / 3_600_000
	millis -= h * 3_600_000
	m := millis / 60_000
	millis -= m * 60_000
	s := millis / 1000
	millis -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, millis)
}
