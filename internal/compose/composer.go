package compose

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reelforge/internal/assets"
	"reelforge/internal/jobstore"
	"reelforge/internal/logging"
	"reelforge/internal/media"
	"reelforge/internal/script"
	"reelforge/internal/services"
	"reelforge/internal/stage"
	"reelforge/internal/textutil"
)

const (
	targetWidth  = 1920
	targetHeight = 1080
	defaultFPS   = 30

	// crossfadeSeconds is the transition length between consecutive
	// segments. No fade runs before the first segment.
	crossfadeSeconds = 0.5

	videoFileName    = "final.mp4"
	captionsFileName = "captions.srt"
)

// Composer is the pipeline stage that renders the final video and captions.
type Composer struct {
	ffmpeg  string
	ffprobe string
	fps     int
	logger  *slog.Logger
}

func NewComposer(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Composer {
	return &Composer{
		ffmpeg:  ffmpegBinary,
		ffprobe: ffprobeBinary,
		fps:     defaultFPS,
		logger:  logging.NewComponentLogger(logger, "compose"),
	}
}

func (c *Composer) Prepare(ctx context.Context, job *jobstore.Job) error {
	if job.NarrationFile == "" {
		return services.Wrap(services.ErrFileMissing, "compose", "prepare", "job has no narration file", nil)
	}
	job.SetProgress("compose", "rendering video")
	return nil
}

func (c *Composer) Execute(ctx context.Context, job *jobstore.Job) error {
	obj, err := script.FromJob(job)
	if err != nil {
		return err
	}
	if _, err := os.Stat(job.NarrationFile); err != nil {
		return services.Wrap(services.ErrFileMissing, "compose", "render",
			fmt.Sprintf("narration file missing: %s", job.NarrationFile), err)
	}
	descriptors, err := assets.DescriptorsFromJob(job)
	if err != nil {
		return err
	}
	if len(descriptors) != len(obj.Sections) {
		return services.Wrap(services.ErrValidation, "compose", "render",
			fmt.Sprintf("asset count %d does not match section count %d", len(descriptors), len(obj.Sections)), nil)
	}

	// Sections whose asset vanished from disk are dropped; the narration
	// time they covered is reallocated across the survivors so video
	// length still matches the audio track.
	sections, usable := filterUsable(obj.Sections, descriptors)
	if len(usable) == 0 {
		return services.Wrap(services.ErrFileMissing, "compose", "render", "no usable assets on disk", nil)
	}

	total, err := media.Duration(ctx, c.ffprobe, job.NarrationFile)
	if err != nil {
		return services.Wrap(services.ErrTransient, "compose", "render", "probe narration duration", err)
	}

	wordCounts := make([]int, len(sections))
	for i, section := range sections {
		wordCounts[i] = textutil.WordCount(section.Heading + " " + section.Body)
	}
	timings := Allocate(wordCounts, total)

	segments, err := c.renderSegments(ctx, job.WorkDir, usable, timings)
	if err != nil {
		return err
	}
	videoPath := filepath.Join(job.WorkDir, videoFileName)
	if err := c.joinSegments(ctx, segments, timings, job.NarrationFile, videoPath); err != nil {
		return err
	}

	captionsPath := filepath.Join(job.WorkDir, captionsFileName)
	texts := make([]string, len(sections))
	for i, section := range sections {
		texts[i] = strings.TrimSpace(section.Heading + ": " + section.Body)
	}
	if err := WriteSRT(captionsPath, texts, timings); err != nil {
		return err
	}

	job.VideoFile = videoPath
	job.CaptionsFile = captionsPath
	job.Status = jobstore.StatusVideoComposed
	c.logger.InfoContext(ctx, "video composed",
		logging.Int("segments", len(segments)),
		logging.Float64("duration_seconds", total))
	return nil
}

func filterUsable(sections []script.Section, descriptors []assets.Descriptor) ([]script.Section, []assets.Descriptor) {
	kept := make([]script.Section, 0, len(sections))
	usable := make([]assets.Descriptor, 0, len(descriptors))
	for i, desc := range descriptors {
		if _, err := os.Stat(desc.Path); err != nil {
			continue
		}
		kept = append(kept, sections[i])
		usable = append(usable, desc)
	}
	return kept, usable
}

// renderSegments normalizes each asset to the target resolution and cuts it
// to its allotted duration. Clips shorter than their slot are looped before
// trimming; stills are held for the full slot.
func (c *Composer) renderSegments(ctx context.Context, workDir string, usable []assets.Descriptor, timings []Timing) ([]string, error) {
	segmentDir := filepath.Join(workDir, "segments")
	if err := os.MkdirAll(segmentDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "compose", "render", "create segments directory", err)
	}
	segments := make([]string, len(usable))
	for i, desc := range usable {
		duration := timings[i].Duration
		if i == len(usable)-1 {
			// Each crossfade overlaps the timeline by its length, so the
			// last segment is extended to keep video and audio aligned.
			duration += crossfadeSeconds * float64(len(usable)-1)
		}
		out := filepath.Join(segmentDir, fmt.Sprintf("segment_%02d.mp4", i+1))
		args := segmentArgs(desc, duration, c.fps, out)
		if err := media.Run(ctx, c.ffmpeg, args...); err != nil {
			return nil, services.Wrap(services.ErrTransient, "compose", "render",
				fmt.Sprintf("render segment %d", i+1), err)
		}
		segments[i] = out
	}
	return segments, nil
}

// segmentArgs builds the ffmpeg invocation for one normalized segment.
func segmentArgs(desc assets.Descriptor, duration float64, fps int, out string) []string {
	scale := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d",
		targetWidth, targetHeight, targetWidth, targetHeight, fps)
	if desc.IsVideo() {
		return []string{
			"-stream_loop", "-1",
			"-i", desc.Path,
			"-t", formatSeconds(duration),
			"-vf", scale,
			"-an",
			"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p",
			out,
		}
	}
	return []string{
		"-loop", "1",
		"-i", desc.Path,
		"-t", formatSeconds(duration),
		"-vf", scale,
		"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p",
		out,
	}
}

// joinSegments cross-fades consecutive segments and muxes the narration
// track onto the result.
func (c *Composer) joinSegments(ctx context.Context, segments []string, timings []Timing, narrationPath, out string) error {
	args := make([]string, 0, 2*len(segments)+12)
	for _, segment := range segments {
		args = append(args, "-i", segment)
	}
	args = append(args, "-i", narrationPath)

	if len(segments) == 1 {
		args = append(args,
			"-map", "0:v:0",
			"-map", fmt.Sprintf("%d:a:0", len(segments)),
			"-c:v", "copy", "-c:a", "aac", "-shortest", out)
	} else {
		filter, label := xfadeFilter(timings)
		args = append(args,
			"-filter_complex", filter,
			"-map", label,
			"-map", fmt.Sprintf("%d:a:0", len(segments)),
			"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p",
			"-c:a", "aac", "-shortest", out)
	}
	if err := media.Run(ctx, c.ffmpeg, args...); err != nil {
		return services.Wrap(services.ErrTransient, "compose", "render", "join segments", err)
	}
	return nil
}

// xfadeFilter chains xfade transitions across all segments. The offset of
// each transition is the accumulated output length so far minus the fade.
func xfadeFilter(timings []Timing) (filter, outLabel string) {
	var b strings.Builder
	prevLabel := "[0:v]"
	outputLen := timings[0].Duration
	for i := 1; i < len(timings); i++ {
		label := fmt.Sprintf("[vx%d]", i)
		offset := outputLen - crossfadeSeconds
		fmt.Fprintf(&b, "%s[%d:v]xfade=transition=fade:duration=%s:offset=%s%s",
			prevLabel, i, formatSeconds(crossfadeSeconds), formatSeconds(offset), label)
		if i < len(timings)-1 {
			b.WriteString(";")
		}
		outputLen += timings[i].Duration - crossfadeSeconds
		prevLabel = label
	}
	return b.String(), prevLabel
}

func formatSeconds(seconds float64) string {
	return fmt.Sprintf("%.3f", seconds)
}

func (c *Composer) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("compose")
}
