package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"reelforge/internal/fileutil"
)

// Run executes ffmpeg with the provided arguments, overwriting any existing
// output. Command output is folded into the returned error on failure.
func Run(ctx context.Context, binary string, args ...string) error {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	full := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)
	cmd := exec.CommandContext(ctx, binary, full...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", firstArg(args), err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ConcatAudio joins audio files in order into a single output using the
// concat demuxer. Inputs must share a codec; narration chunks always do.
func ConcatAudio(ctx context.Context, binary string, inputs []string, output string) error {
	if len(inputs) == 0 {
		return errors.New("ffmpeg concat: no inputs")
	}
	if len(inputs) == 1 {
		return fileutil.CopyFile(inputs[0], output)
	}
	listPath := output + ".concat.txt"
	if err := WriteConcatList(listPath, inputs); err != nil {
		return err
	}
	defer os.Remove(listPath)
	return Run(ctx, binary, "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", output)
}

// WriteConcatList writes a concat demuxer list file referencing inputs in order.
// Single quotes in paths are escaped per the demuxer's quoting rules.
func WriteConcatList(path string, inputs []string) error {
	var b strings.Builder
	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return fmt.Errorf("ffmpeg concat: resolve %s: %w", input, err)
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("ffmpeg concat: write list: %w", err)
	}
	return nil
}

func firstArg(args []string) string {
	for i, arg := range args {
		if arg == "-i" && i+1 < len(args) {
			return filepath.Base(args[i+1])
		}
	}
	if len(args) > 0 {
		return filepath.Base(args[len(args)-1])
	}
	return ""
}
