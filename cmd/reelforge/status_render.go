package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"reelforge/internal/jobstore"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiBlue   = "\x1b[34m"
)

func statusColor(status string) string {
	switch jobstore.Status(status) {
	case jobstore.StatusCompleted:
		return ansiGreen
	case jobstore.StatusFailed:
		return ansiRed
	case jobstore.StatusPendingUpload:
		return ansiYellow
	case jobstore.StatusQueued:
		return ""
	default:
		return ansiBlue
	}
}

func renderStatus(status string, colorize bool) string {
	color := statusColor(status)
	if !colorize || color == "" {
		return status
	}
	return color + status + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
