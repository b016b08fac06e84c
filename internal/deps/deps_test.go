package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelforge/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestVerifyNamesMissingBinaries(t *testing.T) {
	cfgVal := config.Default()
	t.Setenv("PATH", "")

	err := Verify(&cfgVal)
	if err == nil {
		t.Fatal("expected error without ffmpeg on PATH")
	}
	if !strings.Contains(err.Error(), "FFmpeg") || !strings.Contains(err.Error(), "FFprobe") {
		t.Fatalf("error should name both binaries: %v", err)
	}
}

func TestVerifyPassesWithStubBinaries(t *testing.T) {
	binDir := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
	t.Setenv("PATH", binDir)

	cfgVal := config.Default()
	if err := Verify(&cfgVal); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
