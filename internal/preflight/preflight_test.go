package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bilidl/internal/config"
)

func TestCheckDirectoryAccessExisting(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Video directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}
	if !strings.Contains(result.Detail, "read/write ok") || !strings.Contains(result.Detail, "free") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccessMissingButCreatable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	result := CheckDirectoryAccess("Audio directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}
	if !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccessFileInTheWay(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result := CheckDirectoryAccess("Video directory", filepath.Join(file, "child"))
	if result.Passed {
		t.Fatalf("expected failure, got %+v", result)
	}
	if !strings.Contains(result.Detail, "not a directory") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestRunAllSkipsSharedAudioDirectory(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.VideoDir = filepath.Join(base, "video")
	cfg.Paths.AudioDir = ""
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	results := RunAll(&cfg)
	if len(results) != 2 {
		t.Fatalf("expected video and log checks only, got %+v", results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures %+v", failed)
	}

	cfg.Paths.AudioDir = filepath.Join(base, "audio")
	if got := len(RunAll(&cfg)); got != 3 {
		t.Fatalf("expected 3 checks with a separate audio dir, got %d", got)
	}
}
