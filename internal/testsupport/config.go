package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"bilidl/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Page pacing is disabled so tests never wait on the limiter.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.VideoDir = filepath.Join(base, "video")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Site.RequestsPerSecond = 0
	cfgVal.Site.BrowserTLS = false
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAudioDir routes MP3 output to a separate directory under the test root.
func WithAudioDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.AudioDir = filepath.Join(b.baseDir, "audio")
	}
}

// WithBaseURL points the site settings at a test server.
func WithBaseURL(base string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Site.BaseURL = base
		b.cfg.Site.Referer = base
		b.cfg.Site.MediaReferer = base + "/"
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// puts them first on PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
		b.t.Setenv("BILIDL_FFMPEG", "")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
