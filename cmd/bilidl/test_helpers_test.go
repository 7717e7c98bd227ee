package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const stubFFmpeg = "#!/bin/sh\nfor last; do :; done\nprintf 'mp3' > \"$last\"\n"

type cliTestEnv struct {
	configPath string
	videoDir   string
	audioDir   string
	ffmpeg     string
	site       *videoSite
}

func setupCLITestEnv(t *testing.T, titles ...string) *cliTestEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub binaries require /bin/sh")
	}

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("BILIDL_FFMPEG", "")
	t.Setenv("BILIDL_PROXY", "")
	t.Setenv("HTTPS_PROXY", "")

	env := &cliTestEnv{
		configPath: filepath.Join(base, "config.toml"),
		videoDir:   filepath.Join(base, "video"),
		audioDir:   filepath.Join(base, "audio"),
		ffmpeg:     filepath.Join(base, "bin", "ffmpeg"),
		site:       newVideoSite(t, titles...),
	}
	if err := os.MkdirAll(filepath.Dir(env.ffmpeg), 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	if err := os.WriteFile(env.ffmpeg, []byte(stubFFmpeg), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}

	content := fmt.Sprintf(`[paths]
video_dir = %q
audio_dir = %q
log_dir = %q

[site]
browser_tls = false
requests_per_second = 0

[transcode]
ffmpeg_binary = %q
verify_audio = false

[logging]
level = "error"
`, env.videoDir, env.audioDir, filepath.Join(base, "logs"), env.ffmpeg)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// videoSite serves one multi-part video in the mobile page layout.
type videoSite struct {
	mu     sync.Mutex
	titles []string
	broken map[int]bool
	srv    *httptest.Server
}

func newVideoSite(t *testing.T, titles ...string) *videoSite {
	t.Helper()
	site := &videoSite{titles: titles, broken: map[int]bool{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/video/BV1xy411c7md", site.page)
	mux.HandleFunc("/media/", site.media)
	site.srv = httptest.NewServer(mux)
	t.Cleanup(site.srv.Close)
	return site
}

func (s *videoSite) url() string {
	return s.srv.URL + "/video/BV1xy411c7md"
}

func (s *videoSite) breakPart(part int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken[part] = true
}

func (s *videoSite) page(w http.ResponseWriter, r *http.Request) {
	part := 1
	if p := r.URL.Query().Get("p"); p != "" {
		part, _ = strconv.Atoi(p)
	}
	entries := make([]string, 0, len(s.titles))
	for i, title := range s.titles {
		entries = append(entries, fmt.Sprintf(`{"page":%d,"part":%q}`, i+1, title))
	}
	fmt.Fprintf(w, `<html><script>window.__INITIAL_STATE__={"video":{"viewInfo":{"pages":[%s]},"playUrlInfo":[{"url":"%s/media/%d"}]}};(function(){}());</script></html>`,
		strings.Join(entries, ","), s.srv.URL, part)
}

func (s *videoSite) media(w http.ResponseWriter, r *http.Request) {
	part, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/media/"))
	s.mu.Lock()
	broken := s.broken[part]
	s.mu.Unlock()
	if broken {
		http.Error(w, "gone", http.StatusGone)
		return
	}
	_, _ = io.WriteString(w, strings.Repeat("x", 2048))
}
