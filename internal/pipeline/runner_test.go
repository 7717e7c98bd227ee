package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"bilidl/internal/bilibili"
	"bilidl/internal/download"
	"bilidl/internal/fetch"
	"bilidl/internal/services"
	"bilidl/internal/testsupport"
	"bilidl/internal/transcode"
)

// fakeSite serves a multi-part video: the canonical page, one page per
// ?p=N and one media stream per part.
type fakeSite struct {
	mu        sync.Mutex
	titles    []string
	failMedia map[int]bool
	requests  []string
	srv       *httptest.Server
}

func newFakeSite(t *testing.T, titles ...string) *fakeSite {
	t.Helper()
	site := &fakeSite{titles: titles, failMedia: map[int]bool{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/video/BV1xy411c7md", site.page)
	mux.HandleFunc("/media/", site.media)
	site.srv = httptest.NewServer(mux)
	t.Cleanup(site.srv.Close)
	return site
}

func (s *fakeSite) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.URL.RequestURI())
}

func (s *fakeSite) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *fakeSite) setFailMedia(part int, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failMedia[part] = fail
}

func (s *fakeSite) shouldFail(part int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failMedia[part]
}

func (s *fakeSite) canonicalURL() string {
	return s.srv.URL + "/video/BV1xy411c7md"
}

func (s *fakeSite) page(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	part := 1
	if p := r.URL.Query().Get("p"); p != "" {
		part, _ = strconv.Atoi(p)
	}
	entries := make([]string, 0, len(s.titles))
	for i, title := range s.titles {
		entries = append(entries, fmt.Sprintf(`{"page":%d,"part":%q}`, i+1, title))
	}
	fmt.Fprintf(w, `<html><body><script>window.__INITIAL_STATE__={"video":{"viewInfo":{"pages":[%s]},"playUrlInfo":[{"url":"%s/media/%d"}]}};(function(){}());</script></body></html>`,
		strings.Join(entries, ","), s.srv.URL, part)
}

func (s *fakeSite) media(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	part, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/media/"))
	body := strings.Repeat(fmt.Sprintf("media-%d;", part), 512)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if s.shouldFail(part) {
		_, _ = io.WriteString(w, body[:len(body)/3])
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}
	_, _ = io.WriteString(w, body)
}

type countingExecutor struct {
	mu    sync.Mutex
	calls int
}

func (e *countingExecutor) Run(_ context.Context, _ string, args []string, _ func(string)) error {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return os.WriteFile(args[len(args)-1], []byte("mp3"), 0o644)
}

func (e *countingExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func newTestRunner(t *testing.T, videoDir, audioDir string, exec transcode.Executor, opts ...Option) *Runner {
	t.Helper()
	client, err := fetch.New(fetch.Options{})
	if err != nil {
		t.Fatalf("fetch.New: %v", err)
	}
	resolver := bilibili.NewResolver(client, fetch.SiteHeaders("https://www.bilibili.com", "test"))
	downloader := download.New(client, fetch.SiteHeaders("https://www.bilibili.com/", "test"))
	transcoder, err := transcode.New("ffmpeg", transcode.WithExecutor(exec))
	if err != nil {
		t.Fatalf("transcode.New: %v", err)
	}
	base := []Option{WithDirectories(videoDir, audioDir)}
	return NewRunner(resolver, downloader, transcoder, append(base, opts...)...)
}

func TestRunSinglePageThenRerunIsNoop(t *testing.T) {
	site := newFakeSite(t, "Only Part")
	dir := t.TempDir()
	exec := &countingExecutor{}
	runner := newTestRunner(t, dir, "", exec)

	summary, err := runner.Run(context.Background(), site.canonicalURL())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected a run id")
	}
	if len(summary.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(summary.Results))
	}
	res := summary.Results[0]
	if res.Err != nil || !res.Downloaded || !res.Transcoded {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Page.Index != 1 || !strings.HasSuffix(res.Page.SourceURL, "?p=1") {
		t.Fatalf("unexpected sub-page %+v", res.Page)
	}
	if res.VideoPath != filepath.Join(dir, "Only Part.mp4") || res.AudioPath != filepath.Join(dir, "Only Part.mp3") {
		t.Fatalf("unexpected paths %q %q", res.VideoPath, res.AudioPath)
	}
	testsupport.RequireFile(t, res.AudioPath)
	if exec.count() != 1 {
		t.Fatalf("expected 1 encode, got %d", exec.count())
	}
	firstRequests := site.requestCount()

	summary, err = runner.Run(context.Background(), site.canonicalURL())
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if exec.count() != 1 {
		t.Fatalf("rerun must not encode, got %d encodes", exec.count())
	}
	// Only the canonical page is fetched again to learn the page list.
	if got := site.requestCount() - firstRequests; got != 1 {
		t.Fatalf("rerun made %d requests, want 1", got)
	}
	if summary.Results[0].Status() != "skipped" {
		t.Fatalf("expected skipped status, got %q", summary.Results[0].Status())
	}
}

func TestRunIsolatesSubPageFailure(t *testing.T) {
	site := newFakeSite(t, "One", "Two", "Three")
	site.setFailMedia(2, true)
	videoDir := t.TempDir()
	audioDir := filepath.Join(t.TempDir(), "audio")
	exec := &countingExecutor{}
	var started []int
	runner := newTestRunner(t, videoDir, audioDir, exec, WithHooks(Hooks{
		OnPageStart: func(p bilibili.SubPage) { started = append(started, p.Index) },
	}))

	summary, err := runner.Run(context.Background(), site.canonicalURL())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if fmt.Sprint(started) != "[1 2 3]" {
		t.Fatalf("pages processed out of order: %v", started)
	}
	if summary.Failed() != 1 {
		t.Fatalf("expected 1 failure, got %d", summary.Failed())
	}
	if !errors.Is(summary.Results[1].Err, services.ErrDownload) {
		t.Fatalf("expected download error on page 2, got %v", summary.Results[1].Err)
	}
	for _, i := range []int{0, 2} {
		res := summary.Results[i]
		if res.Err != nil || !res.Downloaded || !res.Transcoded {
			t.Fatalf("page %d should succeed, got %+v", i+1, res)
		}
		if filepath.Dir(res.AudioPath) != audioDir {
			t.Fatalf("mp3 should land in audio dir, got %q", res.AudioPath)
		}
	}
	testsupport.RequireMissing(t, filepath.Join(videoDir, "Two.mp4"))
	testsupport.RequireFile(t, download.TempPath(filepath.Join(videoDir, "Two.mp4")))
	if exec.count() != 2 {
		t.Fatalf("expected 2 encodes, got %d", exec.count())
	}

	site.setFailMedia(2, false)
	summary, err = runner.Run(context.Background(), site.canonicalURL())
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if summary.Failed() != 0 || summary.Downloaded() != 1 || summary.Transcoded() != 1 {
		t.Fatalf("rerun should only finish page 2: failed=%d downloaded=%d transcoded=%d",
			summary.Failed(), summary.Downloaded(), summary.Transcoded())
	}
}

func TestRunTranscodesExistingVideoWithoutDownloading(t *testing.T) {
	site := newFakeSite(t, "Kept")
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "Kept.mp4"), 128)
	exec := &countingExecutor{}

	summary, err := newTestRunner(t, dir, "", exec).Run(context.Background(), site.canonicalURL())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	res := summary.Results[0]
	if res.Downloaded || !res.Transcoded {
		t.Fatalf("expected transcode only, got %+v", res)
	}
	if site.requestCount() != 1 {
		t.Fatalf("expected only the canonical fetch, got %d requests", site.requestCount())
	}
}

func TestRunURLFormatIsFatal(t *testing.T) {
	exec := &countingExecutor{}
	runner := newTestRunner(t, t.TempDir(), "", exec)
	summary, err := runner.Run(context.Background(), "https://www.bilibili.com/read/cv1")
	if !errors.Is(err, services.ErrURLFormat) {
		t.Fatalf("expected url format error, got %v", err)
	}
	if !services.IsFatal(err) {
		t.Fatal("url format errors must be fatal")
	}
	if len(summary.Results) != 0 {
		t.Fatalf("expected no results, got %d", len(summary.Results))
	}
}

func TestRunDuplicateTitlesGetDistinctFiles(t *testing.T) {
	site := newFakeSite(t, "Same", "Same")
	dir := t.TempDir()
	summary, err := newTestRunner(t, dir, "", &countingExecutor{}).Run(context.Background(), site.canonicalURL())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Results[0].VideoPath == summary.Results[1].VideoPath {
		t.Fatalf("duplicate titles collided on %q", summary.Results[0].VideoPath)
	}
	if summary.Downloaded() != 2 {
		t.Fatalf("expected both parts downloaded, got %d", summary.Downloaded())
	}
}

func TestRunLockRejectsConcurrentRun(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "logs", "bilidl.lock")
	release, err := acquireLock(lockPath)
	if err != nil {
		t.Fatalf("acquireLock: %v", err)
	}
	defer release()

	runner := newTestRunner(t, t.TempDir(), "", &countingExecutor{}, WithLockPath(lockPath))
	_, err = runner.Run(context.Background(), "https://www.bilibili.com/video/BV1")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg", "ffprobe"))
	runner, err := NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if runner.videoDir != cfg.Paths.VideoDir || runner.lockPath != cfg.LockPath() {
		t.Fatalf("runner not wired from config: video=%q lock=%q", runner.videoDir, runner.lockPath)
	}
}
