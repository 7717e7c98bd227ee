package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"bilidl/internal/bilibili"
	"bilidl/internal/download"
	"bilidl/internal/logging"
	"bilidl/internal/services"
	"bilidl/internal/textutil"
)

// Resolver expands a canonical URL and finds each sub-page's stream.
type Resolver interface {
	Resolve(ctx context.Context, canonicalURL string) ([]bilibili.SubPage, error)
	MediaURL(ctx context.Context, sub bilibili.SubPage) (string, error)
}

// Downloader writes a media stream to a final path.
type Downloader interface {
	Download(ctx context.Context, mediaURL, destPath string, onProgress func(download.Progress)) (bool, error)
}

// Transcoder encodes a local file to MP3.
type Transcoder interface {
	TranscodeToAudio(ctx context.Context, sourcePath, outputDir string) (string, bool, error)
}

// Hooks lets a front end follow a run. Any field may be nil.
type Hooks struct {
	OnResolved  func(pages []bilibili.SubPage)
	OnPageStart func(page bilibili.SubPage)
	OnProgress  func(page bilibili.SubPage, p download.Progress)
	OnPageDone  func(result Result)
}

// Runner executes runs.
type Runner struct {
	resolver   Resolver
	downloader Downloader
	transcoder Transcoder
	videoDir   string
	audioDir   string
	lockPath   string
	hooks      Hooks
	logger     *slog.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithDirectories sets where videos and MP3s land. An empty audioDir puts
// MP3s next to their videos.
func WithDirectories(videoDir, audioDir string) Option {
	return func(r *Runner) {
		if videoDir != "" {
			r.videoDir = videoDir
		}
		r.audioDir = audioDir
	}
}

// WithLockPath enables the single-instance lock at path.
func WithLockPath(path string) Option {
	return func(r *Runner) {
		r.lockPath = path
	}
}

// WithHooks installs progress callbacks.
func WithHooks(h Hooks) Option {
	return func(r *Runner) {
		r.hooks = h
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logging.NewComponentLogger(logger, "pipeline")
	}
}

// NewRunner wires the three stages together.
func NewRunner(resolver Resolver, downloader Downloader, transcoder Transcoder, opts ...Option) *Runner {
	r := &Runner{
		resolver:   resolver,
		downloader: downloader,
		transcoder: transcoder,
		videoDir:   ".",
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every sub-page of canonicalURL. The error is non-nil only
// when the run could not start or resolve, or when ctx was cancelled;
// per-page failures are reported through Summary.
func (r *Runner) Run(ctx context.Context, canonicalURL string) (Summary, error) {
	started := time.Now()
	summary := Summary{RunID: uuid.NewString(), URL: canonicalURL}
	ctx = services.WithRequestID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)

	release, err := acquireLock(r.lockPath)
	if err != nil {
		return summary, err
	}
	defer release()

	logger.Info("run started", logging.String("url", canonicalURL))
	pages, err := r.resolver.Resolve(services.WithStage(ctx, "resolve"), canonicalURL)
	if err != nil {
		logging.ErrorWithContext(logger, "resolve failed", "resolve_failed",
			logging.String("url", canonicalURL),
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, resolveHint(err)),
		)
		return summary, err
	}
	if r.hooks.OnResolved != nil {
		r.hooks.OnResolved(pages)
	}

	names := newNameSet()
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(started)
			return summary, err
		}
		result := r.processPage(ctx, page, names.claim(page))
		summary.Results = append(summary.Results, result)
		if r.hooks.OnPageDone != nil {
			r.hooks.OnPageDone(result)
		}
	}

	summary.Duration = time.Since(started)
	logger.Info("run finished",
		logging.Int("pages", len(summary.Results)),
		logging.Int("failed", summary.Failed()),
		logging.Int("downloaded", summary.Downloaded()),
		logging.Int("transcoded", summary.Transcoded()),
		logging.Duration("elapsed", summary.Duration.Round(time.Millisecond)),
	)
	return summary, ctx.Err()
}

func (r *Runner) processPage(ctx context.Context, page bilibili.SubPage, name string) Result {
	ctx = services.WithPageIndex(ctx, page.Index)
	logger := logging.WithContext(ctx, r.logger)
	result := Result{
		Page:      page,
		VideoPath: filepath.Join(r.videoDir, name+".mp4"),
	}
	if r.hooks.OnPageStart != nil {
		r.hooks.OnPageStart(page)
	}

	if fileExists(result.VideoPath) {
		logger.Info("video already present",
			logging.String(logging.FieldEventType, "download_skipped"),
			logging.String("path", result.VideoPath),
		)
	} else {
		result.Downloaded, result.Err = r.fetchVideo(ctx, page, result.VideoPath)
		if result.Err != nil {
			r.logPageFailure(logger, "download", result.Err)
		}
	}

	if !fileExists(result.VideoPath) {
		return result
	}

	audioDir := r.audioDir
	if audioDir == "" {
		audioDir = filepath.Dir(result.VideoPath)
	}
	audioPath, transcoded, err := r.transcoder.TranscodeToAudio(services.WithStage(ctx, "transcode"), result.VideoPath, audioDir)
	result.AudioPath = audioPath
	result.Transcoded = transcoded
	if err != nil {
		r.logPageFailure(logger, "transcode", err)
		if result.Err == nil {
			result.Err = err
		}
	}
	return result
}

func (r *Runner) fetchVideo(ctx context.Context, page bilibili.SubPage, dest string) (bool, error) {
	mediaURL, err := r.resolver.MediaURL(services.WithStage(ctx, "resolve"), page)
	if err != nil {
		return false, err
	}

	ctx = services.WithStage(ctx, "download")
	logger := logging.WithContext(ctx, r.logger)
	sampler := logging.NewProgressSampler(10, 0)
	onProgress := func(p download.Progress) {
		if r.hooks.OnProgress != nil {
			r.hooks.OnProgress(page, p)
		}
		if sampler.ShouldLog(p.Written, p.Total) {
			logger.Debug("download progress",
				logging.Any("percent", p.Percent()),
				logging.String("written", humanize.IBytes(uint64(p.Written))),
			)
		}
	}
	return r.downloader.Download(ctx, mediaURL, dest, onProgress)
}

func (r *Runner) logPageFailure(logger *slog.Logger, stage string, err error) {
	logging.ErrorWithContext(logger, "sub-page "+stage+" failed", stage+"_failed",
		logging.String("error_kind", services.Kind(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, pageHint(err)),
	)
}

func resolveHint(err error) string {
	switch {
	case errors.Is(err, services.ErrURLFormat):
		return "pass a URL of the form https://www.bilibili.com/video/<id>"
	case errors.Is(err, services.ErrSchemaMismatch):
		return "the page layout is not recognised; bilidl may need an update"
	case errors.Is(err, services.ErrConfiguration):
		return "check the configuration and that no other bilidl run is active"
	default:
		return "check network connectivity and rerun"
	}
}

func pageHint(err error) string {
	switch {
	case errors.Is(err, services.ErrTranscode):
		return "check that ffmpeg is installed and the download is a valid media file"
	case errors.Is(err, services.ErrSchemaMismatch):
		return "the sub-page layout is not recognised; bilidl may need an update"
	default:
		return "rerun the command; finished pages are skipped"
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// nameSet hands out file names, keeping titles that repeat within a video
// from mapping to the same file.
type nameSet map[string]struct{}

func newNameSet() nameSet { return nameSet{} }

func (s nameSet) claim(page bilibili.SubPage) string {
	name := textutil.SanitizeFileName(page.Title)
	if name == "" {
		name = textutil.SanitizeFileName(fmt.Sprintf("%s_p%d", page.VideoID, page.Index))
	}
	if _, taken := s[name]; taken {
		name = fmt.Sprintf("%s (p%d)", name, page.Index)
	}
	s[name] = struct{}{}
	return name
}
