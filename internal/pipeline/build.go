package pipeline

import (
	"log/slog"

	"bilidl/internal/bilibili"
	"bilidl/internal/config"
	"bilidl/internal/deps"
	"bilidl/internal/download"
	"bilidl/internal/fetch"
	"bilidl/internal/logging"
	"bilidl/internal/transcode"
)

// NewFromConfig builds a Runner with the production fetcher, resolver,
// downloader and transcoder. A missing ffmpeg is not an error here: each
// sub-page's transcode step fails on its own and downloads still complete.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	resolver := newResolver(cfg, client, logger)
	downloader := download.New(client,
		fetch.SiteHeaders(cfg.Site.MediaReferer, cfg.Site.UserAgent),
		download.WithChunkSize(cfg.Download.ChunkSize),
		download.WithLogger(logger),
	)

	ffmpeg := deps.ResolveFFmpeg(cfg.Transcode.FFmpegBinary)
	if !ffmpeg.Available {
		logging.WarnWithContext(logger, "ffmpeg not found", "dependency_missing",
			logging.String("command", ffmpeg.Command),
			logging.String("detail", ffmpeg.Detail),
			logging.String(logging.FieldErrorHint, "install ffmpeg, place it next to bilidl, or set transcode.ffmpeg_binary"),
			logging.String(logging.FieldImpact, "videos download but MP3 conversion fails"),
		)
	}
	transcodeOpts := []transcode.Option{
		transcode.WithBitrate(cfg.Transcode.AudioBitrate),
		transcode.WithLogger(logger),
	}
	if cfg.Transcode.VerifyAudio {
		probe := deps.ResolveFFprobe(cfg.Transcode.FFprobeBinary, ffmpeg.Command)
		if probe.Available {
			transcodeOpts = append(transcodeOpts, transcode.WithProbe(probe.Command))
		} else {
			logger.Debug("ffprobe unavailable; skipping audio verification", logging.String("detail", probe.Detail))
		}
	}
	transcoder, err := transcode.New(ffmpeg.Command, transcodeOpts...)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithDirectories(cfg.Paths.VideoDir, cfg.Paths.AudioDir),
		WithLockPath(cfg.LockPath()),
		WithLogger(logger),
	}
	return NewRunner(resolver, downloader, transcoder, append(base, opts...)...), nil
}

// NewResolverFromConfig builds only the resolution half of the pipeline, for
// commands that list sub-pages without downloading them.
func NewResolverFromConfig(cfg *config.Config, logger *slog.Logger) (*bilibili.Resolver, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return newResolver(cfg, client, logger), nil
}

func newClient(cfg *config.Config, logger *slog.Logger) (*fetch.Client, error) {
	return fetch.New(fetch.Options{
		Proxy:             cfg.Site.Proxy,
		BrowserTLS:        cfg.Site.BrowserTLS,
		PageTimeout:       cfg.PageTimeout(),
		RequestsPerSecond: cfg.Site.RequestsPerSecond,
		MaxPageBytes:      cfg.Site.MaxPageBytes,
	}, fetch.WithLogger(logger))
}

func newResolver(cfg *config.Config, client *fetch.Client, logger *slog.Logger) *bilibili.Resolver {
	return bilibili.NewResolver(client,
		fetch.SiteHeaders(cfg.Site.Referer, cfg.Site.UserAgent),
		bilibili.WithLogger(logger),
	)
}
