package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"bilidl/internal/logging"
	"bilidl/internal/media/ffprobe"
	"bilidl/internal/services"
)

const (
	defaultBitrate = "192k"
	audioExt       = ".mp3"
	tempSuffix     = ".tmp.mp3"
)

// Transcoder wraps ffmpeg for audio extraction.
type Transcoder struct {
	ffmpeg  string
	ffprobe string
	bitrate string
	exec    Executor
	logger  *slog.Logger
}

// Option configures the transcoder.
type Option func(*Transcoder)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(t *Transcoder) {
		if exec != nil {
			t.exec = exec
		}
	}
}

// WithProbe enables the pre-encode audio check using the given ffprobe binary.
func WithProbe(binary string) Option {
	return func(t *Transcoder) {
		t.ffprobe = strings.TrimSpace(binary)
	}
}

// WithBitrate sets the MP3 bitrate, e.g. "192k".
func WithBitrate(bitrate string) Option {
	return func(t *Transcoder) {
		if bitrate = strings.TrimSpace(bitrate); bitrate != "" {
			t.bitrate = bitrate
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transcoder) {
		t.logger = logging.NewComponentLogger(logger, "transcode")
	}
}

// New constructs a Transcoder that runs the given ffmpeg binary.
func New(ffmpegBinary string, opts ...Option) (*Transcoder, error) {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	if ffmpegBinary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcode", "init", "ffmpeg binary not set", nil)
	}
	t := &Transcoder{
		ffmpeg:  ffmpegBinary,
		bitrate: defaultBitrate,
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// AudioPath returns <outputDir>/<source basename without extension>.mp3.
func AudioPath(sourcePath, outputDir string) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, base+audioExt)
}

// TempAudioPath returns the path ffmpeg writes before the rename.
func TempAudioPath(audioPath string) string {
	return strings.TrimSuffix(audioPath, audioExt) + tempSuffix
}

// TranscodeToAudio encodes sourcePath to MP3 inside outputDir. It returns the
// MP3 path and whether an encode ran; an existing MP3 is left as is.
func (t *Transcoder) TranscodeToAudio(ctx context.Context, sourcePath, outputDir string) (string, bool, error) {
	target := AudioPath(sourcePath, outputDir)
	logger := logging.WithContext(ctx, t.logger)

	if _, err := os.Stat(target); err == nil {
		logger.Info("transcode skipped",
			logging.String(logging.FieldEventType, "transcode_skipped"),
			logging.String("path", target),
		)
		return target, false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return target, false, services.Wrap(services.ErrTranscode, "transcode", "stat output", target, err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return target, false, services.Wrap(services.ErrTranscode, "transcode", "create directory", outputDir, err)
	}
	temp := TempAudioPath(target)
	if err := os.Remove(temp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return target, false, services.Wrap(services.ErrTranscode, "transcode", "remove stale temp", temp, err)
	}

	if t.ffprobe != "" {
		if err := t.verifyAudio(ctx, sourcePath); err != nil {
			return target, false, err
		}
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", sourcePath,
		"-vn", "-c:a", "libmp3lame", "-b:a", t.bitrate,
		"-f", "mp3", temp,
	}
	logger.Info("transcode started",
		logging.String("source", sourcePath),
		logging.String("bitrate", t.bitrate),
	)
	if err := t.exec.Run(ctx, t.ffmpeg, args, nil); err != nil {
		return target, false, services.Wrap(services.ErrTranscode, "transcode", "ffmpeg", sourcePath, err)
	}

	info, err := os.Stat(temp)
	if err != nil {
		return target, false, services.Wrap(services.ErrTranscode, "transcode", "ffmpeg", "no output produced", err)
	}
	if err := os.Rename(temp, target); err != nil {
		return target, false, services.Wrap(services.ErrTranscode, "transcode", "publish", target, err)
	}
	logger.Info("transcode completed",
		logging.String("path", target),
		logging.String("size", humanize.IBytes(uint64(info.Size()))),
	)
	return target, true, nil
}

func (t *Transcoder) verifyAudio(ctx context.Context, sourcePath string) error {
	var out strings.Builder
	err := t.exec.Run(ctx, t.ffprobe, ffprobe.Args(sourcePath), func(line string) {
		out.WriteString(line)
		out.WriteByte('\n')
	})
	if err != nil {
		return services.Wrap(services.ErrTranscode, "transcode", "probe", sourcePath, err)
	}
	result, err := ffprobe.Parse([]byte(out.String()))
	if err != nil {
		return services.Wrap(services.ErrTranscode, "transcode", "probe", sourcePath, err)
	}
	if result.AudioStreamCount() == 0 {
		return services.Wrap(services.ErrTranscode, "transcode", "probe",
			fmt.Sprintf("%s has no audio stream", filepath.Base(sourcePath)), nil)
	}
	logging.WithContext(ctx, t.logger).Debug("source probed",
		logging.String("audio_codec", result.AudioCodec()),
		logging.Int("audio_streams", result.AudioStreamCount()),
		logging.Any("duration_seconds", result.DurationSeconds()),
	)
	return nil
}
