package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"bilidl/internal/logging"
	"bilidl/internal/services"
)

// DefaultChunkSize matches the read size used for media transfers.
const DefaultChunkSize = 8192

const tempPrefix = "__temp__"

// Progress reports cumulative bytes written. Total is 0 when the server did
// not declare a length.
type Progress struct {
	Written int64
	Total   int64
}

// Percent returns completion in [0,100], or -1 when Total is unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	pct := float64(p.Written) / float64(p.Total) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Streamer opens a streamed GET.
type Streamer interface {
	Stream(ctx context.Context, url string, headers http.Header) (*http.Response, error)
}

// Downloader writes media streams to local files.
type Downloader struct {
	streamer  Streamer
	headers   http.Header
	chunkSize int
	logger    *slog.Logger
}

// Option customizes a Downloader.
type Option func(*Downloader)

// WithChunkSize sets the read/write buffer size.
func WithChunkSize(size int) Option {
	return func(d *Downloader) {
		if size > 0 {
			d.chunkSize = size
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		d.logger = logging.NewComponentLogger(logger, "download")
	}
}

// New constructs a Downloader sending headers with every media request.
func New(streamer Streamer, headers http.Header, opts ...Option) *Downloader {
	d := &Downloader{
		streamer:  streamer,
		headers:   headers,
		chunkSize: DefaultChunkSize,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// TempPath returns the in-progress path used while destPath is downloading.
func TempPath(destPath string) string {
	return filepath.Join(filepath.Dir(destPath), tempPrefix+filepath.Base(destPath))
}

// Download fetches mediaURL into destPath. It reports whether a transfer
// happened; an existing destPath is left untouched and no request is made.
func (d *Downloader) Download(ctx context.Context, mediaURL, destPath string, onProgress func(Progress)) (bool, error) {
	if _, err := os.Stat(destPath); err == nil {
		logging.WithContext(ctx, d.logger).Info("download skipped",
			logging.String(logging.FieldEventType, "download_skipped"),
			logging.String("path", destPath),
		)
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, services.Wrap(services.ErrDownload, "download", "stat destination", destPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return false, services.Wrap(services.ErrDownload, "download", "create directory", filepath.Dir(destPath), err)
	}
	tempPath := TempPath(destPath)
	if err := os.Remove(tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, services.Wrap(services.ErrDownload, "download", "remove stale temp", tempPath, err)
	}

	resp, err := d.streamer.Stream(ctx, mediaURL, d.headers)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	logger := logging.WithContext(ctx, d.logger)
	logger.Info("download started",
		logging.String("path", destPath),
		logging.String("size", sizeLabel(total)),
	)

	written, err := d.writeTemp(tempPath, resp.Body, total, onProgress)
	if err != nil {
		return false, err
	}
	if total > 0 && written < total {
		return false, services.Wrap(services.ErrDownload, "download", "stream body",
			fmt.Sprintf("truncated after %d of %d bytes", written, total), nil)
	}
	if err := os.Rename(tempPath, destPath); err != nil {
		return false, services.Wrap(services.ErrDownload, "download", "publish", destPath, err)
	}

	logger.Info("download completed",
		logging.String("path", destPath),
		logging.String("size", humanize.IBytes(uint64(written))),
	)
	return true, nil
}

func (d *Downloader) writeTemp(tempPath string, body io.Reader, total int64, onProgress func(Progress)) (int64, error) {
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, services.Wrap(services.ErrDownload, "download", "create temp", tempPath, err)
	}

	var written int64
	buf := make([]byte, d.chunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				file.Close()
				return written, services.Wrap(services.ErrDownload, "download", "write temp", tempPath, err)
			}
			written += int64(n)
			if onProgress != nil {
				onProgress(Progress{Written: written, Total: total})
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			file.Close()
			return written, services.Wrap(services.ErrDownload, "download", "stream body", tempPath, readErr)
		}
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return written, services.Wrap(services.ErrDownload, "download", "sync temp", tempPath, err)
	}
	if err := file.Close(); err != nil {
		return written, services.Wrap(services.ErrDownload, "download", "close temp", tempPath, err)
	}
	return written, nil
}

func sizeLabel(total int64) string {
	if total <= 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(total))
}
