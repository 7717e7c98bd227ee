package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransport      = errors.New("transport error")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrURLFormat      = errors.New("url format error")
	ErrDownload       = errors.New("download error")
	ErrTranscode      = errors.New("transcode error")
	ErrConfiguration  = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err should abort the whole invocation instead of a
// single sub-page.
func IsFatal(err error) bool {
	return errors.Is(err, ErrURLFormat) || errors.Is(err, ErrConfiguration)
}

// Kind returns a short label for the marker carried by err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrURLFormat):
		return "url"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema"
	case errors.Is(err, ErrDownload):
		return "download"
	case errors.Is(err, ErrTranscode):
		return "transcode"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrConfiguration):
		return "config"
	default:
		return "other"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
