package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bilidl/internal/services"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"interrupted", fmt.Errorf("download: %w", context.Canceled), exitInterrupted},
		{"bad url", services.Wrap(services.ErrURLFormat, "resolve", "parse url", "ftp://x", nil), exitUsage},
		{"bad config", services.Wrap(services.ErrConfiguration, "config", "parse", "bilidl.toml", nil), exitUsage},
		{"transport", services.Wrap(services.ErrTransport, "fetch", "get", "HTTP 412", nil), exitFailure},
		{"strict failures", errors.New("1 of 3 sub-pages failed"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
