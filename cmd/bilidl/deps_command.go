package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bilidl/internal/deps"
	"bilidl/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and output directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ffmpeg := deps.ResolveFFmpeg(cfg.Transcode.FFmpegBinary)
			statuses := []deps.Status{
				ffmpeg,
				deps.ResolveFFprobe(cfg.Transcode.FFprobeBinary, ffmpeg.Command),
			}
			out := cmd.OutOrStdout()
			for _, line := range dependencyLines(statuses, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			checks := preflight.RunAll(cfg)
			for _, line := range preflightLines(checks, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependencies missing", len(missing))
			}
			if failed := preflight.Failed(checks); len(failed) > 0 {
				return fmt.Errorf("%d directory checks failed", len(failed))
			}
			return nil
		},
	}
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, dep := range statuses {
		if dep.Available {
			lines = append(lines, renderStatusLine(dep.Name, statusDone, "Ready ("+dep.Command+")", colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusFailed
		if dep.Optional {
			kind = statusWarn
			detail += " (optional)"
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	return lines
}

func preflightLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusDone
		if !r.Passed {
			kind = statusFailed
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}
