package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bilidl/internal/config"
	"bilidl/internal/pipeline"
	"bilidl/internal/services"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var videoDir string
	var audioDir string
	var strict bool

	cmd := &cobra.Command{
		Use:   "download [URL]",
		Short: "Download every part of a video and convert each part to MP3",
		Long: "Download every part of a bilibili video and convert each part to MP3.\n\n" +
			"Parts that already exist on disk are skipped, so an interrupted run can be\n" +
			"resumed by running the same command again. When URL is omitted it is read\n" +
			"from standard input.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyDirectoryFlags(cfg, videoDir, audioDir); err != nil {
				return err
			}

			var url string
			if len(args) == 1 {
				url = args[0]
			} else {
				url, err = promptURL(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			ui := newProgressUI(cmd.ErrOrStderr())
			runner, err := pipeline.NewFromConfig(cfg, logger, pipeline.WithHooks(ui.hooks()))
			if err != nil {
				return err
			}
			summary, err := runner.Run(cmd.Context(), strings.TrimSpace(url))
			ui.finish()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(summary.Results) > 0 {
				fmt.Fprintln(out, renderSummaryTable(summary))
			}
			fmt.Fprintln(out, renderSummaryLine(summary, shouldColorize(out)))

			if strict && summary.Failed() > 0 {
				return fmt.Errorf("%d of %d sub-pages failed", summary.Failed(), len(summary.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&videoDir, "video-dir", "", "Directory for downloaded videos (overrides paths.video_dir)")
	cmd.Flags().StringVar(&audioDir, "audio-dir", "", "Directory for MP3 output (overrides paths.audio_dir)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any sub-page fails")
	return cmd
}

func applyDirectoryFlags(cfg *config.Config, videoDir, audioDir string) error {
	if v := strings.TrimSpace(videoDir); v != "" {
		expanded, err := config.ExpandPath(v)
		if err != nil {
			return fmt.Errorf("resolve video dir: %w", err)
		}
		cfg.Paths.VideoDir = expanded
	}
	if a := strings.TrimSpace(audioDir); a != "" {
		expanded, err := config.ExpandPath(a)
		if err != nil {
			return fmt.Errorf("resolve audio dir: %w", err)
		}
		cfg.Paths.AudioDir = expanded
	}
	return nil
}

func promptURL(in io.Reader, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Video URL: ")
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read url: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", services.Wrap(services.ErrURLFormat, "cli", "prompt", "no URL provided", nil)
	}
	return line, nil
}
