package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bilidl/internal/pipeline"
)

func newPagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pages URL",
		Short: "List the parts of a video without downloading anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			resolver, err := pipeline.NewResolverFromConfig(cfg, logger)
			if err != nil {
				return err
			}
			pages, err := resolver.Resolve(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPagesTable(pages))
			return nil
		},
	}
}
