package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/softsplit/internal/pipeline"
)

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Unpack the downloaded archive into the raw directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)

			files, err := pipeline.New(cfg, nil).Extract(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Extracted %d files into %s\n", len(files), cfg.RawDir)
			return nil
		},
	}
}
