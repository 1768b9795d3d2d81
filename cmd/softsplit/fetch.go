package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/softsplit/internal/pipeline"
)

func fetchCmd() *cobra.Command {
	var url string
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the series archive into the raw directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			if url != "" {
				cfg.ArchiveURL = url
			}

			res, err := pipeline.New(cfg, nil).Fetch(cmd.Context(), force)
			if err != nil {
				return err
			}

			if res.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "Archive already present: %s (use --force to download again)\n", res.Path)
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Downloaded %d bytes to %s\n", res.Bytes, res.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Archive URL (default from config)")
	cmd.Flags().BoolVar(&force, "force", false, "Download even if the archive exists")

	return cmd
}
