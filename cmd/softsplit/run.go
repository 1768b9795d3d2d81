package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/softsplit/internal/pipeline"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch, extract and process in one go",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openManifest(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := pipeline.New(getConfig(cmd), db).Run(cmd.Context())
			if stats.RunID != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Done. %s\n", stats)
			}
			return err
		},
	}
}
