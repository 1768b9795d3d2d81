package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/softsplit/internal/pipeline"
)

func processCmd() *cobra.Command {
	var force, failFast bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Split every .gz in the raw directory into per-section TSV files",
		Long: `Decompresses each <name>.gz in the raw directory into <processed>/<name>/,
writes one <section>.tsv per section plus Probes_truncated.tsv, and deletes the
decompressed source. Files unchanged since their last successful run are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			if cmd.Flags().Changed("fail-fast") {
				cfg.FailFast = failFast
			}

			db, err := openManifest(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.ErrOrStderr(), "Processing %s\n", cfg.RawDir)
			stats, err := pipeline.New(cfg, db).Process(cmd.Context(), force)
			fmt.Fprintf(cmd.ErrOrStderr(), "Done. %s\n", stats)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reprocess files that are unchanged")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first failed file")

	return cmd
}
