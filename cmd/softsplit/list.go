package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/softsplit/internal/search"
	"github.com/Zuo-Peng/softsplit/internal/tui"
)

func listCmd() *cobra.Command {
	var file string
	var limit int

	cmd := &cobra.Command{
		Use:   "list [filter]",
		Short: "Browse the tables written by process",
		Long: `Opens a TUI listing every written table when stdout is a terminal. Type to
filter by file, section or column name; Enter copies the table path.

When piped, prints TSV instead:
  file, section, rows, columns, path`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openManifest(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			opts := search.Options{File: file, Limit: limit}
			if len(args) > 0 {
				opts.Query = args[0]
			}

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			out := cmd.OutOrStdout()
			if isTerminal(out) {
				return tui.Run(db, opts, out)
			}

			results, err := search.Outputs(db, opts)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No tables found.")
				return nil
			}

			for _, r := range results {
				fmt.Fprintf(out, "%s\t%s\t%d\t%d\t%s\n", r.FileKey, r.Name, r.Rows, r.Columns, r.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Only tables from this file (e.g. GSM1_sample.txt)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = 500)")

	return cmd
}
