package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/softsplit/internal/open"
)

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <file> <section>",
		Short: "Open a written table in $EDITOR",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openManifest(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			return open.OpenOutput(db, args[0], args[1])
		},
	}
}
