package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/softsplit/internal/render"
)

func previewCmd() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "preview <file> <section>",
		Short: "Print a written table as aligned columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openManifest(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			o, err := db.GetOutput(args[0], args[1])
			if err != nil {
				return fmt.Errorf("get output: %w", err)
			}
			if o == nil {
				return fmt.Errorf("output not found: %s/%s", args[0], args[1])
			}

			out, err := render.RenderTable(o.Path, render.Options{
				HasHeader: o.HasHeader,
				MaxRows:   rows,
				Color:     isTerminal(cmd.OutOrStdout()),
			})
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 20, "Rows to show (-1 = all)")

	return cmd
}
