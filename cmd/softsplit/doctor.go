package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/softsplit/internal/scan"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify directories, archive, manifest, and show stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			w := cmd.OutOrStdout()

			// check paths
			fmt.Fprintln(w, "=== Paths ===")
			checkPath(w, "Raw", cfg.RawDir, true)
			checkPath(w, "Processed", cfg.ProcessedDir, true)
			checkPath(w, "Archive", cfg.ArchivePath(), false)

			// scan file counts
			fmt.Fprintln(w, "\n=== Raw Files ===")
			files, err := scan.ScanRaw(cfg.RawDir)
			if err != nil {
				fmt.Fprintf(w, "  scan error: %v\n", err)
			} else {
				fmt.Fprintf(w, "  .gz files: %d\n", len(files))
			}

			// check DB
			fmt.Fprintln(w, "\n=== Manifest ===")
			fmt.Fprintf(w, "  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Fprintln(w, "  Status: NOT FOUND (run 'softsplit process' first)")
				return nil
			}

			db, err := openManifest(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			fileCount, err := db.FileCount()
			if err != nil {
				return fmt.Errorf("count files: %w", err)
			}
			outputCount, err := db.OutputCount()
			if err != nil {
				return fmt.Errorf("count tables: %w", err)
			}
			fmt.Fprintf(w, "  Files:  %d\n", fileCount)
			fmt.Fprintf(w, "  Tables: %d\n", outputCount)

			last, err := db.LastRun()
			if err != nil {
				return fmt.Errorf("last run: %w", err)
			}
			if last != nil {
				fmt.Fprintf(w, "  Last run: %s at %s\n", last.RunID, last.StartedAt)
				if last.FinishedAt == "" {
					fmt.Fprintln(w, "  Status: INTERRUPTED (run did not finish)")
				} else {
					fmt.Fprintf(w, "  Stats: %s\n", last.Stats)
				}
			}

			failed, err := db.FailedFiles()
			if err != nil {
				return fmt.Errorf("failed files: %w", err)
			}
			if len(failed) > 0 {
				fmt.Fprintf(w, "\n=== Failed Files (%d) ===\n", len(failed))
				for _, f := range failed {
					fmt.Fprintf(w, "  %s: %s\n", f.FileKey, f.Error)
				}
			}

			// check DB file size
			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Fprintf(w, "\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkPath(w io.Writer, name, path string, wantDir bool) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		fmt.Fprintf(w, "  %s: %s (NOT FOUND)\n", name, path)
	case wantDir && !info.IsDir():
		fmt.Fprintf(w, "  %s: %s (NOT A DIRECTORY)\n", name, path)
	default:
		fmt.Fprintf(w, "  %s: %s (OK)\n", name, path)
	}
}
