package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/softsplit/internal/config"
	"github.com/Zuo-Peng/softsplit/internal/index"
	"github.com/Zuo-Peng/softsplit/internal/logging"
)

var version = "dev"

type configKey struct{}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:     "softsplit",
		Short:   "Split GEO SOFT-family series files into per-section TSV tables",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := logging.New(cmd.ErrOrStderr(), cfg.SlogLevel(), cfg.LogFormat)
			ctx := logging.WithLogger(cmd.Context(), logger)
			ctx = context.WithValue(ctx, configKey{}, cfg)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/softsplit/config.toml)")

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(doctorCmd())

	return rootCmd
}

// getConfig returns the config loaded by the root command.
func getConfig(cmd *cobra.Command) *config.Config {
	return cmd.Context().Value(configKey{}).(*config.Config)
}

func openManifest(cmd *cobra.Command) (*index.DB, error) {
	db, err := index.OpenDB(getConfig(cmd).DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
