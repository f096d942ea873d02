// Package cli implements the queueboard command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/soyeahso/queueboard/internal/config"
	"github.com/soyeahso/queueboard/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths     config.Paths
	log       *logging.Logger
	logCloser io.Closer
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queueboard",
		Short: "queueboard: live support queue dashboard",
		Long:  "queueboard serves a shared support-queue board over WebSocket and keeps it in SQLite or Postgres.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			// Logging settings come from the file when it parses; a broken
			// file is reported by the command that loads it.
			opts := logging.Options{Level: "info", ConsoleStyle: "pretty"}
			if cfg, err := config.Load(paths.Config); err == nil {
				opts = logging.Options{
					Level:        cfg.Logging.Level,
					ConsoleStyle: cfg.Logging.ConsoleStyle,
					File:         cfg.Logging.File,
				}
			}
			if logLevel != "" {
				opts.Level = logLevel
			}
			log, logCloser, err = logging.Open(opts)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				logCloser.Close()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.queueboard/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStateCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}
