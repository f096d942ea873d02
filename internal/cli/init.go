package cli

import (
	"fmt"
	"os"

	"github.com/soyeahso/queueboard/internal/config"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var writeConfig bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database schema and seed the default agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			if writeConfig {
				if _, err := os.Stat(paths.Config); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Config exists: %s\n", paths.Config)
				} else if err := config.Save(paths.Config, config.Defaults()); err != nil {
					return fmt.Errorf("writing config: %w", err)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config: %s\n", paths.Config)
				}
			}

			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if cfg.Database.Backend == "memory" {
				fmt.Fprintln(cmd.OutOrStdout(), "Memory backend configured; nothing to initialize.")
				return nil
			}

			be, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer be.close()

			snap, err := be.store.FullState(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database ready: %s (%d agents)\n", be.target, len(snap.Status))
			return nil
		},
	}

	cmd.Flags().BoolVar(&writeConfig, "write-config", false, "also write a default config file if none exists")
	return cmd
}
