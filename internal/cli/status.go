package cli

import (
	"fmt"
	"path/filepath"

	"github.com/soyeahso/queueboard/internal/config"
	"github.com/soyeahso/queueboard/internal/store"
	"github.com/soyeahso/queueboard/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queueboard status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "queueboard %s (commit %s)\n\n", version.Version, version.ShortCommit())

			fmt.Fprintf(out, "Config:    %s\n", paths.Config)
			fmt.Fprintf(out, "Data:      %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:      %s\n", paths.Logs)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:    error loading: %v\n", err)
				return nil
			}

			fmt.Fprintf(out, "Gateway:   port=%d bind=%s tls=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.TLS.Enabled)

			if cfg.Database.Backend == "memory" {
				fmt.Fprintln(out, "Database:  memory (not persisted)")
			} else {
				target := store.ParseTarget(cfg.Database.URL, filepath.Join(paths.Data, store.DefaultSQLiteFile))
				fmt.Fprintf(out, "Database:  %s %s\n", target.Driver, target.Redacted())
			}

			fmt.Fprintf(out, "Broadcast: %s\n", cfg.Broadcast.Policy)

			fmt.Fprintf(out, "Hooks:     %d\n", cfg.Hooks.Count())

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
