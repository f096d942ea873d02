package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/soyeahso/queueboard/internal/config"
	"github.com/soyeahso/queueboard/internal/dashboard"
	"github.com/soyeahso/queueboard/internal/gateway"
	"github.com/soyeahso/queueboard/internal/hooks"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port      int
		bind      string
		broadcast string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			if broadcast != "" {
				cfg.Broadcast.Policy = broadcast
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			be, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer be.close()

			hookMgr := hooks.NewManager(log)
			registerCommandHooks(hookMgr, cfg.Hooks)

			srv := gateway.New(cfg, dashboard.NewService(be.store, log), log,
				gateway.WithHooks(hookMgr),
				gateway.WithDatabaseTarget(be.target),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override listen port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")
	cmd.Flags().StringVar(&broadcast, "broadcast", "", "override broadcast policy (include-self, exclude-self)")

	return cmd
}

// registerCommandHooks attaches the configured shell commands to their
// events.
func registerCommandHooks(m *hooks.Manager, cfg config.HooksConfig) int {
	byEvent := map[string][]config.HookEntry{
		hooks.EventDashboardStart:     cfg.DashboardStart,
		hooks.EventDashboardStop:      cfg.DashboardStop,
		hooks.EventClientConnected:    cfg.ClientConnected,
		hooks.EventClientDisconnected: cfg.ClientDisconnected,
		hooks.EventCellUpdated:        cfg.CellUpdated,
		hooks.EventAgentRenamed:       cfg.AgentRenamed,
	}

	n := 0
	for event, entries := range byEvent {
		for i, e := range entries {
			timeout := hooks.DefaultCommandTimeout
			if e.Timeout > 0 {
				timeout = time.Duration(e.Timeout) * time.Millisecond
			}
			m.On(event, fmt.Sprintf("config:%s[%d]", event, i), hooks.Command(e.Command, timeout))
			n++
		}
	}
	if n > 0 {
		log.Info().Int("hooks", n).Msg("command hooks registered")
	}
	return n
}
