package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/soyeahso/queueboard/internal/config"
	"github.com/soyeahso/queueboard/internal/dashboard"
	"github.com/soyeahso/queueboard/internal/store"
)

// backend is an opened board store plus what /health reports about it.
type backend struct {
	store  dashboard.Store
	target string
	close  func() error
}

// openBackend opens the configured board store, creating the schema and
// seeding default agents when the store is new.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	if cfg.Database.Backend == "memory" {
		log.Warn().Msg("using in-memory board; state is lost on restart")
		return &backend{
			store:  dashboard.NewMemoryStore(cfg.Database.SeedAgents...),
			target: "memory",
			close:  func() error { return nil },
		}, nil
	}

	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	target := store.ParseTarget(cfg.Database.URL, filepath.Join(paths.Data, store.DefaultSQLiteFile))

	db, err := store.Open(ctx, target, log, store.WithSeedAgents(cfg.Database.SeedAgents))
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", target.Redacted(), err)
	}
	log.Info().Str("driver", target.Driver).Str("db", target.Redacted()).Msg("database ready")

	return &backend{
		store:  store.NewBoard(db),
		target: target.Redacted(),
		close:  db.Close,
	}, nil
}
