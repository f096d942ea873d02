package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the three board relations. Satellite foreign keys are
// deferred to commit so a rename can move the key across all three tables
// inside one transaction.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS agents (
		name TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS status (
		agent_name TEXT PRIMARY KEY REFERENCES agents(name) DEFERRABLE INITIALLY DEFERRED,
		backlog    INTEGER NOT NULL DEFAULT 0,
		active     INTEGER NOT NULL DEFAULT 0,
		priority   TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS assignment (
		agent_name        TEXT PRIMARY KEY REFERENCES agents(name) DEFERRABLE INITIALLY DEFERRED,
		easy_to_handle    INTEGER NOT NULL DEFAULT 0,
		investigation     INTEGER NOT NULL DEFAULT 0,
		autoclose_tickets INTEGER NOT NULL DEFAULT 0
	)`,
}

// EnsureSchema creates the board relations if they are absent. It is safe
// to call repeatedly.
func (db *DB) EnsureSchema(ctx context.Context) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

// SeedIfEmpty creates the default agents when the board has none.
func (db *DB) SeedIfEmpty(ctx context.Context) error {
	seeded := false
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := db.queryRow(ctx, tx, `SELECT COUNT(*) FROM agents`).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, name := range db.seed {
			if _, err := db.ensureAgentTx(ctx, tx, name); err != nil {
				return fmt.Errorf("seeding %q: %w", name, err)
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("seeding board: %w", err)
	}
	if seeded {
		db.log.Info().Strs("agents", db.seed).Msg("seeded empty board")
	}
	return nil
}

// ensureAgentTx creates the agent and any missing satellite rows. It
// reports whether the agent row itself was new.
func (db *DB) ensureAgentTx(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	res, err := db.exec(ctx, tx, `INSERT INTO agents (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return false, fmt.Errorf("inserting agent: %w", err)
	}
	created, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting agent: %w", err)
	}

	if _, err := db.exec(ctx, tx,
		`INSERT INTO status (agent_name, backlog, active, priority)
		 VALUES (?, 0, 0, NULL) ON CONFLICT (agent_name) DO NOTHING`, name,
	); err != nil {
		return false, fmt.Errorf("inserting status: %w", err)
	}

	if _, err := db.exec(ctx, tx,
		`INSERT INTO assignment (agent_name, easy_to_handle, investigation, autoclose_tickets)
		 VALUES (?, 0, 0, 0) ON CONFLICT (agent_name) DO NOTHING`, name,
	); err != nil {
		return false, fmt.Errorf("inserting assignment: %w", err)
	}

	return created > 0, nil
}
