package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/soyeahso/queueboard/internal/domain"
)

// Board is the persisted agent table: status and assignment records keyed
// by agent name.
type Board struct {
	db *DB
}

// NewBoard creates a board over the given database.
func NewBoard(db *DB) *Board {
	return &Board{db: db}
}

// Ping reports whether the database is reachable.
func (b *Board) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}

// FullState returns every agent's status and assignment rows, sorted by
// name. If the relations have gone missing the schema is re-initialized
// and the read retried once.
func (b *Board) FullState(ctx context.Context) (domain.Snapshot, error) {
	snap, err := b.readState(ctx)
	if err == nil {
		return snap, nil
	}
	if !b.db.dialect.isMissingRelation(err) {
		return domain.Snapshot{}, fmt.Errorf("reading board: %w", err)
	}

	b.db.log.Warn().Err(err).Msg("board relations missing, re-initializing schema")
	if err := b.db.EnsureSchema(ctx); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrSchema, err)
	}
	if err := b.db.SeedIfEmpty(ctx); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrSchema, err)
	}

	snap, err = b.readState(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrSchema, err)
	}
	return snap, nil
}

func (b *Board) readState(ctx context.Context) (domain.Snapshot, error) {
	snap := domain.Snapshot{
		Status:     []domain.StatusRow{},
		Assignment: []domain.AssignmentRow{},
	}

	err := b.db.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT a.name, s.backlog, s.active, COALESCE(s.priority, '')
			 FROM agents a JOIN status s ON s.agent_name = a.name`)
		if err != nil {
			return err
		}
		for rows.Next() {
			var r domain.StatusRow
			if err := rows.Scan(&r.Name, &r.Backlog, &r.Active, &r.Priority); err != nil {
				rows.Close()
				return err
			}
			snap.Status = append(snap.Status, r)
		}
		if err := closeRows(rows); err != nil {
			return err
		}

		rows, err = tx.QueryContext(ctx,
			`SELECT a.name, g.easy_to_handle, g.investigation, g.autoclose_tickets
			 FROM agents a JOIN assignment g ON g.agent_name = a.name`)
		if err != nil {
			return err
		}
		for rows.Next() {
			var r domain.AssignmentRow
			if err := rows.Scan(&r.Name, &r.EasyToHandle, &r.Investigation, &r.AutocloseTickets); err != nil {
				rows.Close()
				return err
			}
			snap.Assignment = append(snap.Assignment, r)
		}
		return closeRows(rows)
	})
	if err != nil {
		return domain.Snapshot{}, err
	}

	// Sorted here rather than with ORDER BY so byte order is the same
	// whatever collation the backend uses.
	slices.SortFunc(snap.Status, func(x, y domain.StatusRow) int { return strings.Compare(x.Name, y.Name) })
	slices.SortFunc(snap.Assignment, func(x, y domain.AssignmentRow) int { return strings.Compare(x.Name, y.Name) })
	return snap, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

// EnsureAgent creates the agent with zero-valued status and assignment
// records in one transaction. It is a no-op for a known agent.
func (b *Board) EnsureAgent(ctx context.Context, name string) error {
	created := false
	err := b.db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = b.db.ensureAgentTx(ctx, tx, name)
		return err
	})
	if err != nil {
		return &domain.PersistenceError{Op: "ensure agent", Err: err}
	}
	if created {
		b.db.log.Info().Str("agent", name).Msg("agent created")
	}
	return nil
}

// columns maps each editable cell to its table and column. Only names
// listed here are ever interpolated into SQL.
var columns = map[domain.Table]map[domain.Field]string{
	domain.TableStatus: {
		domain.FieldBacklog:  "backlog",
		domain.FieldActive:   "active",
		domain.FieldPriority: "priority",
	},
	domain.TableAssignment: {
		domain.FieldEasyToHandle:     "easy_to_handle",
		domain.FieldInvestigation:    "investigation",
		domain.FieldAutocloseTickets: "autoclose_tickets",
	},
}

// WriteField creates the agent if needed and sets exactly one column of
// one row, all in one transaction. It returns the value as stored.
func (b *Board) WriteField(ctx context.Context, cell domain.Cell, value any) (any, error) {
	col, ok := columns[cell.Table][cell.Field]
	if !ok {
		return nil, domain.Invalidf("Invalid field")
	}

	var arg, stored any
	if cell.Field == domain.FieldPriority {
		p := domain.NormalizePriority(value)
		stored = p
		if p != domain.PriorityNone {
			arg = p
		}
	} else {
		n := domain.NormalizeCount(value)
		stored, arg = n, n
	}

	created := false
	err := b.db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if created, err = b.db.ensureAgentTx(ctx, tx, cell.Agent); err != nil {
			return err
		}

		query := fmt.Sprintf(`UPDATE %s SET %s = ? WHERE agent_name = ?`, string(cell.Table), col)
		res, err := b.db.exec(ctx, tx, query, arg, cell.Agent)
		if err != nil {
			return err
		}
		return expectOneRow(res)
	})
	if err != nil {
		return nil, &domain.PersistenceError{Op: "write field", Err: err}
	}

	if created {
		b.db.log.Info().Str("agent", cell.Agent).Msg("agent created by edit")
	}
	b.db.log.Debug().
		Str("table", string(cell.Table)).
		Str("agent", cell.Agent).
		Str("field", string(cell.Field)).
		Interface("value", stored).
		Msg("cell written")
	return stored, nil
}

// RenameAgent moves an agent's key from oldName to newName across the
// agent, status and assignment relations in one transaction.
func (b *Board) RenameAgent(ctx context.Context, oldName, newName string) error {
	err := b.db.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := b.agentExists(ctx, tx, oldName)
		if err != nil {
			return err
		}
		if !exists {
			return &domain.NotFoundError{Agent: oldName}
		}

		taken, err := b.agentExists(ctx, tx, newName)
		if err != nil {
			return err
		}
		if taken {
			return &domain.ConflictError{Agent: newName}
		}

		steps := []string{
			`UPDATE agents SET name = ? WHERE name = ?`,
			`UPDATE status SET agent_name = ? WHERE agent_name = ?`,
			`UPDATE assignment SET agent_name = ? WHERE agent_name = ?`,
		}
		for _, q := range steps {
			res, err := b.db.exec(ctx, tx, q, newName, oldName)
			if err != nil {
				return err
			}
			if err := expectOneRow(res); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		var (
			nf *domain.NotFoundError
			ce *domain.ConflictError
		)
		if errors.As(err, &nf) || errors.As(err, &ce) {
			return err
		}
		return &domain.PersistenceError{Op: "rename agent", Err: err}
	}

	b.db.log.Info().Str("from", oldName).Str("to", newName).Msg("agent renamed")
	return nil
}

func (b *Board) agentExists(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var count int
	if err := b.db.queryRow(ctx, tx, `SELECT COUNT(*) FROM agents WHERE name = ?`, name).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

var errRowCount = errors.New("unexpected row count")

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%w: %d", errRowCount, n)
	}
	return nil
}
