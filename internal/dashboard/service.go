// Package dashboard validates and applies board edits and renames on top
// of a state store.
package dashboard

import (
	"context"
	"strings"

	"github.com/soyeahso/queueboard/internal/domain"
	"github.com/soyeahso/queueboard/internal/logging"
)

// Store persists the board. Implementations must apply WriteField and
// RenameAgent atomically.
type Store interface {
	FullState(ctx context.Context) (domain.Snapshot, error)
	EnsureAgent(ctx context.Context, name string) error
	WriteField(ctx context.Context, cell domain.Cell, value any) (any, error)
	RenameAgent(ctx context.Context, oldName, newName string) error
}

// pinger is implemented by stores backed by a database connection.
type pinger interface {
	Ping(ctx context.Context) error
}

// Service is the single entry point for reading and mutating the board.
type Service struct {
	store Store
	log   *logging.Logger
}

// NewService creates a service over the given store.
func NewService(store Store, log *logging.Logger) *Service {
	return &Service{store: store, log: log.Sub("dashboard")}
}

// Snapshot returns the full board state.
func (s *Service) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	return s.store.FullState(ctx)
}

// Ping checks the store's backing database. Stores without one are
// always reachable.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.store.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// ApplyEdit validates and normalizes an edit, then stores it. Invalid
// edits never reach the store. The returned update carries the value
// actually stored.
//
// Agent names are only trimmed; names differing in case or inner spacing
// create distinct agents.
func (s *Service) ApplyEdit(ctx context.Context, e domain.Edit) (domain.CellUpdate, error) {
	cell, err := validateEdit(e)
	if err != nil {
		return domain.CellUpdate{}, err
	}

	stored, err := s.store.WriteField(ctx, cell, domain.Normalize(cell.Field, e.Value))
	if err != nil {
		s.log.Error().Err(err).
			Str("agent", cell.Agent).
			Str("table", string(cell.Table)).
			Str("field", string(cell.Field)).
			Msg("edit failed")
		return domain.CellUpdate{}, err
	}

	return domain.CellUpdate{
		Agent: cell.Agent,
		Table: cell.Table,
		Field: cell.Field,
		Value: stored,
	}, nil
}

func validateEdit(e domain.Edit) (domain.Cell, error) {
	agent := strings.TrimSpace(e.Agent)
	if agent == "" {
		return domain.Cell{}, domain.Invalidf("Agent is required.")
	}
	table, ok := domain.ParseTable(e.Table)
	if !ok {
		return domain.Cell{}, domain.Invalidf("Invalid table")
	}
	field := domain.Field(e.Field)
	if !table.HasField(field) {
		return domain.Cell{}, domain.Invalidf("Invalid field")
	}
	return domain.Cell{Table: table, Agent: agent, Field: field}, nil
}

// Rename moves an agent's key across all of its records. It reports
// whether anything changed: renaming an agent to its own name succeeds
// without touching the store.
func (s *Service) Rename(ctx context.Context, oldName, newName string) (bool, error) {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" {
		return false, domain.Invalidf("Agent name cannot be empty.")
	}
	if oldName == newName {
		return false, nil
	}

	if err := s.store.RenameAgent(ctx, oldName, newName); err != nil {
		s.log.Warn().Err(err).Str("from", oldName).Str("to", newName).Msg("rename rejected")
		return false, err
	}
	return true, nil
}
