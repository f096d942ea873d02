package dashboard

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/soyeahso/queueboard/internal/domain"
)

type memoryAgent struct {
	status     domain.StatusRow
	assignment domain.AssignmentRow
}

// MemoryStore is an in-memory Store. State is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	agents map[string]*memoryAgent // name → records
}

// NewMemoryStore creates an in-memory store seeded with the given agents,
// or the default agents when none are given.
func NewMemoryStore(seed ...string) *MemoryStore {
	if len(seed) == 0 {
		seed = domain.DefaultAgents
	}
	s := &MemoryStore{agents: make(map[string]*memoryAgent)}
	for _, name := range seed {
		s.ensureLocked(name)
	}
	return s
}

func (s *MemoryStore) FullState(_ context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.Snapshot{
		Status:     make([]domain.StatusRow, 0, len(s.agents)),
		Assignment: make([]domain.AssignmentRow, 0, len(s.agents)),
	}
	names := make([]string, 0, len(s.agents))
	for name := range s.agents {
		names = append(names, name)
	}
	slices.SortFunc(names, strings.Compare)

	for _, name := range names {
		a := s.agents[name]
		snap.Status = append(snap.Status, a.status)
		snap.Assignment = append(snap.Assignment, a.assignment)
	}
	return snap, nil
}

func (s *MemoryStore) EnsureAgent(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLocked(name)
	return nil
}

func (s *MemoryStore) ensureLocked(name string) *memoryAgent {
	if a, ok := s.agents[name]; ok {
		return a
	}
	a := &memoryAgent{
		status:     domain.StatusRow{Name: name},
		assignment: domain.AssignmentRow{Name: name},
	}
	s.agents[name] = a
	return a
}

func (s *MemoryStore) WriteField(_ context.Context, cell domain.Cell, value any) (any, error) {
	if !cell.Table.HasField(cell.Field) {
		return nil, domain.Invalidf("Invalid field")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.ensureLocked(cell.Agent)
	if cell.Field == domain.FieldPriority {
		p := domain.NormalizePriority(value)
		a.status.Priority = p
		return p, nil
	}

	n := domain.NormalizeCount(value)
	switch cell.Field {
	case domain.FieldBacklog:
		a.status.Backlog = n
	case domain.FieldActive:
		a.status.Active = n
	case domain.FieldEasyToHandle:
		a.assignment.EasyToHandle = n
	case domain.FieldInvestigation:
		a.assignment.Investigation = n
	case domain.FieldAutocloseTickets:
		a.assignment.AutocloseTickets = n
	}
	return n, nil
}

func (s *MemoryStore) RenameAgent(_ context.Context, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[oldName]
	if !ok {
		return &domain.NotFoundError{Agent: oldName}
	}
	if _, taken := s.agents[newName]; taken {
		return &domain.ConflictError{Agent: newName}
	}

	delete(s.agents, oldName)
	a.status.Name = newName
	a.assignment.Name = newName
	s.agents[newName] = a
	return nil
}
