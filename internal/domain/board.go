// Package domain defines the core types shared across queueboard: agents,
// their status and assignment records, and the cells clients edit.
package domain

// DefaultAgents are seeded into an empty board.
var DefaultAgents = []string{"Victor", "Julio", "Felipe", "Cindy"}

// StatusRow is one agent's workload status as shown on the board.
type StatusRow struct {
	Name     string `json:"name"`
	Backlog  int    `json:"backlog"`
	Active   int    `json:"active"`
	Priority string `json:"priority"` // "" | "P1" | "P2"
}

// AssignmentRow is one agent's assignment-category counters.
type AssignmentRow struct {
	Name             string `json:"name"`
	EasyToHandle     int    `json:"easy_to_handle"`
	Investigation    int    `json:"investigation"`
	AutocloseTickets int    `json:"autoclose_tickets"`
}

// Snapshot is the full board state. Both slices are sorted by agent name
// and hold exactly one entry per agent.
type Snapshot struct {
	Status     []StatusRow     `json:"status"`
	Assignment []AssignmentRow `json:"assignment"`
}

// Names returns the agent names in snapshot order.
func (s Snapshot) Names() []string {
	names := make([]string, len(s.Status))
	for i, r := range s.Status {
		names[i] = r.Name
	}
	return names
}

// StatusOf returns the status row for the named agent.
func (s Snapshot) StatusOf(name string) (StatusRow, bool) {
	for _, r := range s.Status {
		if r.Name == name {
			return r, true
		}
	}
	return StatusRow{}, false
}

// AssignmentOf returns the assignment row for the named agent.
func (s Snapshot) AssignmentOf(name string) (AssignmentRow, bool) {
	for _, r := range s.Assignment {
		if r.Name == name {
			return r, true
		}
	}
	return AssignmentRow{}, false
}

// Edit is a raw, unvalidated request to change one cell.
type Edit struct {
	Table string `json:"table"`
	Agent string `json:"agent"`
	Field string `json:"field"`
	Value any    `json:"value"`
}

// CellUpdate is the fact emitted after an edit is stored. Value holds the
// normalized stored value, never the client's raw input.
type CellUpdate struct {
	Agent string `json:"agent"`
	Table Table  `json:"table"`
	Field Field  `json:"field"`
	Value any    `json:"value"`
}

// Rename is the fact emitted after an agent's key changes.
type Rename struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}
