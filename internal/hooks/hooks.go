// Package hooks dispatches board lifecycle and change events to registered
// handlers.
package hooks

import (
	"context"
	"sync"

	"github.com/soyeahso/queueboard/internal/logging"
)

// Event names for the hook system.
const (
	EventDashboardStart     = "dashboard_start"
	EventDashboardStop      = "dashboard_stop"
	EventClientConnected    = "client_connected"
	EventClientDisconnected = "client_disconnected"
	EventCellUpdated        = "cell_updated"
	EventAgentRenamed       = "agent_renamed"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventDashboardStart,
	EventDashboardStop,
	EventClientConnected,
	EventClientDisconnected,
	EventCellUpdated,
	EventAgentRenamed,
}

// Payload carries event data to hook handlers.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler is a function that handles a hook event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// Manager manages hook registrations and dispatches events.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for the given event under a name used in logs.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// Off removes all handlers with the given name from the event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.handlers[event][:0:0]
	for _, h := range m.handlers[event] {
		if h.name != name {
			kept = append(kept, h)
		}
	}
	m.handlers[event] = kept
}

// Count returns the number of handlers registered for an event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

func (m *Manager) snapshot(event string) []namedHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]namedHandler(nil), m.handlers[event]...)
}

// Emit dispatches an event to all registered handlers synchronously, in
// registration order. A failing handler does not stop the rest.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	payload := Payload{Event: event, Data: data}
	for _, h := range m.snapshot(event) {
		m.run(ctx, h, payload)
	}
}

// EmitAsync dispatches an event to all registered handlers concurrently
// and returns immediately.
func (m *Manager) EmitAsync(ctx context.Context, event string, data map[string]any) {
	payload := Payload{Event: event, Data: data}
	for _, h := range m.snapshot(event) {
		go m.run(ctx, h, payload)
	}
}

func (m *Manager) run(ctx context.Context, h namedHandler, p Payload) {
	if err := h.handler(ctx, p); err != nil {
		m.log.Warn().
			Err(err).
			Str("event", p.Event).
			Str("handler", h.name).
			Msg("hook handler error")
	}
}
