package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/soyeahso/queueboard/internal/domain"
)

const healthPingTimeout = 2 * time.Second

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Time    string `json:"time"`
	DB      string `json:"db,omitempty"`
	Clients int    `json:"clients"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// handleHealth reports liveness and answers 503 when the database cannot
// be reached. The database target never includes credentials.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		OK:      true,
		Time:    time.Now().UTC().Format(time.RFC3339),
		DB:      s.dbTarget,
		Clients: s.clients.Count(),
		Version: s.version,
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	if err := s.svc.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("health: database unreachable")
		resp.OK = false
		resp.Error = "database unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleState returns the current board snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("state read failed")
		writeJSON(w, http.StatusServiceUnavailable, errorShape(err))
		return
	}
	if snap.Status == nil {
		snap = domain.Snapshot{Status: []domain.StatusRow{}, Assignment: []domain.AssignmentRow{}}
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
