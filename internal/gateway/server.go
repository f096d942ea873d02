// Package gateway serves the board over HTTP and WebSocket.
package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/queueboard/internal/config"
	"github.com/soyeahso/queueboard/internal/dashboard"
	"github.com/soyeahso/queueboard/internal/domain"
	"github.com/soyeahso/queueboard/internal/hooks"
	"github.com/soyeahso/queueboard/internal/logging"
	"github.com/soyeahso/queueboard/internal/version"
)

var (
	ErrClientClosed   = errors.New("client connection closed")
	ErrMalformedFrame = errors.New("malformed frame")
)

// Server is the queueboard HTTP + WebSocket server.
type Server struct {
	cfg      config.Config
	svc      *dashboard.Service
	log      *logging.Logger
	clients  *ClientRegistry
	handlers map[string]RequestHandler
	version  string
	eventSeq atomic.Int64

	// eventMu runs each connect, edit and rename to completion
	// (snapshot or persist, then broadcast) before the next one starts.
	eventMu sync.Mutex

	// Hook manager (optional, nil if not configured)
	hooks *hooks.Manager

	// dbTarget is reported by /health with credentials stripped.
	dbTarget string

	httpServer *http.Server
	listenAddr atomic.Value // string
	upgrader   websocket.Upgrader
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithHooks sets the hook manager for lifecycle and change events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// WithDatabaseTarget sets the redacted database description shown by /health.
func WithDatabaseTarget(target string) ServerOption {
	return func(s *Server) {
		s.dbTarget = target
	}
}

// New creates a new gateway server over the given dashboard service.
func New(cfg config.Config, svc *dashboard.Service, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		svc:      svc,
		log:      log.Sub("gateway"),
		clients:  NewClientRegistry(BroadcastPolicy(cfg.Broadcast.Policy), log.Sub("clients")),
		handlers: make(map[string]RequestHandler),
		version:  version.Version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.Gateway.AllowedOrigins),
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerRPCHandlers()
	return s
}

// checkWebSocketOrigin returns a function that validates WebSocket Origin headers.
// If no origins are configured, only same-origin (no Origin header) or non-browser
// clients are allowed. If origins are configured, the Origin must match one of them.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Same-origin or non-browser clients
		}
		return isOriginAllowed(origin, allowed)
	}
}

// Handle registers an RPC method handler.
func (s *Server) Handle(method string, handler RequestHandler) {
	s.handlers[method] = handler
}

// Clients returns the connection registry.
func (s *Server) Clients() *ClientRegistry {
	return s.clients
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Handler returns the full HTTP handler: routes wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.Gateway.AllowedOrigins)
}

// Start begins listening for HTTP and WebSocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		BaseContext: func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.Gateway.TLS.Enabled {
		cert, err := tls.LoadX509KeyPair(s.cfg.Gateway.TLS.CertPath, s.cfg.Gateway.TLS.KeyPath)
		if err != nil {
			ln.Close()
			return fmt.Errorf("loading TLS certificate: %w", err)
		}
		tlsCfg := &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		ln = tls.NewListener(ln, tlsCfg)
		s.log.Info().Msg("TLS enabled")
	}

	s.listenAddr.Store(ln.Addr().String())

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Gateway.Bind).
		Str("broadcast", string(s.clients.Policy())).
		Str("db", s.dbTarget).
		Msg("dashboard server ready")

	s.emitHook(ctx, hooks.EventDashboardStart, map[string]any{
		"addr": ln.Addr().String(),
	})

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down dashboard server")
		if s.hooks != nil {
			s.hooks.Emit(context.Background(), hooks.EventDashboardStop, nil)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.clients.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound listen address, or empty string if not started.
func (s *Server) Addr() string {
	if v, ok := s.listenAddr.Load().(string); ok {
		return v
	}
	return ""
}

// handleWebSocket upgrades HTTP to WebSocket, sends the initial snapshot,
// registers the client and runs the read loop.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	// Hijacked connections keep the server's read deadline.
	conn.SetReadDeadline(time.Time{})
	if kb := s.cfg.Gateway.MaxMessageKB; kb > 0 {
		conn.SetReadLimit(int64(kb) * 1024)
	}

	client := NewClient(conn, r.RemoteAddr)
	s.log.Debug().
		Str("connId", client.ConnID).
		Str("requestId", requestID(r.Context())).
		Str("remote", r.RemoteAddr).
		Msg("new websocket connection")

	ctx := r.Context()
	s.connect(ctx, client)
	defer s.disconnect(ctx, client)

	s.readLoop(ctx, client)
}

// connect delivers the snapshot to a connecting client and then registers
// it, so no broadcast can reach the client before its snapshot does. A
// failed read is reported to the client, which stays connected and can
// ask for full_state again.
func (s *Server) connect(ctx context.Context, client *Client) {
	ctx = context.WithoutCancel(ctx)

	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	snap, err := s.svc.Snapshot(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("connId", client.ConnID).Msg("initial snapshot failed")
		s.sendErrorMsg(client, err)
	} else if err := client.SendEvent(EventFullState, snap, s.nextSeq()); err != nil {
		s.log.Warn().Err(err).Str("connId", client.ConnID).Msg("sending snapshot failed")
	}

	s.clients.Add(client)
	s.emitHook(ctx, hooks.EventClientConnected, map[string]any{
		"connId": client.ConnID,
		"remote": client.RemoteAddr,
	})
}

func (s *Server) disconnect(ctx context.Context, client *Client) {
	removed := s.clients.Remove(client.ConnID)
	client.Close()
	if removed {
		s.emitHook(ctx, hooks.EventClientDisconnected, map[string]any{
			"connId": client.ConnID,
		})
	}
}

// readLoop processes incoming frames from a connected client.
func (s *Server) readLoop(ctx context.Context, client *Client) {
	for {
		frame, err := client.ReadFrame()
		if errors.Is(err, ErrMalformedFrame) {
			s.log.Debug().Err(err).Str("connId", client.ConnID).Msg("malformed frame")
			s.sendErrorMsg(client, domain.Invalidf("Malformed message."))
			continue
		}
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			} else {
				s.log.Warn().Err(err).Str("connId", client.ConnID).Msg("read error")
			}
			return
		}

		if frame.Type != FrameTypeRequest {
			s.log.Debug().Str("type", frame.Type).Msg("ignoring non-request frame")
			continue
		}

		s.dispatch(ctx, client, frame)
	}
}

// dispatch routes a request frame to the appropriate handler. Handlers run
// under the event lock on a context detached from the connection, so an
// edit that has started is always finished.
func (s *Server) dispatch(ctx context.Context, client *Client, frame Frame) {
	handler, ok := s.handlers[frame.Method]
	if !ok {
		s.failWith(client, frame.ID, ErrorShape{
			Code:    CodeMethodNotFound,
			Message: "unknown method: " + frame.Method,
		})
		return
	}

	rc := &RequestContext{
		Ctx:    context.WithoutCancel(ctx),
		Client: client,
		Frame:  frame,
		Server: s,
	}

	s.eventMu.Lock()
	defer s.eventMu.Unlock()
	handler(rc)
}

func (s *Server) nextSeq() int64 {
	return s.eventSeq.Add(1)
}

func (s *Server) emitHook(ctx context.Context, event string, data map[string]any) {
	if s.hooks == nil {
		return
	}
	s.hooks.EmitAsync(context.WithoutCancel(ctx), event, data)
}
