package gateway

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/queueboard/internal/config"
	"github.com/soyeahso/queueboard/internal/logging"
)

// writeWait bounds a single frame write so a stalled peer cannot hold up
// a broadcast indefinitely.
const writeWait = 10 * time.Second

// ConnState is the lifecycle state of a WebSocket connection.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateConnected
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// BroadcastPolicy decides whether the connection that caused a change also
// receives its broadcast.
type BroadcastPolicy string

const (
	IncludeSelf BroadcastPolicy = config.BroadcastIncludeSelf
	ExcludeSelf BroadcastPolicy = config.BroadcastExcludeSelf
)

// Client represents a live WebSocket connection.
type Client struct {
	ConnID      string
	RemoteAddr  string
	Socket      *websocket.Conn
	ConnectedAt time.Time

	mu     sync.Mutex
	state  ConnState
	closed bool
}

// NewClient creates a Client for a freshly upgraded connection. It starts
// in StateConnecting.
func NewClient(conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		ConnID:      uuid.New().String(),
		RemoteAddr:  remoteAddr,
		Socket:      conn,
		ConnectedAt: time.Now(),
		state:       StateConnecting,
	}
}

// State returns the current lifecycle state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s ConnState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisconnected {
		return
	}
	c.state = s
}

// Send sends a frame to the client. Thread-safe.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}

	c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Socket.WriteJSON(frame)
}

// SendEvent sends a named event with payload.
func (c *Client) SendEvent(event string, payload any, seq int64) error {
	f, err := NewEvent(event, payload, seq)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// Respond sends a success response for the given request ID.
func (c *Client) Respond(reqID string, payload any) error {
	f, err := NewResponse(reqID, payload)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// RespondError sends an error response for the given request ID.
func (c *Client) RespondError(reqID string, errShape ErrorShape) error {
	return c.Send(NewErrorResponse(reqID, errShape))
}

// ReadFrame reads the next frame from the WebSocket.
func (c *Client) ReadFrame() (Frame, error) {
	_, msg, err := c.Socket.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return f, nil
}

// Close closes the WebSocket connection and marks the client disconnected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateDisconnected
	if c.closed {
		return nil
	}
	c.closed = true
	if c.Socket == nil {
		return nil
	}
	return c.Socket.Close()
}

// ClientRegistry manages connected clients and fans out events to them.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client // connID → Client
	policy  BroadcastPolicy
	log     *logging.Logger
}

// NewClientRegistry creates an empty client registry.
func NewClientRegistry(policy BroadcastPolicy, log *logging.Logger) *ClientRegistry {
	if policy != ExcludeSelf {
		policy = IncludeSelf
	}
	return &ClientRegistry{
		clients: make(map[string]*Client),
		policy:  policy,
		log:     log,
	}
}

// Policy returns the registry's broadcast policy.
func (r *ClientRegistry) Policy() BroadcastPolicy {
	return r.policy
}

// Add registers a client and marks it connected.
func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.setState(StateConnected)
	r.clients[c.ConnID] = c
	r.log.Info().Str("connId", c.ConnID).Str("remote", c.RemoteAddr).Msg("client connected")
}

// Remove unregisters a client by connection ID. It reports whether the
// client was registered.
func (r *ClientRegistry) Remove(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[connID]; !ok {
		return false
	}
	delete(r.clients, connID)
	r.log.Info().Str("connId", connID).Msg("client disconnected")
	return true
}

// Get returns a client by connection ID.
func (r *ClientRegistry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[connID]
	return c, ok
}

// Count returns the number of connected clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast sends an event frame to every connected client. origin is the
// connection that caused the event; under ExcludeSelf it is skipped. An
// empty origin reaches everyone. It returns the number of clients the
// frame was delivered to; send failures are logged and skipped.
func (r *ClientRegistry) Broadcast(event string, payload any, seq int64, origin string) int {
	f, err := NewEvent(event, payload, seq)
	if err != nil {
		r.log.Error().Err(err).Str("event", event).Msg("encoding broadcast failed")
		return 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	delivered := 0
	for id, c := range r.clients {
		if r.policy == ExcludeSelf && origin != "" && id == origin {
			continue
		}
		if err := c.Send(f); err != nil {
			r.log.Warn().Err(err).Str("connId", id).Str("event", event).Msg("broadcast send failed")
			continue
		}
		delivered++
	}
	return delivered
}

// CloseAll closes all connected clients.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		c.Close()
		delete(r.clients, id)
	}
}
