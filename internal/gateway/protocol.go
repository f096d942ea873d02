package gateway

import (
	"bytes"
	"encoding/json"
)

// Frame types for the WebSocket protocol.
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// Inbound request methods.
const (
	MethodUpdateCell  = "update_cell"
	MethodRenameAgent = "rename_agent"
	MethodFullState   = "full_state"
)

// Outbound event names.
const (
	EventFullState    = "full_state"
	EventCellUpdated  = "cell_updated"
	EventAgentRenamed = "agent_renamed"
	EventErrorMsg     = "error_msg"
)

// Frame is the base envelope for all WebSocket messages.
// The Type field discriminates between request, response, and event frames.
type Frame struct {
	Type string `json:"type"`

	// Request fields
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	// Response fields
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Event fields
	Event string `json:"event,omitempty"`
	Seq   int64  `json:"seq,omitempty"`

	// Error (response only)
	Error *ErrorShape `json:"error,omitempty"`
}

// ErrorShape is the standard error format in response frames and
// error_msg events.
type ErrorShape struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UpdateCellParams are the params of an update_cell request.
type UpdateCellParams struct {
	Table string `json:"table"`
	Agent string `json:"agent"`
	Field string `json:"field"`
	Value any    `json:"value"`
}

// RenameAgentParams are the params of a rename_agent request.
type RenameAgentParams struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

// RenameResult is the response payload of rename_agent.
type RenameResult struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
	Renamed bool   `json:"renamed"`
}

// NewRequest creates a request frame.
func NewRequest(id, method string, params any) (Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:   FrameTypeRequest,
		ID:     id,
		Method: method,
		Params: raw,
	}, nil
}

// NewResponse creates a success response frame.
func NewResponse(id string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	ok := true
	return Frame{
		Type:    FrameTypeResponse,
		ID:      id,
		OK:      &ok,
		Payload: raw,
	}, nil
}

// NewErrorResponse creates an error response frame.
func NewErrorResponse(id string, errShape ErrorShape) Frame {
	ok := false
	return Frame{
		Type:  FrameTypeResponse,
		ID:    id,
		OK:    &ok,
		Error: &errShape,
	}
}

// NewEvent creates an event frame.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:    FrameTypeEvent,
		Event:   event,
		Payload: raw,
		Seq:     seq,
	}, nil
}

// decodeParams unmarshals raw params, keeping numbers as json.Number so
// integer cell values survive without a float round trip.
func decodeParams(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(target)
}
