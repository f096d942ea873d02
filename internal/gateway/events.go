package gateway

import (
	"github.com/soyeahso/queueboard/internal/domain"
)

// CodeMethodNotFound is reported for requests naming an unknown method.
const CodeMethodNotFound = "method_not_found"

func errorShape(err error) ErrorShape {
	return ErrorShape{
		Code:    domain.ErrorCode(err),
		Message: domain.PublicMessage(err),
	}
}

// publish broadcasts a change event to the registry. origin is the
// connection that caused it.
func (s *Server) publish(origin, event string, payload any) {
	seq := s.nextSeq()
	n := s.clients.Broadcast(event, payload, seq, origin)
	s.log.Debug().
		Str("event", event).
		Int64("seq", seq).
		Int("delivered", n).
		Msg("broadcast")
}

// sendErrorMsg reports a failure to one client only.
func (s *Server) sendErrorMsg(c *Client, err error) {
	s.sendErrorShape(c, errorShape(err))
}

func (s *Server) sendErrorShape(c *Client, shape ErrorShape) {
	if err := c.SendEvent(EventErrorMsg, shape, s.nextSeq()); err != nil {
		s.log.Warn().Err(err).Str("connId", c.ConnID).Msg("failed to send error_msg")
	}
}

// fail sends error_msg to the requester and, when the request carried an
// id, an error response.
func (s *Server) fail(c *Client, reqID string, err error) {
	s.failWith(c, reqID, errorShape(err))
}

func (s *Server) failWith(c *Client, reqID string, shape ErrorShape) {
	s.sendErrorShape(c, shape)
	if reqID == "" {
		return
	}
	if err := c.RespondError(reqID, shape); err != nil {
		s.log.Warn().Err(err).Str("connId", c.ConnID).Msg("failed to send error response")
	}
}
