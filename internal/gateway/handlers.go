package gateway

import (
	"context"
	"strings"

	"github.com/soyeahso/queueboard/internal/domain"
	"github.com/soyeahso/queueboard/internal/hooks"
)

// RequestHandler processes an incoming request frame from a client.
type RequestHandler func(rc *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Ctx    context.Context
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response when the request carried an id.
func (rc *RequestContext) Respond(payload any) {
	if rc.Frame.ID == "" {
		return
	}
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// Fail reports err to the requester only.
func (rc *RequestContext) Fail(err error) {
	rc.Server.fail(rc.Client, rc.Frame.ID, err)
}

// Params unmarshals the request params into the given target.
func (rc *RequestContext) Params(target any) error {
	return decodeParams(rc.Frame.Params, target)
}

// registerRPCHandlers sets up the board's request handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle(MethodUpdateCell, s.rpcUpdateCell)
	s.Handle(MethodRenameAgent, s.rpcRenameAgent)
	s.Handle(MethodFullState, s.rpcFullState)
}

func (s *Server) rpcUpdateCell(rc *RequestContext) {
	var p UpdateCellParams
	if err := rc.Params(&p); err != nil {
		rc.Fail(domain.Invalidf("Invalid payload."))
		return
	}

	upd, err := s.svc.ApplyEdit(rc.Ctx, domain.Edit{
		Table: p.Table,
		Agent: p.Agent,
		Field: p.Field,
		Value: p.Value,
	})
	if err != nil {
		rc.Fail(err)
		return
	}

	s.publish(rc.Client.ConnID, EventCellUpdated, upd)
	s.emitHook(rc.Ctx, hooks.EventCellUpdated, map[string]any{
		"agent": upd.Agent,
		"table": string(upd.Table),
		"field": string(upd.Field),
		"value": upd.Value,
	})
	rc.Respond(upd)
}

func (s *Server) rpcRenameAgent(rc *RequestContext) {
	var p RenameAgentParams
	if err := rc.Params(&p); err != nil {
		rc.Fail(domain.Invalidf("Invalid payload."))
		return
	}

	renamed, err := s.svc.Rename(rc.Ctx, p.OldName, p.NewName)
	if err != nil {
		rc.Fail(err)
		return
	}

	ev := domain.Rename{OldName: strings.TrimSpace(p.OldName), NewName: strings.TrimSpace(p.NewName)}
	if renamed {
		s.publish(rc.Client.ConnID, EventAgentRenamed, ev)
		s.emitHook(rc.Ctx, hooks.EventAgentRenamed, map[string]any{
			"old_name": ev.OldName,
			"new_name": ev.NewName,
		})
	}
	rc.Respond(RenameResult{OldName: ev.OldName, NewName: ev.NewName, Renamed: renamed})
}

func (s *Server) rpcFullState(rc *RequestContext) {
	snap, err := s.svc.Snapshot(rc.Ctx)
	if err != nil {
		rc.Fail(err)
		return
	}
	if err := rc.Client.SendEvent(EventFullState, snap, s.nextSeq()); err != nil {
		s.log.Warn().Err(err).Str("connId", rc.Client.ConnID).Msg("sending snapshot failed")
		return
	}
	rc.Respond(map[string]any{"agents": len(snap.Status)})
}
