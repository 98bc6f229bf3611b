package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/ent/session"
	"github.com/sablecore/huntbay/pkg/sessionrt"
	"github.com/sablecore/huntbay/pkg/sshconn"
)

// createSessionHandler handles POST /api/v1/sessions: claims the durable
// admission row (C8), resolves the Asset + Credential into an sshconn
// target/auth pair, and hands off to the Session Runtime (C3) to start the
// owning Owner goroutine (spec §4.3).
func (s *Server) createSessionHandler(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	mode := session.Mode(req.Mode)
	if mode != session.ModeAi && mode != session.ModeInteractive {
		badRequest(c, "mode must be \"ai\" or \"interactive\"")
		return
	}

	ctx := c.Request.Context()
	analyst := analystID(c)

	a, err := s.client.Asset.Get(ctx, req.AssetID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	cred, err := a.QueryCredential().Only(ctx)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	auth, err := s.resolveAuth(ctx, a, cred)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	sessionID, err := s.admissionC.Claim(ctx, req.AssetID, analyst, mode)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	desc := sessionrt.Descriptor{SessionID: sessionID, AssetID: req.AssetID, AnalystID: analyst}
	target := sshconn.Target{Host: a.IPAddress, Port: a.SSHPort}
	initialMode := sessionrt.ModeAI
	if mode == session.ModeInteractive {
		initialMode = sessionrt.ModeInteractive
	}

	if _, err := s.sessions.Create(ctx, desc, target, auth, initialMode); err != nil {
		mapServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		SessionID: sessionID,
		AssetID:   req.AssetID,
		AnalystID: analyst,
		Mode:      req.Mode,
		State:     string(sessionrt.StateInitializing),
	})
}

func (s *Server) resolveAuth(ctx context.Context, a *ent.Asset, cred *ent.Credential) (sshconn.AuthMethod, error) {
	secret, err := s.secrets.Resolve(ctx, cred.SecretRef)
	if err != nil {
		return sshconn.AuthMethod{}, fmt.Errorf("gateway: resolve credential secret: %w", err)
	}
	auth := sshconn.AuthMethod{Username: a.SSHUsername}
	if cred.AuthType == "private_key" {
		auth.PrivateKeyPEM = []byte(secret)
		if cred.PassphraseRef != nil {
			pass, err := s.secrets.Resolve(ctx, *cred.PassphraseRef)
			if err != nil {
				return sshconn.AuthMethod{}, fmt.Errorf("gateway: resolve credential passphrase: %w", err)
			}
			auth.Passphrase = pass
		}
	} else {
		auth.Password = secret
	}
	return auth, nil
}

func (s *Server) listSessionsHandler(c *gin.Context) {
	q := s.client.Session.Query()
	if v := c.Query("asset_id"); v != "" {
		q = q.Where(session.AssetIDEQ(v))
	}
	if v := c.Query("analyst_id"); v != "" {
		q = q.Where(session.AnalystIDEQ(v))
	}
	if v := c.Query("state"); v != "" {
		q = q.Where(session.StateEQ(session.State(v)))
	}
	rows, err := q.All(c.Request.Context())
	if err != nil {
		mapServiceError(c, err)
		return
	}
	out := make([]SessionResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, sessionRowToResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getSessionHandler(c *gin.Context) {
	owner, err := s.sessions.Get(c.Param("id"))
	if err == nil {
		snap, err := owner.Snapshot(c.Request.Context())
		if err != nil {
			mapServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, snapshotToResponse(snap))
		return
	}

	row, err := s.client.Session.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionRowToResponse(row))
}

func (s *Server) enterModeHandler(c *gin.Context) {
	var req EnterModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	owner, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	mode := sessionrt.ModeAI
	if req.Mode == string(sessionrt.ModeInteractive) {
		mode = sessionrt.ModeInteractive
	}
	if err := owner.EnterMode(c.Request.Context(), analystID(c), mode); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) lockSessionHandler(c *gin.Context) {
	s.ownerAction(c, func(o *sessionrt.Owner) error { return o.Lock(c.Request.Context(), analystID(c)) })
}

func (s *Server) unlockSessionHandler(c *gin.Context) {
	s.ownerAction(c, func(o *sessionrt.Owner) error { return o.Unlock(c.Request.Context(), analystID(c)) })
}

func (s *Server) pauseSessionHandler(c *gin.Context) {
	s.ownerAction(c, func(o *sessionrt.Owner) error { return o.Pause(c.Request.Context(), analystID(c)) })
}

func (s *Server) resumeSessionHandler(c *gin.Context) {
	s.ownerAction(c, func(o *sessionrt.Owner) error { return o.Resume(c.Request.Context(), analystID(c)) })
}

func (s *Server) closeSessionHandler(c *gin.Context) {
	s.ownerAction(c, func(o *sessionrt.Owner) error { return o.Close(c.Request.Context(), analystID(c)) })
}

func (s *Server) ownerAction(c *gin.Context, action func(*sessionrt.Owner) error) {
	owner, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	if err := action(owner); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// runHuntHandler handles POST /api/v1/sessions/:id/hunts: starts a Hunt run
// against the session's Owner in the background and returns immediately
// (spec §4.4 — progress is observed over the Event Bus, not this response).
func (s *Server) runHuntHandler(c *gin.Context) {
	var req RunHuntRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sessionID := c.Param("id")
	owner, err := s.sessions.Get(sessionID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	row, err := s.client.Session.Get(c.Request.Context(), sessionID)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	huntID := uuid.NewString()
	go func() {
		if err := s.scheduler.Run(context.Background(), huntID, sessionID, row.AssetID, owner, req.ModuleID, req.RunAI); err != nil {
			_ = err // failure is observed via hunt.failed on the Event Bus
		}
	}()

	c.JSON(http.StatusAccepted, HuntResponse{HuntID: huntID, Status: "started"})
}

func (s *Server) cancelHuntHandler(c *gin.Context) {
	s.scheduler.Cancel(c.Param("hunt_id"))
	c.Status(http.StatusNoContent)
}

// TerminalInput implements events.TerminalDispatcher.
func (s *Server) TerminalInput(ctx context.Context, sessionID, analystID string, data []byte) error {
	owner, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return owner.TerminalInput(ctx, analystID, data)
}

// TerminalResize implements events.TerminalDispatcher.
func (s *Server) TerminalResize(ctx context.Context, sessionID string, cols, rows int) error {
	owner, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return owner.TerminalResize(ctx, cols, rows)
}

// EnterMode implements events.TerminalDispatcher.
func (s *Server) EnterMode(ctx context.Context, sessionID, analystID, mode string) error {
	owner, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	m := sessionrt.ModeAI
	if mode == string(sessionrt.ModeInteractive) {
		m = sessionrt.ModeInteractive
	}
	return owner.EnterMode(ctx, analystID, m)
}

func snapshotToResponse(snap sessionrt.Snapshot) SessionResponse {
	return SessionResponse{
		SessionID:    snap.SessionID,
		AssetID:      snap.AssetID,
		AnalystID:    snap.AnalystID,
		Mode:         string(snap.Mode),
		State:        string(snap.State),
		LockedBy:     snap.LockedBy,
		CreatedAt:    snap.CreatedAt,
		TerminatedAt: snap.TerminatedAt,
	}
}

func sessionRowToResponse(r *ent.Session) SessionResponse {
	resp := SessionResponse{
		SessionID: r.ID,
		AssetID:   r.AssetID,
		AnalystID: r.AnalystID,
		Mode:      string(r.Mode),
		State:     string(r.State),
		CreatedAt: r.CreatedAt,
	}
	if r.LockedBy != nil {
		resp.LockedBy = *r.LockedBy
	}
	if r.TerminatedAt != nil {
		resp.TerminatedAt = *r.TerminatedAt
	}
	return resp
}
