package api

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

// wsHandler upgrades to a WebSocket and hands the connection to the Event
// Bus's ConnectionManager (C1) for the rest of its lifetime (spec §4.7).
// Authentication happens here, before the upgrade, using a "token" query
// parameter rather than the Authorization header: browsers cannot set
// custom headers on a WebSocket handshake.
func (s *Server) wsHandler(c *gin.Context) {
	token := c.Query("token")
	claims, err := s.issuer.VerifyAccess(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid or expired token"})
		return
	}

	opts := &websocket.AcceptOptions{}
	if len(s.cfg.CORSAllowedOrigins) > 0 {
		opts.OriginPatterns = s.cfg.CORSAllowedOrigins
	} else {
		opts.InsecureSkipVerify = true
	}

	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		return
	}

	s.conn.HandleConnection(c.Request.Context(), conn, claims.Subject)
}
