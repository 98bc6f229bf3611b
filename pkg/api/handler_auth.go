package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// loginHandler handles POST /api/auth/login.
func (s *Server) loginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	pair, err := s.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// refreshHandler handles POST /api/auth/refresh.
func (s *Server) refreshHandler(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	pair, err := s.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// changePasswordHandler handles POST /api/auth/change-password.
func (s *Server) changePasswordHandler(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := s.authSvc.ChangePassword(c.Request.Context(), req.Username, req.OldPassword, req.NewPassword); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
