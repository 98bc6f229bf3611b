package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getFindingHandler handles GET /api/v1/findings/:id (spec §6's get_finding).
func (s *Server) getFindingHandler(c *gin.Context) {
	f, err := s.findings.GetFinding(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, findingToResponse(f))
}

// deleteFindingHandler handles DELETE /api/v1/findings/:id (spec §6's
// delete_finding).
func (s *Server) deleteFindingHandler(c *gin.Context) {
	if err := s.findings.DeleteFinding(c.Request.Context(), c.Param("id")); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// getFindingSTIXHandler handles GET /api/v1/findings/:id/stix (spec §6's
// get_stix): returns the Finding's attached STIX 2.1 bundle, if any.
func (s *Server) getFindingSTIXHandler(c *gin.Context) {
	f, err := s.findings.GetFinding(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	if f.StixBundle == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "finding has no stix bundle"})
		return
	}
	c.JSON(http.StatusOK, f.StixBundle)
}

// updateFindingStatusHandler handles PATCH /api/v1/findings/:id/status
// (spec §6's update_status): analyst triage, open/acknowledged/resolved.
func (s *Server) updateFindingStatusHandler(c *gin.Context) {
	var req UpdateFindingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	switch req.Status {
	case "open", "acknowledged", "resolved":
	default:
		badRequest(c, "status must be one of open, acknowledged, resolved")
		return
	}
	if err := s.findings.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
