package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sablecore/huntbay/ent"
)

// getHuntHandler handles GET /api/v1/hunts/:hunt_id (spec §6's hunts get).
func (s *Server) getHuntHandler(c *gin.Context) {
	h, err := s.client.Hunt.Get(c.Request.Context(), c.Param("hunt_id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, huntToResponse(h))
}

// sessionHuntReportsHandler handles GET /api/v1/sessions/:id/hunts/reports
// (spec §6's hunts session_reports): every AI report produced within one
// session, across all its hunts.
func (s *Server) sessionHuntReportsHandler(c *gin.Context) {
	reports, err := s.reports.ListBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reportsToResponse(reports))
}

// assetHuntReportsHandler handles GET /api/v1/assets/:id/hunts/reports
// (spec §6's hunts asset_reports): every AI report ever produced against an
// asset, across every session it has ever had.
func (s *Server) assetHuntReportsHandler(c *gin.Context) {
	reports, err := s.reports.ListByAsset(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reportsToResponse(reports))
}

// deleteHuntReportHandler handles DELETE /api/v1/hunts/reports/:report_id
// (spec §6's hunts delete_report).
func (s *Server) deleteHuntReportHandler(c *gin.Context) {
	if err := s.reports.Delete(c.Request.Context(), c.Param("report_id")); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func huntToResponse(h *ent.Hunt) HuntDetailResponse {
	resp := HuntDetailResponse{
		HuntID:        h.ID,
		SessionID:     h.SessionID,
		ModuleID:      h.ModuleID,
		RunAI:         h.RunAI,
		Status:        string(h.Status),
		FindingsCount: h.FindingsCount,
		StartedAt:     h.StartedAt,
		EndedAt:       h.EndedAt,
	}
	if h.AiReportText != nil {
		resp.AIReportText = *h.AiReportText
	}
	return resp
}

func reportsToResponse(reports []*ent.AIReport) []AIReportResponse {
	out := make([]AIReportResponse, 0, len(reports))
	for _, r := range reports {
		resp := AIReportResponse{
			ReportID:   r.ID,
			HuntID:     r.HuntID,
			SessionID:  r.SessionID,
			AssetID:    r.AssetID,
			Provider:   r.Provider,
			ModelName:  r.ModelName,
			ReportText: r.ReportText,
			CreatedAt:  r.CreatedAt,
		}
		if r.Summary != nil {
			resp.Summary = *r.Summary
		}
		if r.ErrorMessage != nil {
			resp.ErrorMessage = *r.ErrorMessage
		}
		out = append(out, resp)
	}
	return out
}
