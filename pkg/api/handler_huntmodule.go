package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sablecore/huntbay/pkg/huntmodule"
)

// createHuntModuleHandler handles POST /api/v1/hunt-modules: parses the raw
// markdown front-matter+step document and persists it (spec §6).
func (s *Server) createHuntModuleHandler(c *gin.Context) {
	var req CreateHuntModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	m, err := huntmodule.ParseMarkdown(req.Source)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	m.ID = req.ID

	if err := s.modules.Put(c.Request.Context(), m); err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, moduleToResponse(m))
}

func (s *Server) listHuntModulesHandler(c *gin.Context) {
	modules, err := s.modules.List(c.Request.Context())
	if err != nil {
		mapServiceError(c, err)
		return
	}
	out := make([]HuntModuleResponse, 0, len(modules))
	for _, m := range modules {
		out = append(out, moduleToResponse(m))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getHuntModuleHandler(c *gin.Context) {
	m, err := s.modules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, moduleToResponse(m))
}

// updateHuntModuleHandler handles PUT /api/v1/hunt-modules/:id (spec §6's
// hunt modules update): re-parses the markdown source and upserts it under
// the path id, overwriting whatever body id the document's own front-matter
// carries.
func (s *Server) updateHuntModuleHandler(c *gin.Context) {
	var req UpdateHuntModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	m, err := huntmodule.ParseMarkdown(req.Source)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	m.ID = c.Param("id")

	if err := s.modules.Put(c.Request.Context(), m); err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, moduleToResponse(m))
}

func (s *Server) deleteHuntModuleHandler(c *gin.Context) {
	if err := s.modules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func moduleToResponse(m *huntmodule.Module) HuntModuleResponse {
	osTypes := make([]string, 0, len(m.OSTypes))
	for _, t := range m.OSTypes {
		osTypes = append(osTypes, string(t))
	}
	return HuntModuleResponse{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		OSTypes:      osTypes,
		Tags:         m.Tags,
		SeverityHint: string(m.SeverityHint),
		Source:       m.RawSource,
	}
}
