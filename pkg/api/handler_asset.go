package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/ent/asset"
)

// createAssetHandler handles POST /api/v1/assets: creates the Asset row and
// its paired Credential. The request only ever carries a secret_ref — the
// actual secret is provisioned in the external secrets store out of band
// (spec §1 Non-goals: secret material never lives in the application
// database, and the Gateway has no secret-writing path of its own). A
// custom_password sudo policy expects the operator to have separately
// provisioned a secret under pkg/external's fixed "sudo/<asset_id>" ref.
func (s *Server) createAssetHandler(c *gin.Context) {
	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	osType := asset.OsTypeUnknown
	if req.OSType != "" {
		osType = asset.OsType(req.OSType)
	}
	sshPort := req.SSHPort
	if sshPort == 0 {
		sshPort = 22
	}

	ctx := c.Request.Context()
	assetID := uuid.NewString()

	create := s.client.Asset.Create().
		SetID(assetID).
		SetHostname(req.Hostname).
		SetIPAddress(req.IPAddress).
		SetOsType(osType).
		SetSSHPort(sshPort).
		SetSSHUsername(req.SSHUsername)

	if req.SudoPolicy != "" {
		create = create.SetSudoPolicy(asset.SudoPolicy(req.SudoPolicy))
	}

	a, err := create.Save(ctx)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	credCreate := s.client.Credential.Create().
		SetID(uuid.NewString()).
		SetAssetID(assetID).
		SetSecretRef(req.SecretRef)
	if req.AuthType == "private_key" {
		credCreate = credCreate.SetAuthType("private_key")
	} else {
		credCreate = credCreate.SetAuthType("password")
	}
	if req.PassphraseRef != "" {
		credCreate = credCreate.SetPassphraseRef(req.PassphraseRef)
	}
	if _, err := credCreate.Save(ctx); err != nil {
		mapServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assetToResponse(a))
}

func (s *Server) listAssetsHandler(c *gin.Context) {
	assets, err := s.client.Asset.Query().All(c.Request.Context())
	if err != nil {
		mapServiceError(c, err)
		return
	}
	out := make([]AssetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, assetToResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getAssetHandler(c *gin.Context) {
	a, err := s.client.Asset.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assetToResponse(a))
}

// patchAssetHandler handles PATCH /api/v1/assets/:id (spec §6's assets
// patch): applies only the fields the caller set.
func (s *Server) patchAssetHandler(c *gin.Context) {
	var req PatchAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	update := s.client.Asset.UpdateOneID(c.Param("id"))
	if req.Hostname != "" {
		update = update.SetHostname(req.Hostname)
	}
	if req.IPAddress != "" {
		update = update.SetIPAddress(req.IPAddress)
	}
	if req.OSType != "" {
		update = update.SetOsType(asset.OsType(req.OSType))
	}
	if req.SSHPort != 0 {
		update = update.SetSSHPort(req.SSHPort)
	}
	if req.SSHUsername != "" {
		update = update.SetSSHUsername(req.SSHUsername)
	}
	if req.SudoPolicy != "" {
		update = update.SetSudoPolicy(asset.SudoPolicy(req.SudoPolicy))
	}

	a, err := update.Save(c.Request.Context())
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assetToResponse(a))
}

// deleteAssetHandler handles DELETE /api/v1/assets/:id (spec §6's assets
// delete). Credentials, findings and timeline rows cascade via the schema's
// foreign keys; sessions still live against this asset are left alone to
// terminate on their own (deleting an asset out from under a running
// session is an operator error, not something the Gateway silently repairs).
func (s *Server) deleteAssetHandler(c *gin.Context) {
	if err := s.client.Asset.DeleteOneID(c.Param("id")).Exec(c.Request.Context()); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) assetTimelineHandler(c *gin.Context) {
	events, err := s.timeline.ListTimeline(c.Request.Context(), c.Param("id"), 200)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// clearAssetTimelineHandler handles DELETE /api/v1/assets/:id/timeline
// (spec §6's intelligence clear_timeline).
func (s *Server) clearAssetTimelineHandler(c *gin.Context) {
	if err := s.timeline.ClearTimeline(c.Request.Context(), c.Param("id")); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listFindingsHandler handles GET /api/v1/assets/:id/findings (spec §6's
// list_findings(?asset_id,?session_id)); session_id narrows to one origin
// session when supplied as a query parameter.
func (s *Server) listFindingsHandler(c *gin.Context) {
	findings, err := s.findings.ListFindings(c.Request.Context(), c.Param("id"), c.Query("session_id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	out := make([]FindingResponse, 0, len(findings))
	for _, f := range findings {
		out = append(out, findingToResponse(f))
	}
	c.JSON(http.StatusOK, out)
}

func findingToResponse(f *ent.Finding) FindingResponse {
	return FindingResponse{
		ID:            f.ID,
		AssetID:       f.AssetID,
		Title:         f.Title,
		Severity:      string(f.Severity),
		Confidence:    f.Confidence,
		Status:        string(f.Status),
		SightingCount: f.SightingCount,
		FirstSeen:     f.FirstSeen,
		LastSeen:      f.LastSeen,
	}
}

func assetToResponse(a *ent.Asset) AssetResponse {
	resp := AssetResponse{
		ID:          a.ID,
		Hostname:    a.Hostname,
		IPAddress:   a.IPAddress,
		OSType:      string(a.OsType),
		SSHPort:     a.SSHPort,
		SSHUsername: a.SSHUsername,
	}
	if a.SudoPolicy != nil {
		resp.SudoPolicy = string(*a.SudoPolicy)
	}
	return resp
}
