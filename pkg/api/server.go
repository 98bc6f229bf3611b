// Package api implements the Gateway (C7): the REST+WebSocket surface
// analysts use to manage Assets, open Sessions, run Hunts, and subscribe to
// the Event Bus (spec §4.7, §6).
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/pkg/admission"
	"github.com/sablecore/huntbay/pkg/auth"
	"github.com/sablecore/huntbay/pkg/config"
	"github.com/sablecore/huntbay/pkg/events"
	"github.com/sablecore/huntbay/pkg/external"
	"github.com/sablecore/huntbay/pkg/hunt"
	"github.com/sablecore/huntbay/pkg/huntmodule"
	"github.com/sablecore/huntbay/pkg/intel"
	"github.com/sablecore/huntbay/pkg/sessionrt"
)

// Server is the Gateway's HTTP+WebSocket server, grounded on tarsy's
// pkg/api.Server but built on gin (see DESIGN.md's `## pkg/api` entry for
// why gin rather than tarsy's echo-based files).
type Server struct {
	engine *gin.Engine
	http   *http.Server
	cfg    *config.GatewayConfig

	client     *ent.Client
	secrets    external.SecretsStore
	admissionC *admission.Controller
	sessions   *sessionrt.Manager
	scheduler  *hunt.Scheduler
	modules    *huntmodule.Store
	findings   *intel.FindingStore
	hunts      *intel.HuntStore
	reports    *intel.ReportStore
	timeline   *intel.TimelineStore
	authSvc    *auth.Service
	issuer     *auth.Issuer
	conn       *events.ConnectionManager
}

// NewServer constructs a Server with every collaborator wired at
// construction time. Unlike tarsy's Gateway, none of these are optional,
// so there is no Set*/ValidateWiring step (see DESIGN.md).
func NewServer(
	cfg *config.GatewayConfig,
	client *ent.Client,
	secrets external.SecretsStore,
	admissionC *admission.Controller,
	sessions *sessionrt.Manager,
	scheduler *hunt.Scheduler,
	modules *huntmodule.Store,
	findings *intel.FindingStore,
	hunts *intel.HuntStore,
	reports *intel.ReportStore,
	timeline *intel.TimelineStore,
	authSvc *auth.Service,
	issuer *auth.Issuer,
	conn *events.ConnectionManager,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), securityHeaders())

	s := &Server{
		engine:     engine,
		cfg:        cfg,
		client:     client,
		secrets:    secrets,
		admissionC: admissionC,
		sessions:   sessions,
		scheduler:  scheduler,
		modules:    modules,
		findings:   findings,
		hunts:      hunts,
		reports:    reports,
		timeline:   timeline,
		authSvc:    authSvc,
		issuer:     issuer,
		conn:       conn,
	}

	conn.SetDispatcher(s)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)

	authGroup := s.engine.Group("/api/auth")
	authGroup.POST("/login", s.loginHandler)
	authGroup.POST("/refresh", s.refreshHandler)
	authGroup.POST("/change-password", s.changePasswordHandler)

	v1 := s.engine.Group("/api/v1")
	v1.Use(requireAccessToken(s.issuer))

	v1.POST("/assets", s.createAssetHandler)
	v1.GET("/assets", s.listAssetsHandler)
	v1.GET("/assets/:id", s.getAssetHandler)
	v1.PATCH("/assets/:id", s.patchAssetHandler)
	v1.DELETE("/assets/:id", s.deleteAssetHandler)
	v1.GET("/assets/:id/timeline", s.assetTimelineHandler)
	v1.DELETE("/assets/:id/timeline", s.clearAssetTimelineHandler)
	v1.GET("/assets/:id/findings", s.listFindingsHandler)
	v1.GET("/assets/:id/hunts/reports", s.assetHuntReportsHandler)

	v1.POST("/hunt-modules", s.createHuntModuleHandler)
	v1.GET("/hunt-modules", s.listHuntModulesHandler)
	v1.GET("/hunt-modules/:id", s.getHuntModuleHandler)
	v1.PUT("/hunt-modules/:id", s.updateHuntModuleHandler)
	v1.DELETE("/hunt-modules/:id", s.deleteHuntModuleHandler)

	v1.POST("/sessions", s.createSessionHandler)
	v1.GET("/sessions", s.listSessionsHandler)
	v1.GET("/sessions/:id", s.getSessionHandler)
	v1.POST("/sessions/:id/mode", s.enterModeHandler)
	v1.POST("/sessions/:id/lock", s.lockSessionHandler)
	v1.POST("/sessions/:id/unlock", s.unlockSessionHandler)
	v1.POST("/sessions/:id/pause", s.pauseSessionHandler)
	v1.POST("/sessions/:id/resume", s.resumeSessionHandler)
	v1.POST("/sessions/:id/close", s.closeSessionHandler)
	v1.POST("/sessions/:id/hunts", s.runHuntHandler)
	v1.GET("/sessions/:id/hunts/reports", s.sessionHuntReportsHandler)

	v1.GET("/hunts/:hunt_id", s.getHuntHandler)
	v1.POST("/hunts/:hunt_id/cancel", s.cancelHuntHandler)
	v1.DELETE("/hunts/reports/:report_id", s.deleteHuntReportHandler)

	v1.GET("/findings/:id", s.getFindingHandler)
	v1.DELETE("/findings/:id", s.deleteFindingHandler)
	v1.GET("/findings/:id/stix", s.getFindingSTIXHandler)
	v1.PATCH("/findings/:id/status", s.updateFindingStatusHandler)

	// The WebSocket handshake authenticates via a "token" query parameter
	// instead of the Authorization header (browsers cannot set custom
	// headers on a WS upgrade), so it lives outside the v1 bearer-auth
	// group and verifies the token itself in wsHandler.
	s.engine.GET("/api/v1/ws", s.wsHandler)
}

// Start runs the HTTP server until the process is asked to stop.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
