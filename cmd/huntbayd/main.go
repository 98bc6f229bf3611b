// Command huntbayd is the huntbay orchestrator process: it loads
// configuration, connects to Postgres, wires every component (C1-C8), and
// serves the Gateway's REST+WebSocket API until asked to stop.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sablecore/huntbay/pkg/admission"
	"github.com/sablecore/huntbay/pkg/ai"
	"github.com/sablecore/huntbay/pkg/ai/drivers"
	"github.com/sablecore/huntbay/pkg/api"
	"github.com/sablecore/huntbay/pkg/auth"
	"github.com/sablecore/huntbay/pkg/cleanup"
	"github.com/sablecore/huntbay/pkg/config"
	"github.com/sablecore/huntbay/pkg/database"
	"github.com/sablecore/huntbay/pkg/enrichment"
	enrichdrivers "github.com/sablecore/huntbay/pkg/enrichment/drivers"
	"github.com/sablecore/huntbay/pkg/events"
	"github.com/sablecore/huntbay/pkg/external"
	"github.com/sablecore/huntbay/pkg/hunt"
	"github.com/sablecore/huntbay/pkg/huntmodule"
	"github.com/sablecore/huntbay/pkg/intel"
	"github.com/sablecore/huntbay/pkg/masking"
	"github.com/sablecore/huntbay/pkg/notify"
	"github.com/sablecore/huntbay/pkg/queue"
	"github.com/sablecore/huntbay/pkg/sessionrt"
	"github.com/sablecore/huntbay/pkg/sshconn"
	"github.com/sablecore/huntbay/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	if err := godotenv.Load(*configDir + "/.env"); err != nil {
		slog.Info("no .env file loaded, using existing environment", "error", err)
	}

	slog.Info("starting huntbay", "version", version.Full(), "config_dir", *configDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("failed to initialize configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded", "stats", cfg.Stats())

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbCfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("error closing database client", "error", err)
		}
	}()
	slog.Info("connected to postgres")

	// --- C1 Event Bus ---
	bus := events.NewBus(cfg.EventBus.SubscriberQueueSize)
	timeline := intel.NewTimelineStore(dbClient.Client)
	pub := events.NewPublisher(bus, timeline)
	conn := events.NewConnectionManagerWithLimits(bus, cfg.Gateway.WebSocketWriteTimeout,
		cfg.Gateway.TerminalInputBytesPerSec, cfg.Gateway.TerminalInputBurstBytes)

	// --- External collaborators ---
	secrets, identityVerifier, closeExternal := buildExternal(cfg.External)
	if closeExternal != nil {
		defer closeExternal()
	}

	assets := external.NewEntAssetStore(dbClient.Client, secrets)

	// --- Auth ---
	jwtSecret := os.Getenv(cfg.Auth.JWTSecretEnv)
	if jwtSecret == "" {
		slog.Error("JWT signing secret is not set", "env_var", cfg.Auth.JWTSecretEnv)
		os.Exit(1)
	}
	issuer := auth.NewIssuer(cfg.Auth, jwtSecret)
	refreshStore := auth.NewRefreshStore(dbClient.Client)
	authSvc := auth.NewService(issuer, refreshStore, identityVerifier)

	// --- C8 Admission ---
	admissionC := admission.New(dbClient.Client, cfg.RateLimit)
	if n, err := admissionC.Reconcile(ctx); err != nil {
		slog.Error("failed to reconcile stale sessions at startup", "error", err)
		os.Exit(1)
	} else if n > 0 {
		slog.Warn("reconciled stale non-terminal sessions left by a previous process", "count", n)
	}

	// --- Hunt modules ---
	moduleStore := huntmodule.NewStore(dbClient.Client, huntModuleCacheTTL)

	// --- Masking ---
	masker := masking.NewService(cfg.Defaults.OutputMasking)

	// --- Enrichment ---
	enrichRouter, enrichNames, healthMonitor := buildEnrichment(cfg.Enrichment)
	if healthMonitor != nil {
		healthMonitor.Start(ctx)
		defer healthMonitor.Stop()
	}

	// --- C5 AI Pipeline + bounded worker pool ---
	driver, err := buildAIDriver(cfg.AI)
	if err != nil {
		slog.Error("failed to build AI driver", "error", err)
		os.Exit(1)
	}
	findingStore := intel.NewFindingStore(dbClient.Client)
	reportStore := intel.NewReportStore(dbClient.Client)
	budget := ai.Budget{PerStepBytes: 8 * 1024, TotalBytes: cfg.AI.MaxContextTokens}
	pipeline := ai.NewPipeline(driver, findingStore, reportStore, pub, budget, enrichRouter, enrichNames)

	aiPool := queue.NewPool(cfg.Queue, pipeline)
	aiPool.Start(ctx)
	defer aiPool.Stop()

	// --- C4 Hunt Scheduler ---
	huntStore := intel.NewHuntStore(dbClient.Client)
	scheduler := hunt.NewScheduler(moduleStore, assets, aiPool, huntStore, pub, masker, cfg.Defaults.HuntConcurrencyPerSession)

	// --- C3 Session Runtime ---
	newClient := func(sessionID, assetID string) sessionrt.SSHClient {
		notifier := sessionrt.NewEventNotifier(pub, sessionID, assetID)
		return sshconn.NewConnector(*cfg.SSH, notifier)
	}
	sessions := sessionrt.NewManager(pub, newClient, cfg.SSH.MaxReconnectAttempts)

	// --- Slack paging ---
	notifySvc := notify.NewService(cfg.Notify, bus)
	if notifySvc != nil {
		notifySvc.Start(ctx)
		defer notifySvc.Stop()
	}

	// --- Retention cleanup ---
	cleanupSvc := cleanup.NewService(cfg.Retention, dbClient.Client)
	cleanupSvc.Start(ctx)
	defer cleanupSvc.Stop()

	// --- C7 Gateway ---
	server := api.NewServer(cfg.Gateway, dbClient.Client, secrets, admissionC, sessions, scheduler, moduleStore, findingStore, huntStore, reportStore, timeline, authSvc, issuer, conn)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", cfg.Gateway.Addr)
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		stop()
		slog.Info("shutdown signal received")
	case err := <-errCh:
		slog.Error("gateway failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("gateway forced to shut down", "error", err)
		os.Exit(1)
	}

	bus.Shutdown(shutdownCtx)
	slog.Info("huntbay stopped")
}

// huntModuleCacheTTL mirrors huntmodule's own package-level default; kept
// local since pkg/config has no dedicated HuntModuleConfig section.
const huntModuleCacheTTL = 5 * time.Minute

// buildExternal selects the local or gRPC-backed implementation of
// pkg/external's SecretsStore/IdentityVerifier boundaries per
// cfg.Backend. The returned close func is nil for the local backend, which
// owns no connection to release.
func buildExternal(cfg *config.ExternalConfig) (external.SecretsStore, external.IdentityVerifier, func()) {
	switch config.ExternalBackend(cfg.Backend) {
	case config.ExternalBackendGRPC:
		secrets, err := external.NewGRPCSecretsStore(cfg.GRPCTarget, cfg.GRPCInsecure, cfg.GRPCTimeout)
		if err != nil {
			slog.Error("failed to dial external secrets store", "error", err)
			os.Exit(1)
		}
		identity, err := external.NewGRPCIdentityVerifier(cfg.GRPCTarget, cfg.GRPCInsecure, cfg.GRPCTimeout)
		if err != nil {
			slog.Error("failed to dial external identity provider", "error", err)
			os.Exit(1)
		}
		return secrets, identity, func() {
			_ = secrets.Close()
			_ = identity.Close()
		}
	default:
		return external.NewEnvSecretsStore(), external.NewStaticIdentityVerifier(), nil
	}
}

// buildAIDriver selects the Driver implementation for cfg.Provider.
func buildAIDriver(cfg *config.AIConfig) (ai.Driver, error) {
	switch config.AIProvider(cfg.Provider) {
	case config.AIProviderOpenAICompat:
		apiKey := os.Getenv(cfg.APIKeyEnv)
		return drivers.NewOpenAICompat(apiKey, cfg.Model, cfg.BaseURL, cfg.MaxOutputTokens, cfg.RequestTimeout), nil
	case config.AIProviderOllama:
		return drivers.NewOllama(cfg.Model, cfg.BaseURL, cfg.RequestTimeout)
	default:
		apiKey := os.Getenv(cfg.APIKeyEnv)
		return drivers.NewAnthropic(apiKey, cfg.Model, cfg.BaseURL, cfg.MaxOutputTokens, cfg.RequestTimeout), nil
	}
}

// buildEnrichment constructs the enrichment Router/HealthMonitor from
// cfg.Drivers. Returns a nil Router (and nil HealthMonitor) when no
// drivers are configured, leaving the AI Pipeline's enrichment step a
// no-op (spec's enrichment integrations are explicitly out of scope as a
// concrete vendor, opt-in per deployment).
func buildEnrichment(cfg *config.EnrichmentConfig) (*enrichment.Router, []string, *enrichment.HealthMonitor) {
	if len(cfg.Drivers) == 0 {
		return nil, nil, nil
	}

	var built []enrichment.Driver
	var names []string
	for _, dc := range cfg.Drivers {
		switch dc.Type {
		case "http":
			d, err := enrichdrivers.NewHTTP(dc)
			if err != nil {
				slog.Error("failed to build enrichment driver", "name", dc.Name, "error", err)
				continue
			}
			built = append(built, d)
		case "static":
			built = append(built, enrichdrivers.NewStatic(dc.Name, nil))
		default:
			slog.Warn("unknown enrichment driver type, skipping", "name", dc.Name, "type", dc.Type)
			continue
		}
		names = append(names, dc.Name)
	}
	if len(built) == 0 {
		return nil, nil, nil
	}

	router := enrichment.NewRouter(built)
	return router, names, enrichment.NewHealthMonitor(router)
}
