package notify

import (
	"context"
	"log/slog"
	"os"
	"time"

	goslack "github.com/slack-go/slack"

	"github.com/sablecore/huntbay/pkg/config"
	"github.com/sablecore/huntbay/pkg/events"
)

var severityRank = map[string]int{
	"info": 0, "low": 1, "medium": 2, "high": 3, "critical": 4, "fatal": 5,
}

const defaultPostTimeout = 10 * time.Second

// Service subscribes to the Event Bus's global room and pages a Slack
// channel on system.error (above MinSeverity) and system.backpressure.
// Nil-safe: Start/Stop are no-ops on a nil *Service, so callers can wire it
// unconditionally regardless of whether notify is configured.
type Service struct {
	client      *Client
	bus         *events.Bus
	minSeverity int
	postTimeout time.Duration
	logger      *slog.Logger

	sub    *events.Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService builds a Service from cfg. Returns nil when notify is
// disabled, or when TokenEnv names an unset/empty environment variable —
// the caller is expected to have validated this already
// (pkg/config.Validator.validateNotify), this is a defensive second check.
func NewService(cfg *config.NotifyConfig, bus *events.Bus) *Service {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	token := os.Getenv(cfg.TokenEnv)
	if token == "" || cfg.ChannelID == "" {
		return nil
	}
	minSeverity, ok := severityRank[cfg.MinSeverity]
	if !ok {
		minSeverity = severityRank["high"]
	}
	postTimeout := cfg.PostTimeout
	if postTimeout <= 0 {
		postTimeout = defaultPostTimeout
	}
	return &Service{
		client:      NewClient(token, cfg.ChannelID),
		bus:         bus,
		minSeverity: minSeverity,
		postTimeout: postTimeout,
		logger:      slog.Default().With("component", "notify-service"),
	}
}

// Start joins the global room and begins paging. Safe to call on nil.
func (s *Service) Start(ctx context.Context) {
	if s == nil || s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.sub = s.bus.Subscribe(events.GlobalRoom)

	go s.run(ctx)

	slog.Info("notify service started", "min_severity_rank", s.minSeverity)
}

// Stop leaves the global room and waits for the paging loop to exit. Safe
// to call on nil.
func (s *Service) Stop() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	s.sub.Unsubscribe()
	<-s.done
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-s.sub.Events():
			if !ok {
				return
			}
			s.handle(ctx, evt)
		}
	}
}

func (s *Service) handle(ctx context.Context, evt events.Event) {
	switch evt.Type {
	case events.TypeSystemError:
		payload, ok := evt.Payload.(events.SystemErrorPayload)
		if !ok {
			return
		}
		if severityRank[payload.Severity] < s.minSeverity {
			return
		}
		s.post(ctx, BuildSystemErrorMessage(payload.Component, payload.Message, payload.Severity))
	case events.TypeSystemBackpressure:
		payload, ok := evt.Payload.(events.SystemBackpressurePayload)
		if !ok {
			return
		}
		s.post(ctx, BuildBackpressureMessage(payload.Room, payload.Dropped))
	}
}

func (s *Service) post(ctx context.Context, blocks []goslack.Block) {
	if err := s.client.PostMessage(ctx, blocks, s.postTimeout); err != nil {
		s.logger.Error("failed to page Slack", "error", err)
	}
}
