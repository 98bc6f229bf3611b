// Package cleanup provides data retention and cleanup services.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/ent/refreshtoken"
	"github.com/sablecore/huntbay/ent/session"
	"github.com/sablecore/huntbay/ent/timelineevent"
	"github.com/sablecore/huntbay/pkg/config"
)

// terminalStates are the Session.state values a retention sweep is allowed
// to purge (spec §1 Non-goals: "persistence is for audit, not recovery of
// live state" — only rows that can no longer become live are eligible).
var terminalStates = []session.State{
	session.StateTerminated,
	session.StateFailed,
	session.StateDisconnected,
}

// Service periodically enforces retention policies:
//   - Purges terminal Sessions older than SessionRetentionDays
//   - Purges TimelineEvent rows older than TimelineRetentionDays
//
// All operations are idempotent and safe to run from multiple processes.
type Service struct {
	config *config.RetentionConfig
	client *ent.Client

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.RetentionConfig, client *ent.Client) *Service {
	return &Service{config: cfg, client: client}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"session_retention_days", s.config.SessionRetentionDays,
		"timeline_retention_days", s.config.TimelineRetentionDays,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.purgeOldSessions(ctx)
	s.purgeOldTimelineEvents(ctx)
	s.purgeExpiredRefreshTokens(ctx)
}

func (s *Service) purgeOldSessions(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.config.SessionRetentionDays)
	count, err := s.client.Session.Delete().
		Where(session.StateIn(terminalStates...), session.TerminatedAtLT(cutoff)).
		Exec(ctx)
	if err != nil {
		slog.Error("retention: purging old sessions failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: purged old sessions", "count", count)
	}
}

func (s *Service) purgeOldTimelineEvents(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.config.TimelineRetentionDays)
	count, err := s.client.TimelineEvent.Delete().
		Where(timelineevent.OccurredAtLT(cutoff)).
		Exec(ctx)
	if err != nil {
		slog.Error("retention: purging old timeline events failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: purged old timeline events", "count", count)
	}
}

// purgeExpiredRefreshTokens drops RefreshToken rows past their own
// expires_at, independent of the session/timeline retention windows — a
// rotated or expired refresh token has no audit value once it can no
// longer be redeemed or reused (pkg/auth.RefreshStore).
func (s *Service) purgeExpiredRefreshTokens(ctx context.Context) {
	count, err := s.client.RefreshToken.Delete().
		Where(refreshtoken.ExpiresAtLT(time.Now())).
		Exec(ctx)
	if err != nil {
		slog.Error("retention: purging expired refresh tokens failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: purged expired refresh tokens", "count", count)
	}
}
