package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/ent/refreshtoken"
)

// ErrRefreshTokenReused is returned by Redeem when a refresh token has
// already been redeemed once — a signal the token (or one from the same
// chain) has leaked, since legitimate clients never reuse a rotated-out
// refresh token.
var ErrRefreshTokenReused = fmt.Errorf("auth: refresh token already used")

// RefreshStore persists the RefreshToken rotation chain in Postgres.
type RefreshStore struct {
	client *ent.Client
}

// NewRefreshStore constructs a RefreshStore over client.
func NewRefreshStore(client *ent.Client) *RefreshStore {
	return &RefreshStore{client: client}
}

// Record inserts the row for a newly issued refresh token.
func (s *RefreshStore) Record(ctx context.Context, jti, analystID string, expiresAt time.Time) error {
	_, err := s.client.RefreshToken.Create().
		SetID(jti).
		SetAnalystID(analystID).
		SetExpiresAt(expiresAt).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("auth: record refresh token: %w", err)
	}
	return nil
}

// Redeem marks jti used and links it to newJTI, the token minted in its
// place. If jti was already used or revoked, every still-live token in the
// analyst's chain is revoked and ErrRefreshTokenReused is returned — the
// caller should reject the request and force a fresh login.
func (s *RefreshStore) Redeem(ctx context.Context, jti, newJTI string) (analystID string, err error) {
	tx, err := s.client.Tx(ctx)
	if err != nil {
		return "", fmt.Errorf("auth: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	tok, err := tx.RefreshToken.Get(ctx, jti)
	if err != nil {
		if ent.IsNotFound(err) {
			return "", fmt.Errorf("auth: unknown refresh token")
		}
		return "", fmt.Errorf("auth: load refresh token: %w", err)
	}

	if tok.UsedAt != nil || tok.RevokedAt != nil {
		if err := s.revokeChain(ctx, tx, tok.AnalystID); err != nil {
			return "", err
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("auth: commit chain revocation: %w", err)
		}
		return "", ErrRefreshTokenReused
	}

	now := time.Now()
	if err := tx.RefreshToken.UpdateOne(tok).
		SetUsedAt(now).
		SetReplacedBy(newJTI).
		Exec(ctx); err != nil {
		return "", fmt.Errorf("auth: mark refresh token used: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("auth: commit refresh token redemption: %w", err)
	}
	return tok.AnalystID, nil
}

// revokeChain marks every still-live token for analystID revoked, inside an
// already-open transaction.
func (s *RefreshStore) revokeChain(ctx context.Context, tx *ent.Tx, analystID string) error {
	now := time.Now()
	_, err := tx.RefreshToken.Update().
		Where(
			refreshtoken.AnalystIDEQ(analystID),
			refreshtoken.RevokedAtIsNil(),
		).
		SetRevokedAt(now).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("auth: revoke refresh token chain: %w", err)
	}
	return nil
}

// RevokeAll revokes every still-live refresh token for analystID, for an
// explicit logout-everywhere.
func (s *RefreshStore) RevokeAll(ctx context.Context, analystID string) error {
	tx, err := s.client.Tx(ctx)
	if err != nil {
		return fmt.Errorf("auth: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.revokeChain(ctx, tx, analystID); err != nil {
		return err
	}
	return tx.Commit()
}
