package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/sablecore/huntbay/pkg/external"
)

// ErrInvalidCredentials is returned by Login/ChangePassword on a bad
// username/password pair, without distinguishing "no such user" from
// "wrong password" to avoid leaking which usernames exist.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Service backs the Gateway's /auth/login, /auth/refresh, and
// /auth/change-password handlers (spec §6).
type Service struct {
	issuer    *Issuer
	refresh   *RefreshStore
	verifier  external.IdentityVerifier
	passwords external.PasswordChanger // nil when the configured backend can't change passwords
}

// NewService constructs a Service. passwords may be nil if verifier doesn't
// also implement external.PasswordChanger, in which case ChangePassword
// always fails.
func NewService(issuer *Issuer, refresh *RefreshStore, verifier external.IdentityVerifier) *Service {
	s := &Service{issuer: issuer, refresh: refresh, verifier: verifier}
	if pc, ok := verifier.(external.PasswordChanger); ok {
		s.passwords = pc
	}
	return s
}

// TokenPair is what the login/refresh HTTP handlers serialize back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login verifies username/password against the external identity provider
// and, on success, mints a fresh access/refresh token pair.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, error) {
	id, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(id.AnalystID, id.Roles)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: issue tokens: %w", err)
	}
	if err := s.refresh.Record(ctx, pair.RefreshJTI, id.AnalystID, pair.RefreshExpiresAt); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Refresh redeems refreshToken, rotating it: the presented token is marked
// used and a new access/refresh pair is minted in its place. Reuse of an
// already-redeemed token revokes the whole chain and fails the call (spec
// §6 "refresh token rotation on each use").
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.issuer.Parse(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	if claims.TokenType != TokenTypeRefresh {
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(claims.Subject, claims.Roles)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: issue tokens: %w", err)
	}

	analystID, err := s.refresh.Redeem(ctx, claims.ID, pair.RefreshJTI)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenReused) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if analystID != claims.Subject {
		return TokenPair{}, ErrInvalidCredentials
	}

	if err := s.refresh.Record(ctx, pair.RefreshJTI, analystID, pair.RefreshExpiresAt); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// ChangePassword verifies oldPassword and, on success, updates the
// analyst's password at the identity provider and revokes every
// outstanding refresh token so other sessions must re-authenticate.
func (s *Service) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if s.passwords == nil {
		return fmt.Errorf("auth: configured identity backend does not support password changes")
	}
	id, err := s.verifier.Verify(ctx, username, oldPassword)
	if err != nil {
		return ErrInvalidCredentials
	}
	if err := s.passwords.ChangePassword(ctx, username, oldPassword, newPassword); err != nil {
		return fmt.Errorf("auth: change password: %w", err)
	}
	return s.refresh.RevokeAll(ctx, id.AnalystID)
}
