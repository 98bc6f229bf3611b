package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sablecore/huntbay/pkg/config"
)

// Issuer mints and verifies huntbay's bearer JWTs with an HMAC secret.
type Issuer struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	refreshTTL time.Duration
}

// NewIssuer constructs an Issuer from AuthConfig and the resolved signing
// secret (read from the environment variable cfg.JWTSecretEnv by the
// caller, so the secret itself never lives in config.Config).
func NewIssuer(cfg *config.AuthConfig, secret string) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

// IssuedPair is a freshly minted access/refresh token pair.
type IssuedPair struct {
	AccessToken  string
	RefreshToken string
	RefreshJTI   string
	RefreshExpiresAt time.Time
}

// IssuePair mints a new access token and a new refresh token for analystID.
func (i *Issuer) IssuePair(analystID string, roles []string) (IssuedPair, error) {
	now := time.Now()

	access, err := i.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   analystID,
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
		TokenType: TokenTypeAccess,
		Roles:     roles,
	})
	if err != nil {
		return IssuedPair{}, fmt.Errorf("auth: sign access token: %w", err)
	}

	refreshJTI := uuid.NewString()
	refreshExpiresAt := now.Add(i.refreshTTL)
	refresh, err := i.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   analystID,
			Issuer:    i.issuer,
			ID:        refreshJTI,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
		},
		TokenType: TokenTypeRefresh,
		Roles:     roles,
	})
	if err != nil {
		return IssuedPair{}, fmt.Errorf("auth: sign refresh token: %w", err)
	}

	return IssuedPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshJTI:       refreshJTI,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

func (i *Issuer) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse verifies signature and expiry and returns the claims, rejecting
// anything not signed with HS256 by this Issuer's secret. It does not check
// TokenType — callers that need a specific type (e.g. the Gateway's access-
// token middleware) must check claims.TokenType themselves.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithIssuer(i.issuer))
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("auth: invalid token")
	}
	return claims, nil
}

// VerifyAccess parses tokenString and confirms it is an access token. This
// is the pluggable verifier the Gateway calls per request (spec §4.7:
// "the Gateway only checks signature/expiry via a pluggable verifier").
func (i *Issuer) VerifyAccess(tokenString string) (*Claims, error) {
	claims, err := i.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("auth: not an access token")
	}
	return claims, nil
}
