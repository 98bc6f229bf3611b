// Package auth issues and verifies the bearer JWTs the Gateway (C7) checks
// on every HTTP and WS call (spec §6). Credential verification itself is
// delegated to pkg/external.IdentityVerifier — this package only mints and
// validates huntbay's own tokens and tracks refresh-token rotation.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes an access token from a refresh token in the
// token_type claim, so a refresh token presented as a bearer token (or vice
// versa) is rejected even though both are signed with the same secret.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the JWT claim set for both access and refresh tokens. sub
// carries the analyst id and jti carries the token's own id (spec §6:
// "Tokens are bearer JWTs with exp and sub claims").
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	Roles     []string  `json:"roles,omitempty"`
}
