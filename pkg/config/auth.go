package config

import "time"

// AuthConfig controls analyst authentication (JWT issuance/verification) at
// the Gateway (C7).
type AuthConfig struct {
	// JWTSecretEnv names the environment variable holding the HMAC signing
	// secret. Required.
	JWTSecretEnv string `yaml:"jwt_secret_env" validate:"required"`

	// AccessTokenTTL is how long an issued access token remains valid.
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" validate:"required"`

	// RefreshTokenTTL is how long a refresh token remains valid.
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" validate:"required"`

	// Issuer is the "iss" claim stamped on issued tokens.
	Issuer string `yaml:"issuer" validate:"required"`
}

// DefaultAuthConfig returns the built-in auth defaults.
func DefaultAuthConfig() *AuthConfig {
	return &AuthConfig{
		JWTSecretEnv:    "HUNTBAY_JWT_SECRET",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "huntbay",
	}
}
