package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablecore/huntbay/pkg/config"
)

func testIssuer() *Issuer {
	return NewIssuer(&config.AuthConfig{
		Issuer:          "huntbay-test",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}, "test-signing-secret")
}

func TestIssuePairProducesDistinctTokenTypes(t *testing.T) {
	i := testIssuer()
	pair, err := i.IssuePair("analyst-1", []string{"analyst"})
	require.NoError(t, err)

	access, err := i.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.Equal(t, "analyst-1", access.Subject)

	refresh, err := i.Parse(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.Equal(t, pair.RefreshJTI, refresh.ID)
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	i := testIssuer()
	pair, err := i.IssuePair("analyst-1", nil)
	require.NoError(t, err)

	_, err = i.VerifyAccess(pair.RefreshToken)
	assert.Error(t, err)
}

func TestParseRejectsTokenFromDifferentSecret(t *testing.T) {
	i1 := testIssuer()
	i2 := NewIssuer(&config.AuthConfig{Issuer: "huntbay-test", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour}, "a-different-secret")

	pair, err := i1.IssuePair("analyst-1", nil)
	require.NoError(t, err)

	_, err = i2.Parse(pair.AccessToken)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	i := NewIssuer(&config.AuthConfig{Issuer: "huntbay-test", AccessTokenTTL: -time.Minute, RefreshTokenTTL: time.Hour}, "test-signing-secret")
	pair, err := i.IssuePair("analyst-1", nil)
	require.NoError(t, err)

	_, err = i.VerifyAccess(pair.AccessToken)
	assert.Error(t, err)
}
