package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablecore/huntbay/pkg/auth"
	"github.com/sablecore/huntbay/pkg/config"
)

func testIssuer() *auth.Issuer {
	return auth.NewIssuer(&config.AuthConfig{
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "huntbay-test",
	}, "test-signing-secret")
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(securityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, w.Header().Get("Permissions-Policy"))
}

func TestRequireAccessTokenRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := testIssuer()
	r := gin.New()
	r.Use(requireAccessToken(issuer))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAccessTokenRejectsGarbageToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := testIssuer()
	r := gin.New()
	r.Use(requireAccessToken(issuer))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAccessTokenRejectsRefreshToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := testIssuer()
	pair, err := issuer.IssuePair("analyst-1", []string{"analyst"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(requireAccessToken(issuer))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAccessTokenAcceptsValidAccessTokenAndSetsContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := testIssuer()
	pair, err := issuer.IssuePair("analyst-1", []string{"analyst", "admin"})
	require.NoError(t, err)

	var gotID string
	r := gin.New()
	r.Use(requireAccessToken(issuer))
	r.GET("/", func(c *gin.Context) {
		gotID = analystID(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "analyst-1", gotID)
}
