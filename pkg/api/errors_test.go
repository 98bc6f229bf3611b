package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/sablecore/huntbay/pkg/admission"
	"github.com/sablecore/huntbay/pkg/auth"
	"github.com/sablecore/huntbay/pkg/hunt"
	"github.com/sablecore/huntbay/pkg/sessionrt"
)

func TestMapServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		expectCode int
		expectMsg  string
	}{
		{
			name:       "already active maps to 409",
			err:        admission.ErrAlreadyActive,
			expectCode: http.StatusConflict,
			expectMsg:  "already exists",
		},
		{
			name:       "rate limited maps to 429",
			err:        admission.ErrRateLimited,
			expectCode: http.StatusTooManyRequests,
			expectMsg:  "concurrent session limit",
		},
		{
			name:       "session not found maps to 404",
			err:        sessionrt.ErrSessionNotFound,
			expectCode: http.StatusNotFound,
		},
		{
			name:       "locked session maps to 409",
			err:        sessionrt.ErrLocked,
			expectCode: http.StatusConflict,
		},
		{
			name:       "invalid transition maps to 409",
			err:        sessionrt.ErrInvalidTransition,
			expectCode: http.StatusConflict,
		},
		{
			name:       "incompatible OS maps to 409",
			err:        hunt.ErrIncompatibleOS,
			expectCode: http.StatusConflict,
		},
		{
			name:       "hunt busy maps to 429",
			err:        hunt.ErrBusy,
			expectCode: http.StatusTooManyRequests,
		},
		{
			name:       "invalid credentials maps to 401",
			err:        auth.ErrInvalidCredentials,
			expectCode: http.StatusUnauthorized,
		},
		{
			name:       "wrapped error still unwraps to its sentinel",
			err:        fmt.Errorf("claim: %w", admission.ErrRateLimited),
			expectCode: http.StatusTooManyRequests,
		},
		{
			name:       "unknown error maps to 500",
			err:        fmt.Errorf("something unexpected happened"),
			expectCode: http.StatusInternalServerError,
			expectMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			mapServiceError(c, tt.err)

			assert.Equal(t, tt.expectCode, w.Code)
			if tt.expectMsg != "" {
				assert.Contains(t, w.Body.String(), tt.expectMsg)
			}
		})
	}
}

func TestBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	badRequest(c, "missing field: asset_id")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing field: asset_id")
}
