package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/pkg/admission"
	"github.com/sablecore/huntbay/pkg/auth"
	"github.com/sablecore/huntbay/pkg/hunt"
	"github.com/sablecore/huntbay/pkg/sessionrt"
)

// mapServiceError maps a domain error to an HTTP status and writes the JSON
// error envelope, mirroring the teacher's mapServiceError shape translated
// onto gin (the teacher's version returns an *echo.HTTPError; gin has no
// equivalent return-and-let-the-framework-render type, so this writes
// directly).
func mapServiceError(c *gin.Context, err error) {
	switch {
	case ent.IsNotFound(err):
		c.JSON(http.StatusNotFound, errorResponse{Error: "resource not found"})

	case errors.Is(err, admission.ErrAlreadyActive),
		errors.Is(err, sessionrt.ErrAlreadyActive):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, admission.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, errorResponse{Error: err.Error()})

	case errors.Is(err, sessionrt.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})

	case errors.Is(err, sessionrt.ErrLocked):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, sessionrt.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, hunt.ErrIncompatibleOS):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, hunt.ErrBusy):
		c.JSON(http.StatusTooManyRequests, errorResponse{Error: err.Error()})

	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrRefreshTokenReused):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})

	default:
		slog.Error("unexpected gateway error", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}
