package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"ckd_auth_service/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	msgDuplicateEmail     = "Email already registered"
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidAdminCode   = "Invalid admin code"
	msgNoToken            = "No token provided"
	msgInvalidToken       = "Invalid token"
	msgTokenExpired       = "Token expired"
)

// unauthenticatedMessage picks the client message for a rejected token.
// notFound is the realm's wording for a session whose account is gone.
func unauthenticatedMessage(err error, notFound string) string {
	switch {
	case errors.Is(err, service.ErrNoToken):
		return msgNoToken
	case errors.Is(err, service.ErrTokenExpired):
		return msgTokenExpired
	case errors.Is(err, service.ErrSubjectNotFound):
		return notFound
	default:
		return msgInvalidToken
	}
}

// respondError maps a service error onto a status code and message and
// aborts the request. Anything unrecognized is a 500.
func respondError(c *gin.Context, log *slog.Logger, err error, notFound string) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		newErrorResponse(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrDuplicateEmail):
		newErrorResponse(c, http.StatusConflict, msgDuplicateEmail)
	case errors.Is(err, service.ErrInvalidCredentials):
		newErrorResponse(c, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, service.ErrForbidden):
		newErrorResponse(c, http.StatusForbidden, msgInvalidAdminCode)
	case errors.Is(err, service.ErrUnauthenticated):
		newErrorResponse(c, http.StatusUnauthorized, unauthenticatedMessage(err, notFound))
	default:
		log.Error("request failed", slog.Any("error", err))

		newErrorResponse(c, http.StatusInternalServerError, "Server error: "+err.Error())
		return
	}

	log.Debug("request rejected", slog.Any("error", err))
}
