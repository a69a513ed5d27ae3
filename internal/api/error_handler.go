package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aistone/edge-backend/internal/api/handler"
	"github.com/aistone/edge-backend/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"success": false, "error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, handler.ErrorResponse{Success: false, Error: msg})
	}
}

type knownError struct {
	err    error
	status int
	// msg overrides the sentinel text.
	msg string
}

func (k knownError) message() string {
	if k.msg != "" {
		return k.msg
	}
	return k.err.Error()
}

var knownErrors = []knownError{
	{err: domain.ErrValidation, status: http.StatusBadRequest},
	{err: domain.ErrInvalidCredentials, status: http.StatusUnauthorized},
	{err: domain.ErrMissingToken, status: http.StatusUnauthorized},
	{err: domain.ErrInvalidToken, status: http.StatusUnauthorized},
	{err: domain.ErrEmailNotVerified, status: http.StatusUnauthorized},
	{err: domain.ErrOAuthExchange, status: http.StatusUnauthorized},
	{err: domain.ErrAccountDisabled, status: http.StatusForbidden},
	{err: domain.ErrUserNotFound, status: http.StatusNotFound},
	{err: domain.ErrUserExists, status: http.StatusConflict},
	{err: domain.ErrResetTokenInvalid, status: http.StatusBadRequest},
	{err: domain.ErrResetTokenUsed, status: http.StatusBadRequest},
	{err: domain.ErrRateLimited, status: http.StatusTooManyRequests},
	{err: domain.ErrOAuthMisconfigured, status: http.StatusServiceUnavailable},
	{err: domain.ErrMissingSecret, status: http.StatusInternalServerError, msg: "server configuration error"},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}
	var oe *domain.OAuthError
	if errors.As(err, &oe) {
		return http.StatusUnauthorized, oe.Message
	}
	var rl *domain.RateLimitError
	if errors.As(err, &rl) {
		return http.StatusTooManyRequests, fmt.Sprintf("please wait %d minutes before submitting again", rl.RemainingMinutes)
	}

	// Known domain errors → deterministic HTTP codes. The sentinel's own text
	// is rendered so wrapping context never reaches the client.
	for _, k := range knownErrors {
		if errors.Is(err, k.err) {
			if k.status >= http.StatusInternalServerError {
				log.Error().Err(err).Str("path", c.Path()).Msg("configuration error")
			}
			return k.status, k.message()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
