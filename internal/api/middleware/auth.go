package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aistone/edge-backend/internal/core/domain"
	"github.com/aistone/edge-backend/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextUser         = "user"
	ContextUserID       = "user_id"
	ContextEmail        = "email"
	ContextRotatedToken = "rotated_token"
)

// TokenCookie is the cookie the frontend stores the token in.
const TokenCookie = "auth_token"

// HeaderRefreshedToken carries the replacement for a legacy token.
const HeaderRefreshedToken = "X-Refreshed-Token"

// ExtractToken returns the bearer token, falling back to the auth cookie.
func ExtractToken(c echo.Context) (string, error) {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if ck, err := c.Cookie(TokenCookie); err == nil && ck.Value != "" {
		return ck.Value, nil
	}
	return "", domain.ErrMissingToken
}

// Auth validates the presented token against the user store and injects the
// user into the context.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok, err := ExtractToken(c)
			if err != nil {
				return err
			}

			res, err := auth.ValidateToken(c.Request().Context(), tok)
			if err != nil {
				// A token for a user that no longer exists is just an invalid token.
				if errors.Is(err, domain.ErrUserNotFound) {
					return domain.ErrInvalidToken
				}
				return err
			}

			c.Set(ContextUser, res.User)
			c.Set(ContextUserID, res.User.ID)
			c.Set(ContextEmail, res.User.Email)
			if res.Token != "" {
				c.Set(ContextRotatedToken, res.Token)
				c.Response().Header().Set(HeaderRefreshedToken, res.Token)
			}

			return next(c)
		}
	}
}
