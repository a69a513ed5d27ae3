package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aistone/edge-backend/internal/api/middleware"
	"github.com/aistone/edge-backend/internal/core/domain"
)

// ctxUser returns the user injected by the Auth middleware. A missing user
// means the route was registered without the middleware.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, _ := c.Get(middleware.ContextUser).(*domain.User)
	if user == nil || user.ID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return user, nil
}
