package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeaderAdminKey is the header alternative to the admin_key query parameter.
const HeaderAdminKey = "X-Admin-Key"

// AdminKey guards operator routes with a shared secret. An empty key denies
// every request.
func AdminKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			presented := c.Request().Header.Get(HeaderAdminKey)
			if presented == "" {
				presented = c.QueryParam("admin_key")
			}
			if key == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "admin authentication failed")
			}
			return next(c)
		}
	}
}
