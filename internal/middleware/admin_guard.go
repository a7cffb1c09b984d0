package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminGuard restricts a route group to admin tokens. It gates privilege
// only; admin operations intentionally perform no ownership checks.
func AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, ok := c.Get("role").(string)
		if !ok || role != "admin" {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access only"})
		}
		return next(c)
	}
}
