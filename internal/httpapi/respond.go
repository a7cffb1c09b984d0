package httpapi

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/localmart/internal/apperr"
)

// respondError maps a service failure to HTTP. Typed failures carry their
// own status hint; anything else is a 500 and gets logged rather than
// leaked to the client.
func respondError(c echo.Context, err error) error {
	if kind := apperr.KindOf(err); kind != apperr.KindUnknown {
		return c.JSON(kind.HTTPStatus(), echo.Map{
			"error": err.Error(),
			"code":  kind.String(),
		})
	}

	log.Printf("internal error on %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

func userID(c echo.Context) (string, bool) {
	id, ok := c.Get("user_id").(string)
	return id, ok && id != ""
}
