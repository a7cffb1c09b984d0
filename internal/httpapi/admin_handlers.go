package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type adminSetStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) adminSetStatus(c echo.Context) error {
	var req adminSetStatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	o, err := s.admin.SetStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}

	s.cache.Drop(c.Request().Context(), o.ListingID)
	return c.JSON(http.StatusOK, echo.Map{"data": o})
}

func (s *Server) adminConfirmOrder(c echo.Context) error {
	o, payout, err := s.admin.Confirm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	s.cache.Drop(c.Request().Context(), o.ListingID)
	return c.JSON(http.StatusOK, echo.Map{"data": o, "payout": payout})
}
