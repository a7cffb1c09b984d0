package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/sudo-init-do/localmart/internal/domain"
	"github.com/sudo-init-do/localmart/internal/order"
)

// Escrow labels are synthetic annotations on responses; no real funds
// custody exists behind them.
const escrowHeld = "funds_held"

type orderResponse struct {
	domain.Order
	EscrowStatus string `json:"escrowStatus"`
}

func withEscrow(o domain.Order) orderResponse {
	return orderResponse{Order: o, EscrowStatus: escrowHeld}
}

func (s *Server) listOrders(c echo.Context) error {
	uid, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orders, err := s.orders.ListForUser(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": orders})
}

type createOrderRequest struct {
	ListingID string `json:"listingId"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) createOrder(c echo.Context) error {
	buyerID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	o, err := s.orders.Create(c.Request().Context(), req.ListingID, buyerID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}

	s.cache.Drop(c.Request().Context(), o.ListingID)
	return c.JSON(http.StatusCreated, echo.Map{"data": withEscrow(o)})
}

type checkoutRequest struct {
	Items []order.CheckoutItem `json:"items"`
}

func (s *Server) checkout(c echo.Context) error {
	buyerID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	orders, err := s.orders.Checkout(c.Request().Context(), buyerID, req.Items)
	if err != nil {
		return respondError(c, err)
	}

	s.cache.Drop(c.Request().Context(), lo.Map(orders, func(o domain.Order, _ int) string {
		return o.ListingID
	})...)
	return c.JSON(http.StatusCreated, echo.Map{"data": lo.Map(orders, func(o domain.Order, _ int) orderResponse {
		return withEscrow(o)
	})})
}

type markShippedRequest struct {
	TrackingNumber string `json:"trackingNumber"`
}

func (s *Server) markShipped(c echo.Context) error {
	sellerID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req markShippedRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	o, err := s.orders.MarkShipped(c.Request().Context(), c.Param("id"), sellerID, req.TrackingNumber)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": withEscrow(o)})
}

func (s *Server) completeOrder(c echo.Context) error {
	buyerID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	o, payout, err := s.orders.Complete(c.Request().Context(), c.Param("id"), buyerID, false)
	if err != nil {
		return respondError(c, err)
	}

	s.cache.Drop(c.Request().Context(), o.ListingID)
	return c.JSON(http.StatusOK, echo.Map{"data": o, "payout": payout})
}
