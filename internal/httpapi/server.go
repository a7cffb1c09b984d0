// Package httpapi wires the marketplace services to echo. Handlers stay
// thin: bind, call the service, serialize. All policy lives below.
package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/sudo-init-do/localmart/internal/cache"
	"github.com/sudo-init-do/localmart/internal/listing"
	"github.com/sudo-init-do/localmart/internal/middleware"
	"github.com/sudo-init-do/localmart/internal/order"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	listings *listing.Service
	orders   *order.Engine
	admin    *order.AdminService
	cache    *cache.Listings
	store    pinger
}

type Config struct {
	JWTSecret []byte
	Listings  *listing.Service
	Orders    *order.Engine
	Admin     *order.AdminService
	Cache     *cache.Listings
	Store     pinger
}

func New(cfg Config) *echo.Echo {
	s := &Server{
		listings: cfg.Listings,
		orders:   cfg.Orders,
		admin:    cfg.Admin,
		cache:    cfg.Cache,
		store:    cfg.Store,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "localmart"})
	})
	e.GET("/ready", s.ready)

	// Public discovery reads.
	e.GET("/listings", s.findNearbyListings)
	e.GET("/listings/:id", s.getListing)

	// Authenticated buyer/seller routes.
	api := e.Group("")
	api.Use(middleware.JWT(cfg.JWTSecret))

	api.POST("/listings", s.createListing)
	api.PATCH("/listings/:id", s.updateListing)
	api.DELETE("/listings/:id", s.deleteListing)

	api.GET("/orders", s.listOrders)
	api.POST("/orders", s.createOrder)
	api.POST("/orders/checkout", s.checkout)
	api.POST("/orders/:id/ship", s.markShipped)
	api.POST("/orders/:id/complete", s.completeOrder)

	// Admin overrides: privileged, no ownership checks.
	admin := e.Group("/admin")
	admin.Use(middleware.JWT(cfg.JWTSecret))
	admin.Use(middleware.AdminGuard)

	admin.PATCH("/orders/:id/status", s.adminSetStatus)
	admin.POST("/orders/:id/confirm", s.adminConfirmOrder)

	return e
}

func (s *Server) ready(c echo.Context) error {
	if s.store == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "store not initialized"})
	}
	if err := s.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "store unreachable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
}
