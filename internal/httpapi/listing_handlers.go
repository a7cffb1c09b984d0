package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/localmart/internal/domain"
	"github.com/sudo-init-do/localmart/internal/listing"
)

func listingCreateInput(sellerID string, req createListingRequest) listing.CreateInput {
	return listing.CreateInput{
		SellerID:  sellerID,
		Title:     req.Title,
		Price:     req.Price,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Images:    req.Images,
	}
}

type createListingRequest struct {
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	Images    []string        `json:"images"`
}

func (s *Server) createListing(c echo.Context) error {
	sellerID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	l, err := s.listings.Create(c.Request().Context(), listingCreateInput(sellerID, req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": l})
}

type updateListingRequest struct {
	Title     *string          `json:"title"`
	Price     *decimal.Decimal `json:"price"`
	Images    *[]string        `json:"images"`
	Latitude  *float64         `json:"latitude"`
	Longitude *float64         `json:"longitude"`
}

func (s *Server) updateListing(c echo.Context) error {
	sellerID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req updateListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	patch := domain.ListingPatch{
		Title:  req.Title,
		Price:  req.Price,
		Images: req.Images,
	}
	// Location only moves when both coordinates arrive together.
	if req.Latitude != nil && req.Longitude != nil {
		patch.Location = &domain.GeoPoint{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	listingID := c.Param("id")
	l, err := s.listings.Update(c.Request().Context(), listingID, sellerID, patch)
	if err != nil {
		return respondError(c, err)
	}

	s.cache.Drop(c.Request().Context(), listingID)
	return c.JSON(http.StatusOK, echo.Map{"data": l})
}

func (s *Server) deleteListing(c echo.Context) error {
	sellerID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	listingID := c.Param("id")
	if err := s.listings.Delete(c.Request().Context(), listingID, sellerID); err != nil {
		return respondError(c, err)
	}

	s.cache.Drop(c.Request().Context(), listingID)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getListing(c echo.Context) error {
	ctx := c.Request().Context()
	listingID := c.Param("id")

	if l, ok := s.cache.Get(ctx, listingID); ok {
		return c.JSON(http.StatusOK, echo.Map{"data": l})
	}

	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return respondError(c, err)
	}

	s.cache.Set(ctx, l)
	return c.JSON(http.StatusOK, echo.Map{"data": l})
}

func (s *Server) findNearbyListings(c echo.Context) error {
	lat, err1 := strconv.ParseFloat(c.QueryParam("latitude"), 64)
	lng, err2 := strconv.ParseFloat(c.QueryParam("longitude"), 64)
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "latitude and longitude are required"})
	}

	radiusKm := 10.0
	if raw := c.QueryParam("radius_km"); raw != "" {
		if r, err := strconv.ParseFloat(raw, 64); err == nil {
			radiusKm = r
		}
	}

	out, err := s.listings.FindNearby(c.Request().Context(), lat, lng, radiusKm)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}
