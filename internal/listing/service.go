package listing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/localmart/internal/apperr"
	"github.com/sudo-init-do/localmart/internal/domain"
	"github.com/sudo-init-do/localmart/internal/store"
)

const (
	MaxRadiusKm = 200.0
	MinRadiusKm = 0.1
	MaxResults  = 100

	// Fallback coordinates for listings created without a usable location.
	defaultLatitude  = 34.0522
	defaultLongitude = -118.2437
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

type CreateInput struct {
	SellerID  string
	Title     string
	Price     decimal.Decimal
	Latitude  *float64
	Longitude *float64
	Images    []string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Listing, error) {
	if in.Title == "" {
		return domain.Listing{}, apperr.New(apperr.KindInvalidInput, "title is required")
	}
	if in.Price.IsNegative() {
		return domain.Listing{}, apperr.New(apperr.KindInvalidInput, "price must not be negative")
	}

	l := domain.Listing{
		ID:       uuid.NewString(),
		SellerID: in.SellerID,
		Title:    in.Title,
		Price:    in.Price,
		Status:   domain.ListingActive,
		Location: domain.GeoPoint{
			Latitude:  clampCoordinate(in.Latitude, defaultLatitude, -90, 90),
			Longitude: clampCoordinate(in.Longitude, defaultLongitude, -180, 180),
		},
		Images:    in.Images,
		CreatedAt: time.Now().UTC(),
	}

	err := s.store.InTx(ctx, func(sess store.Session) error {
		return sess.Listings().Insert(ctx, l)
	})
	if err != nil {
		return domain.Listing{}, fmt.Errorf("store.InTx: %w", err)
	}

	created, err := s.Get(ctx, l.ID)
	if err != nil {
		return domain.Listing{}, apperr.Wrap(apperr.KindPersistenceFailure, "listing not found after create", err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Listing, error) {
	l, err := s.store.Listings().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Listing{}, apperr.New(apperr.KindNotFound, "listing not found")
		}
		return domain.Listing{}, fmt.Errorf("listings.Get: %w", err)
	}
	return l, nil
}

// Update applies a seller edit under the same row lock the availability gate
// takes, so an edit can never interleave with a reservation.
func (s *Service) Update(ctx context.Context, listingID, sellerID string, patch domain.ListingPatch) (domain.Listing, error) {
	if patch.Price != nil && patch.Price.IsNegative() {
		return domain.Listing{}, apperr.New(apperr.KindInvalidInput, "price must not be negative")
	}
	if patch.Location != nil {
		lat := clampCoordinate(&patch.Location.Latitude, defaultLatitude, -90, 90)
		lng := clampCoordinate(&patch.Location.Longitude, defaultLongitude, -180, 180)
		patch.Location = &domain.GeoPoint{Latitude: lat, Longitude: lng}
	}

	err := s.store.InTx(ctx, func(sess store.Session) error {
		current, err := sess.Listings().GetForUpdate(ctx, listingID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.New(apperr.KindNotFound, "listing not found")
			}
			return fmt.Errorf("listings.GetForUpdate: %w", err)
		}
		if current.SellerID != sellerID {
			return apperr.New(apperr.KindForbidden, "you do not own this listing")
		}
		if patch.IsEmpty() {
			return nil
		}
		return sess.Listings().Update(ctx, listingID, patch)
	})
	if err != nil {
		return domain.Listing{}, err
	}

	updated, err := s.Get(ctx, listingID)
	if err != nil {
		return domain.Listing{}, apperr.Wrap(apperr.KindPersistenceFailure, "listing not found after update", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, listingID, sellerID string) error {
	return s.store.InTx(ctx, func(sess store.Session) error {
		current, err := sess.Listings().GetForUpdate(ctx, listingID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.New(apperr.KindNotFound, "listing not found")
			}
			return fmt.Errorf("listings.GetForUpdate: %w", err)
		}
		if current.SellerID != sellerID {
			return apperr.New(apperr.KindForbidden, "you do not own this listing")
		}
		return sess.Listings().Delete(ctx, listingID)
	})
}

// FindNearby returns ACTIVE listings within radiusKm of the point, closest
// first. The radius is bounded and results are capped; ranking beyond
// distance is out of scope.
func (s *Service) FindNearby(ctx context.Context, latitude, longitude, radiusKm float64) ([]store.NearbyListing, error) {
	bounded := min(max(radiusKm, MinRadiusKm), MaxRadiusKm)

	out, err := s.store.Listings().Nearby(ctx, store.NearbyQuery{
		Latitude:  latitude,
		Longitude: longitude,
		RadiusKm:  bounded,
		Limit:     MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("listings.Nearby: %w", err)
	}
	return out, nil
}

func clampCoordinate(v *float64, fallback, lo, hi float64) float64 {
	if v == nil || math.IsNaN(*v) || *v < lo || *v > hi {
		return fallback
	}
	return *v
}
