// Package store defines the persistence adapter the order and listing
// services are written against. The postgres implementation lives in
// store/postgres; internal/mocks carries an in-memory one for tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sudo-init-do/localmart/internal/domain"
)

// ErrNotFound is returned by any lookup or row-bound mutation that matched
// nothing. Services decide what failure kind that means in context.
var ErrNotFound = errors.New("row not found")

// Store is the process-wide handle. InTx runs fn inside one transaction:
// any error from fn rolls everything back before it is returned, and every
// locking read taken through the Session stays held until commit/rollback.
type Store interface {
	InTx(ctx context.Context, fn func(s Session) error) error

	// Non-locking display reads.
	Listings() ListingReader
	Orders() OrderReader
}

// Session bundles the row operations available inside one open transaction.
// None of its methods are independently atomic; atomicity belongs to the
// enclosing InTx call.
type Session interface {
	Listings() ListingSession
	Orders() OrderSession
}

type NearbyQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Limit     int
}

type NearbyListing struct {
	domain.Listing
	DistanceKm float64 `json:"distance_km"`
}

type ListingReader interface {
	Get(ctx context.Context, id string) (domain.Listing, error)
	Nearby(ctx context.Context, q NearbyQuery) ([]NearbyListing, error)
}

type OrderReader interface {
	Get(ctx context.Context, id string) (domain.Order, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]domain.OrderSummary, error)
}

type ListingSession interface {
	// GetForUpdate takes the row lock that serializes every mutator of this
	// listing, seller edits included.
	GetForUpdate(ctx context.Context, id string) (domain.Listing, error)
	SetStatus(ctx context.Context, id string, status domain.ListingStatus) error
	Insert(ctx context.Context, l domain.Listing) error
	Update(ctx context.Context, id string, patch domain.ListingPatch) error
	Delete(ctx context.Context, id string) error
}

type OrderSession interface {
	GetForUpdate(ctx context.Context, id string) (domain.Order, error)
	Insert(ctx context.Context, o domain.Order, item domain.OrderItem) error

	// MarkShipped sets status shipped, stores the tracking number, stamps
	// shipped_at if unset and resets funds_released_at to null.
	MarkShipped(ctx context.Context, id string, tracking *string, at time.Time) error

	// Complete sets status completed and stamps delivered_at and
	// funds_released_at, each only if not already set.
	Complete(ctx context.Context, id string, at time.Time) error

	// SetStatus is the admin write: jumps straight to target and stamps
	// shipped/delivered/funds-released only when target matches the
	// milestone and the stamp is still unset.
	SetStatus(ctx context.Context, id string, target domain.OrderStatus, at time.Time) error
}
