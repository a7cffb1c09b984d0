// Package listing owns the listing lifecycle: the availability gate used by
// the order engine plus the seller-facing CRUD service.
package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/sudo-init-do/localmart/internal/apperr"
	"github.com/sudo-init-do/localmart/internal/domain"
	"github.com/sudo-init-do/localmart/internal/store"
)

// Reserve locks the listing row and flips ACTIVE -> RESERVED, returning the
// pre-reservation snapshot the order is created from. The caller must
// already be inside a store transaction; commit/rollback is its job.
func Reserve(ctx context.Context, s store.Session, listingID string) (domain.Listing, error) {
	l, err := s.Listings().GetForUpdate(ctx, listingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Listing{}, apperr.New(apperr.KindNotFound, "listing not found")
		}
		return domain.Listing{}, fmt.Errorf("listings.GetForUpdate: %w", err)
	}

	if l.Status != domain.ListingActive {
		return domain.Listing{}, apperr.New(apperr.KindNotAvailable, "listing is not available for purchase")
	}

	if err := s.Listings().SetStatus(ctx, listingID, domain.ListingReserved); err != nil {
		return domain.Listing{}, fmt.Errorf("listings.SetStatus: %w", err)
	}
	return l, nil
}

// Release puts a reserved listing back on the market (order cancellation).
func Release(ctx context.Context, s store.Session, listingID string) error {
	if err := s.Listings().SetStatus(ctx, listingID, domain.ListingActive); err != nil {
		return fmt.Errorf("listings.SetStatus: %w", err)
	}
	return nil
}

// Finalize marks a listing SOLD (order completion).
func Finalize(ctx context.Context, s store.Session, listingID string) error {
	if err := s.Listings().SetStatus(ctx, listingID, domain.ListingSold); err != nil {
		return fmt.Errorf("listings.SetStatus: %w", err)
	}
	return nil
}
