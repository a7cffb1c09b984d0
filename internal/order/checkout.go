package order

import (
	"context"

	"github.com/sudo-init-do/localmart/internal/apperr"
	"github.com/sudo-init-do/localmart/internal/domain"
	"github.com/sudo-init-do/localmart/internal/store"
)

type CheckoutItem struct {
	ListingID string `json:"listingId"`
	Quantity  int    `json:"quantity"`
}

// Checkout reserves every cart item and creates its order inside one
// transaction, in the caller-supplied item order. Any failure rolls the
// whole cart back; there is no partial checkout.
//
// Locks on all reserved listings are held until commit, so a large cart
// raises contention. Accepted tradeoff for all-or-nothing semantics.
func (e *Engine) Checkout(ctx context.Context, buyerID string, items []CheckoutItem) ([]domain.Order, error) {
	if len(items) == 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "at least one item is required to checkout")
	}

	orderIDs := make([]string, 0, len(items))
	err := e.store.InTx(ctx, func(sess store.Session) error {
		for _, item := range items {
			if item.ListingID == "" {
				return apperr.New(apperr.KindInvalidInput, "listingId is required for each item")
			}
			id, err := e.createOrder(ctx, sess, item.ListingID, buyerID, item.Quantity)
			if err != nil {
				return err
			}
			orderIDs = append(orderIDs, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		o, err := e.reload(ctx, id, "unable to load created orders")
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
