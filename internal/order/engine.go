// Package order implements the order lifecycle engine, the cart checkout
// orchestrator and the admin override service. All three run one store
// transaction per request; row locks taken inside it are held to commit.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/localmart/internal/apperr"
	"github.com/sudo-init-do/localmart/internal/domain"
	"github.com/sudo-init-do/localmart/internal/listing"
	"github.com/sudo-init-do/localmart/internal/store"
)

const (
	minQuantity = 1
	maxQuantity = 10

	payoutCurrency = "USD"
)

type Engine struct {
	store store.Store
	now   func() time.Time
}

func NewEngine(st store.Store) *Engine {
	return &Engine{store: st, now: func() time.Time { return time.Now().UTC() }}
}

// clampQuantity resolves any requested quantity to [1,10]; non-positive
// input means the buyer sent garbage and falls back to 1.
func clampQuantity(q int) int {
	if q < minQuantity {
		return minQuantity
	}
	if q > maxQuantity {
		return maxQuantity
	}
	return q
}

// createOrder is the per-listing primitive shared by Create and Checkout:
// reserve the listing, snapshot price and title, persist order + item.
// Runs inside the caller's transaction.
func (e *Engine) createOrder(ctx context.Context, sess store.Session, listingID, buyerID string, quantity int) (string, error) {
	snap, err := listing.Reserve(ctx, sess, listingID)
	if err != nil {
		return "", err
	}

	qty := clampQuantity(quantity)
	total := snap.Price.Mul(decimal.NewFromInt(int64(qty)))

	// Nothing to collect for a free item, so it goes straight to the
	// shipment queue.
	status := domain.OrderPendingPayment
	if total.IsZero() {
		status = domain.OrderPendingShipment
	}

	o := domain.Order{
		ID:          uuid.NewString(),
		ListingID:   listingID,
		BuyerID:     buyerID,
		SellerID:    snap.SellerID,
		Status:      status,
		TotalAmount: total,
		PlacedAt:    e.now(),
	}
	item := domain.OrderItem{
		OrderID:  o.ID,
		Label:    snap.Title,
		Price:    snap.Price,
		Quantity: qty,
	}

	if err := sess.Orders().Insert(ctx, o, item); err != nil {
		return "", fmt.Errorf("orders.Insert: %w", err)
	}
	return o.ID, nil
}

// Create places a single order, reserving the listing in the same
// transaction.
func (e *Engine) Create(ctx context.Context, listingID, buyerID string, quantity int) (domain.Order, error) {
	if listingID == "" {
		return domain.Order{}, apperr.New(apperr.KindInvalidInput, "listingId is required")
	}

	var orderID string
	err := e.store.InTx(ctx, func(sess store.Session) error {
		id, err := e.createOrder(ctx, sess, listingID, buyerID, quantity)
		orderID = id
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}

	return e.reload(ctx, orderID, "order not found after create")
}

// MarkShipped moves a pending order to SHIPPED. Seller only; the
// funds-released stamp is reset to null as a guard against a previous admin
// jump having set it.
func (e *Engine) MarkShipped(ctx context.Context, orderID, sellerID, trackingNumber string) (domain.Order, error) {
	err := e.store.InTx(ctx, func(sess store.Session) error {
		o, err := sess.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.New(apperr.KindNotFound, "order not found")
			}
			return fmt.Errorf("orders.GetForUpdate: %w", err)
		}

		if o.SellerID != sellerID {
			return apperr.New(apperr.KindForbidden, "you are not authorized to update this order")
		}
		if !domain.CanTransition(o.Status, domain.OrderShipped) {
			return apperr.Newf(apperr.KindInvalidTransition, "order cannot be marked shipped from status %s", o.Status)
		}

		var tracking *string
		if trackingNumber != "" {
			tracking = &trackingNumber
		}
		if err := sess.Orders().MarkShipped(ctx, orderID, tracking, e.now()); err != nil {
			return fmt.Errorf("orders.MarkShipped: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	return e.reload(ctx, orderID, "order not found after update")
}

// Complete confirms delivery: status COMPLETED, delivery and funds-release
// stamped once, listing finalized to SOLD, payout record emitted. With
// skipBuyerValidation set (admin path) the ownership check is bypassed; the
// SHIPPED requirement never is.
func (e *Engine) Complete(ctx context.Context, orderID, buyerID string, skipBuyerValidation bool) (domain.Order, domain.Payout, error) {
	if orderID == "" {
		return domain.Order{}, domain.Payout{}, apperr.New(apperr.KindInvalidInput, "orderId is required")
	}

	err := e.store.InTx(ctx, func(sess store.Session) error {
		o, err := sess.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.New(apperr.KindNotFound, "order not found")
			}
			return fmt.Errorf("orders.GetForUpdate: %w", err)
		}

		if !skipBuyerValidation && o.BuyerID != buyerID {
			return apperr.New(apperr.KindForbidden, "only the buyer can confirm delivery")
		}
		if !domain.CanTransition(o.Status, domain.OrderCompleted) {
			return apperr.New(apperr.KindInvalidTransition, "order must be shipped before completion")
		}

		if err := sess.Orders().Complete(ctx, orderID, e.now()); err != nil {
			return fmt.Errorf("orders.Complete: %w", err)
		}
		if err := listing.Finalize(ctx, sess, o.ListingID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, domain.Payout{}, err
	}

	completed, err := e.reload(ctx, orderID, "order not found after completion")
	if err != nil {
		return domain.Order{}, domain.Payout{}, err
	}
	if completed.FundsReleasedAt == nil {
		return domain.Order{}, domain.Payout{}, apperr.New(apperr.KindPersistenceFailure, "funds release timestamp missing after completion")
	}

	payout := domain.Payout{
		OrderID:    completed.ID,
		ListingID:  completed.ListingID,
		SellerID:   completed.SellerID,
		BuyerID:    completed.BuyerID,
		Amount:     completed.TotalAmount,
		Currency:   payoutCurrency,
		ReleasedAt: *completed.FundsReleasedAt,
		Status:     domain.PayoutReady,
		Note:       "Funds held in escrow have been released to the seller.",
	}
	return completed, payout, nil
}

// ListForUser is a display read; it takes no locks.
func (e *Engine) ListForUser(ctx context.Context, userID string) ([]domain.OrderSummary, error) {
	out, err := e.store.Orders().ListForUser(ctx, userID, 100)
	if err != nil {
		return nil, fmt.Errorf("orders.ListForUser: %w", err)
	}
	return out, nil
}

// reload re-reads an order after commit. Finding nothing at this point is a
// store consistency bug, not a user error.
func (e *Engine) reload(ctx context.Context, orderID, failMsg string) (domain.Order, error) {
	o, err := e.store.Orders().Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Order{}, apperr.New(apperr.KindPersistenceFailure, failMsg)
		}
		return domain.Order{}, fmt.Errorf("orders.Get: %w", err)
	}
	return o, nil
}
