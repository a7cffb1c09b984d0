package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/sudo-init-do/localmart/internal/apperr"
	"github.com/sudo-init-do/localmart/internal/domain"
	"github.com/sudo-init-do/localmart/internal/listing"
	"github.com/sudo-init-do/localmart/internal/store"
)

// AdminService is the privileged override path. It shares the engine's
// storage but deliberately not its transition table: an admin may jump an
// order straight to COMPLETED or CANCELLED from any live state. Keeping the
// policy in its own type stops the two rule sets from drifting into each
// other. Privilege gating (the admin token) happens in middleware; there is
// no ownership check here.
type AdminService struct {
	engine *Engine
}

func NewAdminService(engine *Engine) *AdminService {
	return &AdminService{engine: engine}
}

// SetStatus forces an order to target. Milestone timestamps are stamped only
// when target matches them and only if still unset. COMPLETED finalizes the
// listing to SOLD; CANCELLED releases it back to ACTIVE. Terminal orders are
// frozen: once COMPLETED or CANCELLED, no further override is permitted.
func (a *AdminService) SetStatus(ctx context.Context, orderID, targetStatus string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, apperr.New(apperr.KindInvalidInput, "orderId is required")
	}
	target, err := domain.ToOrderStatus(targetStatus)
	if err != nil {
		return domain.Order{}, apperr.Newf(apperr.KindInvalidInput, "unsupported status %s", targetStatus)
	}

	e := a.engine
	err = e.store.InTx(ctx, func(sess store.Session) error {
		o, err := sess.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.New(apperr.KindNotFound, "order not found")
			}
			return fmt.Errorf("orders.GetForUpdate: %w", err)
		}

		if o.Status.Terminal() && target != o.Status {
			return apperr.Newf(apperr.KindInvalidTransition, "order is already %s", o.Status)
		}

		if err := sess.Orders().SetStatus(ctx, orderID, target, e.now()); err != nil {
			return fmt.Errorf("orders.SetStatus: %w", err)
		}

		switch target {
		case domain.OrderCompleted:
			return listing.Finalize(ctx, sess, o.ListingID)
		case domain.OrderCancelled:
			return listing.Release(ctx, sess, o.ListingID)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	return e.reload(ctx, orderID, "order not found after admin update")
}

// Confirm completes an order on the buyer's behalf. The SHIPPED requirement
// still applies; only the ownership check is skipped.
func (a *AdminService) Confirm(ctx context.Context, orderID string) (domain.Order, domain.Payout, error) {
	if orderID == "" {
		return domain.Order{}, domain.Payout{}, apperr.New(apperr.KindInvalidInput, "orderId is required")
	}

	o, err := a.engine.store.Orders().Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Order{}, domain.Payout{}, apperr.New(apperr.KindNotFound, "order not found")
		}
		return domain.Order{}, domain.Payout{}, fmt.Errorf("orders.Get: %w", err)
	}

	return a.engine.Complete(ctx, orderID, o.BuyerID, true)
}
