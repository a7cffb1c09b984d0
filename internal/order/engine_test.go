package order_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/localmart/internal/apperr"
	"github.com/sudo-init-do/localmart/internal/domain"
	"github.com/sudo-init-do/localmart/internal/mocks"
	"github.com/sudo-init-do/localmart/internal/order"
)

func seedListing(st *mocks.MemStore, id string, price decimal.Decimal) {
	st.AddListing(domain.Listing{
		ID:       id,
		SellerID: "seller-1",
		Title:    "camera",
		Price:    price,
		Status:   domain.ListingActive,
	})
}

func TestEngineCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves the listing and snapshots the item", func(t *testing.T) {
		st := mocks.NewMemStore()
		seedListing(st, "l1", decimal.NewFromFloat(20.00))
		eng := order.NewEngine(st)

		o, err := eng.Create(ctx, "l1", "buyer-1", 2)
		require.NoError(t, err)

		assert.Equal(t, domain.OrderPendingPayment, o.Status)
		assert.Equal(t, "buyer-1", o.BuyerID)
		assert.Equal(t, "seller-1", o.SellerID)
		assert.True(t, o.TotalAmount.Equal(decimal.NewFromFloat(40.00)))
		assert.Nil(t, o.TrackingNumber)
		assert.Nil(t, o.FundsReleasedAt)
		assert.False(t, o.PlacedAt.IsZero())

		l, _ := st.Listing("l1")
		assert.Equal(t, domain.ListingReserved, l.Status)

		items := st.Items(o.ID)
		require.Len(t, items, 1)
		assert.Equal(t, "camera", items[0].Label)
		assert.Equal(t, 2, items[0].Quantity)
		assert.True(t, items[0].Price.Equal(decimal.NewFromFloat(20.00)))
	})

	t.Run("zero total skips payment", func(t *testing.T) {
		st := mocks.NewMemStore()
		seedListing(st, "l1", decimal.Zero)
		eng := order.NewEngine(st)

		o, err := eng.Create(ctx, "l1", "buyer-1", 3)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderPendingShipment, o.Status)
	})

	t.Run("quantity is clamped", func(t *testing.T) {
		tests := []struct {
			name      string
			quantity  int
			wantQty   int
			wantTotal decimal.Decimal
		}{
			{"zero becomes one", 0, 1, decimal.NewFromInt(10)},
			{"negative becomes one", -4, 1, decimal.NewFromInt(10)},
			{"above cap becomes ten", 99, 10, decimal.NewFromInt(100)},
			{"in range kept", 3, 3, decimal.NewFromInt(30)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				st := mocks.NewMemStore()
				seedListing(st, "l1", decimal.NewFromInt(10))
				eng := order.NewEngine(st)

				o, err := eng.Create(ctx, "l1", "buyer-1", tt.quantity)
				require.NoError(t, err)
				assert.True(t, o.TotalAmount.Equal(tt.wantTotal))
				items := st.Items(o.ID)
				require.Len(t, items, 1)
				assert.Equal(t, tt.wantQty, items[0].Quantity)
			})
		}
	})

	t.Run("reserved listing cannot be ordered", func(t *testing.T) {
		st := mocks.NewMemStore()
		seedListing(st, "l1", decimal.NewFromInt(10))
		eng := order.NewEngine(st)

		_, err := eng.Create(ctx, "l1", "buyer-1", 1)
		require.NoError(t, err)

		_, err = eng.Create(ctx, "l1", "buyer-2", 1)
		assert.Equal(t, apperr.KindNotAvailable, apperr.KindOf(err))
		assert.Equal(t, 1, st.OrderCount())
	})

	t.Run("missing listing id", func(t *testing.T) {
		eng := order.NewEngine(mocks.NewMemStore())
		_, err := eng.Create(ctx, "", "buyer-1", 1)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})

	t.Run("concurrent buyers race for one listing", func(t *testing.T) {
		st := mocks.NewMemStore()
		seedListing(st, "l1", decimal.NewFromInt(10))
		eng := order.NewEngine(st)

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = eng.Create(ctx, "l1", "buyer", 1)
			}(i)
		}
		wg.Wait()

		var won, lost int
		for _, err := range errs {
			if err == nil {
				won++
			} else if apperr.KindOf(err) == apperr.KindNotAvailable {
				lost++
			}
		}
		assert.Equal(t, 1, won)
		assert.Equal(t, 1, lost)
		assert.Equal(t, 1, st.OrderCount())
	})
}

func TestEngineMarkShipped(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*mocks.MemStore, *order.Engine, domain.Order) {
		st := mocks.NewMemStore()
		seedListing(st, "l1", decimal.NewFromInt(20))
		eng := order.NewEngine(st)
		o, err := eng.Create(ctx, "l1", "buyer-1", 2)
		require.NoError(t, err)
		return st, eng, o
	}

	t.Run("seller ships a pending order", func(t *testing.T) {
		_, eng, o := setup(t)

		shipped, err := eng.MarkShipped(ctx, o.ID, "seller-1", "TRK1")
		require.NoError(t, err)

		assert.Equal(t, domain.OrderShipped, shipped.Status)
		require.NotNil(t, shipped.TrackingNumber)
		assert.Equal(t, "TRK1", *shipped.TrackingNumber)
		assert.NotNil(t, shipped.ShippedAt)
		assert.Nil(t, shipped.FundsReleasedAt)
	})

	t.Run("tracking number is optional", func(t *testing.T) {
		_, eng, o := setup(t)

		shipped, err := eng.MarkShipped(ctx, o.ID, "seller-1", "")
		require.NoError(t, err)
		assert.Nil(t, shipped.TrackingNumber)
	})

	t.Run("only the seller may ship", func(t *testing.T) {
		_, eng, o := setup(t)

		_, err := eng.MarkShipped(ctx, o.ID, "buyer-1", "TRK1")
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("already shipped order cannot ship again", func(t *testing.T) {
		_, eng, o := setup(t)
		_, err := eng.MarkShipped(ctx, o.ID, "seller-1", "TRK1")
		require.NoError(t, err)

		_, err = eng.MarkShipped(ctx, o.ID, "seller-1", "TRK2")
		assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
	})

	t.Run("cancelled order cannot ship", func(t *testing.T) {
		_, eng, o := setup(t)
		_, err := order.NewAdminService(eng).SetStatus(ctx, o.ID, "cancelled")
		require.NoError(t, err)

		_, err = eng.MarkShipped(ctx, o.ID, "seller-1", "TRK1")
		assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
	})

	t.Run("missing order", func(t *testing.T) {
		_, eng, _ := setup(t)
		_, err := eng.MarkShipped(ctx, "nope", "seller-1", "")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestEngineComplete(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, ship bool) (*mocks.MemStore, *order.Engine, domain.Order) {
		st := mocks.NewMemStore()
		seedListing(st, "l1", decimal.NewFromInt(20))
		eng := order.NewEngine(st)
		o, err := eng.Create(ctx, "l1", "buyer-1", 2)
		require.NoError(t, err)
		if ship {
			o, err = eng.MarkShipped(ctx, o.ID, "seller-1", "TRK1")
			require.NoError(t, err)
		}
		return st, eng, o
	}

	t.Run("buyer confirms delivery and funds release", func(t *testing.T) {
		st, eng, o := setup(t, true)

		completed, payout, err := eng.Complete(ctx, o.ID, "buyer-1", false)
		require.NoError(t, err)

		assert.Equal(t, domain.OrderCompleted, completed.Status)
		assert.NotNil(t, completed.DeliveredAt)
		assert.NotNil(t, completed.FundsReleasedAt)

		l, _ := st.Listing("l1")
		assert.Equal(t, domain.ListingSold, l.Status)

		assert.Equal(t, o.ID, payout.OrderID)
		assert.Equal(t, "seller-1", payout.SellerID)
		assert.True(t, payout.Amount.Equal(decimal.NewFromInt(40)))
		assert.Equal(t, "USD", payout.Currency)
		assert.Equal(t, domain.PayoutReady, payout.Status)
		assert.Equal(t, *completed.FundsReleasedAt, payout.ReleasedAt)
	})

	t.Run("only the buyer can confirm", func(t *testing.T) {
		_, eng, o := setup(t, true)

		_, _, err := eng.Complete(ctx, o.ID, "seller-1", false)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("unshipped order cannot complete", func(t *testing.T) {
		_, eng, o := setup(t, false)

		_, _, err := eng.Complete(ctx, o.ID, "buyer-1", false)
		assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
	})

	t.Run("shipped requirement holds even when ownership is skipped", func(t *testing.T) {
		_, eng, o := setup(t, false)

		_, _, err := eng.Complete(ctx, o.ID, "anyone", true)
		assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
	})

	t.Run("completed order cannot complete again", func(t *testing.T) {
		_, eng, o := setup(t, true)
		_, _, err := eng.Complete(ctx, o.ID, "buyer-1", false)
		require.NoError(t, err)

		_, _, err = eng.Complete(ctx, o.ID, "buyer-1", false)
		assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
	})

	t.Run("cancelled order cannot complete", func(t *testing.T) {
		_, eng, o := setup(t, true)
		_, err := order.NewAdminService(eng).SetStatus(ctx, o.ID, "cancelled")
		require.NoError(t, err)

		_, _, err = eng.Complete(ctx, o.ID, "buyer-1", false)
		assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
	})

	t.Run("missing order", func(t *testing.T) {
		_, eng, _ := setup(t, false)
		_, _, err := eng.Complete(ctx, "nope", "buyer-1", false)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestEngineListForUser(t *testing.T) {
	ctx := context.Background()

	st := mocks.NewMemStore()
	seedListing(st, "l1", decimal.NewFromInt(10))
	seedListing(st, "l2", decimal.NewFromInt(15))
	eng := order.NewEngine(st)

	o1, err := eng.Create(ctx, "l1", "buyer-1", 1)
	require.NoError(t, err)
	_, err = eng.Create(ctx, "l2", "buyer-2", 1)
	require.NoError(t, err)

	t.Run("buyer sees own orders", func(t *testing.T) {
		out, err := eng.ListForUser(ctx, "buyer-1")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, o1.ID, out[0].ID)
		assert.Equal(t, "camera", out[0].ListingTitle)
	})

	t.Run("seller sees both sides", func(t *testing.T) {
		out, err := eng.ListForUser(ctx, "seller-1")
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("stranger sees nothing", func(t *testing.T) {
		out, err := eng.ListForUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}
