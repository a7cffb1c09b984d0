package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/localmart/internal/cache"
	"github.com/sudo-init-do/localmart/internal/domain"
	"github.com/sudo-init-do/localmart/internal/listing"
	"github.com/sudo-init-do/localmart/internal/mocks"
	"github.com/sudo-init-do/localmart/internal/order"
)

type cacheFixture struct {
	server *Server
	store  *mocks.MemStore
	redis  *mocks.RedisClient
	echo   *echo.Echo
}

func newCacheFixture(t *testing.T) *cacheFixture {
	t.Helper()
	st := mocks.NewMemStore()
	st.AddListing(domain.Listing{
		ID:       "l1",
		SellerID: "seller-1",
		Title:    "camera",
		Price:    decimal.NewFromInt(20),
		Status:   domain.ListingActive,
	})
	rdb := mocks.NewRedisClient()
	eng := order.NewEngine(st)
	s := &Server{
		listings: listing.NewService(st),
		orders:   eng,
		admin:    order.NewAdminService(eng),
		cache:    cache.NewListings(rdb),
	}
	return &cacheFixture{server: s, store: st, redis: rdb, echo: echo.New()}
}

// prime runs the public detail read so the listing lands in the cache.
func (f *cacheFixture) prime(t *testing.T, listingID string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/listings/"+listingID, nil)
	rec := httptest.NewRecorder()
	c := f.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(listingID)

	require.NoError(t, f.server.getListing(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, f.redis.Has("listing:"+listingID))
}

func (f *cacheFixture) jsonContext(method, path, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := f.echo.NewContext(req, rec)
	c.Set("user_id", userID)
	return c, rec
}

func TestStatusMutationsDropCachedListing(t *testing.T) {
	t.Run("placing an order drops the listing", func(t *testing.T) {
		f := newCacheFixture(t)
		f.prime(t, "l1")

		c, rec := f.jsonContext(http.MethodPost, "/orders", `{"listingId":"l1","quantity":1}`, "buyer-1")
		require.NoError(t, f.server.createOrder(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		assert.False(t, f.redis.Has("listing:l1"))
	})

	t.Run("admin status override drops the listing", func(t *testing.T) {
		f := newCacheFixture(t)
		eng := order.NewEngine(f.store)
		o, err := eng.Create(context.Background(), "l1", "buyer-1", 1)
		require.NoError(t, err)

		f.prime(t, "l1")

		c, rec := f.jsonContext(http.MethodPatch, "/admin/orders/"+o.ID+"/status", `{"status":"cancelled"}`, "admin-1")
		c.SetParamNames("id")
		c.SetParamValues(o.ID)
		require.NoError(t, f.server.adminSetStatus(c))
		require.Equal(t, http.StatusOK, rec.Code)

		assert.False(t, f.redis.Has("listing:l1"))
	})

	t.Run("seller edit drops the listing", func(t *testing.T) {
		f := newCacheFixture(t)
		f.prime(t, "l1")

		c, rec := f.jsonContext(http.MethodPatch, "/listings/l1", `{"title":"camera kit"}`, "seller-1")
		c.SetParamNames("id")
		c.SetParamValues("l1")
		require.NoError(t, f.server.updateListing(c))
		require.Equal(t, http.StatusOK, rec.Code)

		assert.False(t, f.redis.Has("listing:l1"))
	})
}
