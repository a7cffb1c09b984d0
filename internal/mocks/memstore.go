// Package mocks holds hand-written test doubles. MemStore implements
// store.Store with the same observable semantics as the postgres adapter:
// one writer at a time (the mutex stands in for row locks, held for the
// whole transaction) and all-or-nothing commits.
package mocks

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sudo-init-do/localmart/internal/domain"
	"github.com/sudo-init-do/localmart/internal/store"
)

type MemStore struct {
	mu       sync.Mutex
	listings map[string]domain.Listing
	orders   map[string]domain.Order
	items    map[string][]domain.OrderItem
}

func NewMemStore() *MemStore {
	return &MemStore{
		listings: make(map[string]domain.Listing),
		orders:   make(map[string]domain.Order),
		items:    make(map[string][]domain.OrderItem),
	}
}

// Seed and inspection helpers for tests.

func (m *MemStore) AddListing(l domain.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
}

func (m *MemStore) AddOrder(o domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

func (m *MemStore) Listing(id string) (domain.Listing, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	return l, ok
}

func (m *MemStore) Order(id string) (domain.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	return o, ok
}

func (m *MemStore) Items(orderID string) []domain.OrderItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OrderItem(nil), m.items[orderID]...)
}

func (m *MemStore) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// InTx serializes transactions on the mutex and applies fn to a staged copy
// of the data, so an error from fn discards every change it made.
func (m *MemStore) InTx(_ context.Context, fn func(s store.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := &memSession{
		listings: cloneMap(m.listings),
		orders:   cloneMap(m.orders),
		items:    cloneItems(m.items),
	}
	if err := fn(staged); err != nil {
		return err
	}

	m.listings = staged.listings
	m.orders = staged.orders
	m.items = staged.items
	return nil
}

func (m *MemStore) Listings() store.ListingReader { return (*memListingReader)(m) }
func (m *MemStore) Orders() store.OrderReader     { return (*memOrderReader)(m) }

func cloneMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func cloneItems(src map[string][]domain.OrderItem) map[string][]domain.OrderItem {
	dst := make(map[string][]domain.OrderItem, len(src))
	for k, v := range src {
		dst[k] = append([]domain.OrderItem(nil), v...)
	}
	return dst
}

type memSession struct {
	listings map[string]domain.Listing
	orders   map[string]domain.Order
	items    map[string][]domain.OrderItem
}

func (s *memSession) Listings() store.ListingSession { return (*memListingSession)(s) }
func (s *memSession) Orders() store.OrderSession     { return (*memOrderSession)(s) }

type memListingSession memSession

func (s *memListingSession) GetForUpdate(_ context.Context, id string) (domain.Listing, error) {
	l, ok := s.listings[id]
	if !ok {
		return domain.Listing{}, store.ErrNotFound
	}
	return l, nil
}

func (s *memListingSession) SetStatus(_ context.Context, id string, status domain.ListingStatus) error {
	l, ok := s.listings[id]
	if !ok {
		return store.ErrNotFound
	}
	l.Status = status
	s.listings[id] = l
	return nil
}

func (s *memListingSession) Insert(_ context.Context, l domain.Listing) error {
	s.listings[l.ID] = l
	return nil
}

func (s *memListingSession) Update(_ context.Context, id string, patch domain.ListingPatch) error {
	l, ok := s.listings[id]
	if !ok {
		return store.ErrNotFound
	}
	if patch.Title != nil {
		l.Title = *patch.Title
	}
	if patch.Price != nil {
		l.Price = *patch.Price
	}
	if patch.Images != nil {
		l.Images = append([]string(nil), (*patch.Images)...)
	}
	if patch.Location != nil {
		l.Location = *patch.Location
	}
	s.listings[id] = l
	return nil
}

func (s *memListingSession) Delete(_ context.Context, id string) error {
	if _, ok := s.listings[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.listings, id)
	return nil
}

type memOrderSession memSession

func (s *memOrderSession) GetForUpdate(_ context.Context, id string) (domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (s *memOrderSession) Insert(_ context.Context, o domain.Order, item domain.OrderItem) error {
	s.orders[o.ID] = o
	s.items[item.OrderID] = append(s.items[item.OrderID], item)
	return nil
}

func (s *memOrderSession) MarkShipped(_ context.Context, id string, tracking *string, at time.Time) error {
	o, ok := s.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = domain.OrderShipped
	o.TrackingNumber = tracking
	if o.ShippedAt == nil {
		t := at
		o.ShippedAt = &t
	}
	o.FundsReleasedAt = nil
	s.orders[id] = o
	return nil
}

func (s *memOrderSession) Complete(_ context.Context, id string, at time.Time) error {
	o, ok := s.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = domain.OrderCompleted
	if o.DeliveredAt == nil {
		t := at
		o.DeliveredAt = &t
	}
	if o.FundsReleasedAt == nil {
		t := at
		o.FundsReleasedAt = &t
	}
	s.orders[id] = o
	return nil
}

func (s *memOrderSession) SetStatus(_ context.Context, id string, target domain.OrderStatus, at time.Time) error {
	o, ok := s.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = target
	if target == domain.OrderShipped && o.ShippedAt == nil {
		t := at
		o.ShippedAt = &t
	}
	if target == domain.OrderCompleted {
		if o.DeliveredAt == nil {
			t := at
			o.DeliveredAt = &t
		}
		if o.FundsReleasedAt == nil {
			t := at
			o.FundsReleasedAt = &t
		}
	}
	s.orders[id] = o
	return nil
}

type memListingReader MemStore

func (r *memListingReader) Get(_ context.Context, id string) (domain.Listing, error) {
	m := (*MemStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return domain.Listing{}, store.ErrNotFound
	}
	return l, nil
}

func (r *memListingReader) Nearby(_ context.Context, q store.NearbyQuery) ([]store.NearbyListing, error) {
	m := (*MemStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.NearbyListing
	for _, l := range m.listings {
		if l.Status != domain.ListingActive {
			continue
		}
		d := haversineKm(q.Latitude, q.Longitude, l.Location.Latitude, l.Location.Longitude)
		if d <= q.RadiusKm {
			out = append(out, store.NearbyListing{Listing: l, DistanceKm: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

type memOrderReader MemStore

func (r *memOrderReader) Get(_ context.Context, id string) (domain.Order, error) {
	m := (*MemStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (r *memOrderReader) ListForUser(_ context.Context, userID string, limit int) ([]domain.OrderSummary, error) {
	m := (*MemStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.OrderSummary
	for _, o := range m.orders {
		if o.BuyerID != userID && o.SellerID != userID {
			continue
		}
		s := domain.OrderSummary{
			ID:          o.ID,
			ListingID:   o.ListingID,
			Price:       o.TotalAmount,
			Status:      o.Status,
			SellerID:    o.SellerID,
			BuyerID:     o.BuyerID,
			PlacedAt:    o.PlacedAt,
			ShippedAt:   o.ShippedAt,
			DeliveredAt: o.DeliveredAt,
		}
		if l, ok := m.listings[o.ListingID]; ok {
			s.ListingTitle = l.Title
			if len(l.Images) > 0 {
				s.ThumbnailURL = l.Images[0]
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.After(out[j].PlacedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
