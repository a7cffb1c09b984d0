// Package cache provides a read-through redis cache for listing display
// reads. It is strictly best-effort: a cache miss or redis outage degrades
// to the store, never to an error.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sudo-init-do/localmart/internal/domain"
)

const defaultTTL = time.Minute

// Client is the slice of the redis API the cache needs. *redis.Client
// satisfies it; tests use a hand-written fake.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Listings struct {
	rdb Client
	ttl time.Duration
}

func NewListings(rdb Client) *Listings {
	return &Listings{rdb: rdb, ttl: defaultTTL}
}

func key(id string) string { return fmt.Sprintf("listing:%s", id) }

func (c *Listings) Get(ctx context.Context, id string) (domain.Listing, bool) {
	if c == nil || c.rdb == nil {
		return domain.Listing{}, false
	}

	raw, err := c.rdb.Get(ctx, key(id)).Result()
	if err != nil {
		return domain.Listing{}, false
	}

	var l domain.Listing
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return domain.Listing{}, false
	}
	return l, true
}

func (c *Listings) Set(ctx context.Context, l domain.Listing) {
	if c == nil || c.rdb == nil {
		return
	}

	data, err := json.Marshal(l)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(l.ID), data, c.ttl).Err(); err != nil {
		log.Printf("cache set failed for listing %s: %v", l.ID, err)
	}
}

// Drop invalidates a listing after any mutation that touches it, including
// status flips driven by the order lifecycle.
func (c *Listings) Drop(ctx context.Context, ids ...string) {
	if c == nil || c.rdb == nil || len(ids) == 0 {
		return
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache drop failed: %v", err)
	}
}
