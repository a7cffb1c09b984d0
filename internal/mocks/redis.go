package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is an in-memory stand-in for the redis client behind the
// listing cache. It keeps raw values in a map and records every deleted key
// so tests can assert invalidation. Setting Err makes every call fail, for
// exercising the cache's degrade-to-store path.
type RedisClient struct {
	mu      sync.Mutex
	data    map[string]string
	dropped []string

	Err error
}

func NewRedisClient() *RedisClient {
	return &RedisClient{data: make(map[string]string)}
}

func (r *RedisClient) Get(_ context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return redis.NewStringResult("", r.Err)
	}
	v, ok := r.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (r *RedisClient) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return redis.NewStatusResult("", r.Err)
	}
	switch v := value.(type) {
	case []byte:
		r.data[key] = string(v)
	case string:
		r.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (r *RedisClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return redis.NewIntResult(0, r.Err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := r.data[k]; ok {
			delete(r.data, k)
			n++
		}
		r.dropped = append(r.dropped, k)
	}
	return redis.NewIntResult(n, nil)
}

// Inspection helpers for tests.

func (r *RedisClient) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[key]
	return ok
}

func (r *RedisClient) Dropped() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dropped...)
}
