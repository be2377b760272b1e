package main

import (
	"context"
	"errors"
	"maps"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

var ErrMemcachedClosed = errors.New("memcached closed")

type cached[V any] struct {
	value    V
	expireAt int64
}

// Memcached is an in-memory TTL store. During shutdown it keeps serving
// existing keys until they expire but refuses new ones.
type Memcached[V any] struct {
	mu          sync.RWMutex
	stopCleaner context.CancelFunc
	items       map[string]cached[V]
	ttlTimeout  time.Duration
	inShutdown  atomic.Bool
	closed      atomic.Bool
}

func NewMemcached[V any](ttlTimeout, cleanupTimeout time.Duration) *Memcached[V] {
	ctx, cancel := context.WithCancel(context.Background())
	mc := &Memcached[V]{
		stopCleaner: cancel,
		items:       make(map[string]cached[V]),
		ttlTimeout:  ttlTimeout,
	}

	go mc.runCleaner(ctx, cleanupTimeout)
	return mc
}

// Set stores value and refreshes its TTL.
func (mc *Memcached[V]) Set(key string, value V) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.items[key]; mc.inShutdown.Load() && !exists {
		return
	}

	mc.items[key] = cached[V]{
		value:    value,
		expireAt: time.Now().Add(mc.ttlTimeout).UnixNano(),
	}
}

func (mc *Memcached[V]) Get(key string) (V, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	item, exists := mc.items[key]
	if !exists || time.Now().UnixNano() > item.expireAt {
		var zero V
		return zero, false
	}
	return item.value, true
}

func (mc *Memcached[V]) Delete(key string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.items, key)
}

func (mc *Memcached[V]) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.items)
}

func (mc *Memcached[V]) IsEmpty() bool {
	return mc.Len() == 0
}

const shutdownIntervalMax = 500 * time.Millisecond

// Shutdown waits, with jittered backoff, until every live item has expired.
func (mc *Memcached[V]) Shutdown(ctx context.Context) error {
	mc.inShutdown.Store(true)
	mc.stopCleaner()

	intervalBase := time.Millisecond
	nextInterval := func() time.Duration {
		interval := intervalBase + time.Duration(rand.Int63n(int64(intervalBase/10)+1))

		intervalBase *= 2
		if intervalBase > shutdownIntervalMax {
			intervalBase = shutdownIntervalMax
		}
		return interval
	}

	timer := time.NewTimer(nextInterval())
	defer timer.Stop()
	for {
		mc.cleanExpiredItems()
		if mc.IsEmpty() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			timer.Reset(nextInterval())
		}
	}
}

// Close drops every item immediately.
func (mc *Memcached[V]) Close() error {
	if mc.closed.Swap(true) {
		return ErrMemcachedClosed
	}
	mc.inShutdown.Store(true)
	mc.stopCleaner()

	mc.mu.Lock()
	defer mc.mu.Unlock()
	clear(mc.items)
	return nil
}

func (mc *Memcached[V]) runCleaner(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mc.cleanExpiredItems()
		}
	}
}

// cleanExpiredItems drops every item whose deadline has passed.
func (mc *Memcached[V]) cleanExpiredItems() {
	deadline := time.Now().UnixNano()

	mc.mu.Lock()
	maps.DeleteFunc(mc.items, func(_ string, item cached[V]) bool {
		return item.expireAt < deadline
	})
	mc.mu.Unlock()
}
