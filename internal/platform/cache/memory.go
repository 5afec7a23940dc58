package cache

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

type memoryItem struct {
	val       any
	expiresAt time.Time
}

// Memory is an in-process Cache with per-entry expiry and optional
// NATS key-level invalidation.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	ttl   time.Duration
}

// NewMemory creates a Memory cache and wires up NATS key-level invalidation
// when nc is non-nil. An empty message payload (or "ALL") flushes everything.
func NewMemory(ttl time.Duration, nc *nats.Conn, subj string) *Memory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &Memory{
		items: make(map[string]memoryItem),
		ttl:   ttl,
	}
	if nc != nil && subj != "" {
		_, _ = nc.Subscribe(subj, func(m *nats.Msg) {
			key := string(m.Data)
			c.mu.Lock()
			defer c.mu.Unlock()
			if key == "" || strings.EqualFold(key, "ALL") {
				c.items = make(map[string]memoryItem)
				return
			}
			delete(c.items, key)
		})
	}
	return c
}

func (c *Memory) Get(key string, dest any) bool {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(it.expiresAt) {
		c.mu.Lock()
		if cur, ok2 := c.items[key]; ok2 && time.Now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return false
	}
	return assign(dest, it.val)
}

// assign copies a stored value into the caller's typed destination. A dest of
// the wrong type counts as a miss so the caller falls through to a refetch.
func assign(dest, val any) bool {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return false
	}
	sv := reflect.ValueOf(val)
	if !sv.IsValid() || !sv.Type().AssignableTo(dv.Elem().Type()) {
		return false
	}
	dv.Elem().Set(sv)
	return true
}

func (c *Memory) Set(key string, v any) {
	c.mu.Lock()
	c.items[key] = memoryItem{val: v, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes a single key. Used by same-process mutation hooks when
// no NATS invalidation channel is configured.
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}
