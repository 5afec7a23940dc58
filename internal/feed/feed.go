// Package feed drives paginated, incrementally loaded item lists. The
// controller owns the render phase, a one-shot trigger latch with cool-down
// for end-of-list visibility events, and a generation counter that discards
// fetch results arriving for a superseded query.
package feed

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultTriggerDistance is how close to the end of the scroll region the
	// sentinel must be before a load-more trigger fires.
	DefaultTriggerDistance = 200.0
	// DefaultCooldown is the window after a trigger during which repeat
	// visibility events are ignored.
	DefaultCooldown = time.Second
)

var ErrKeyOfRequired = errors.New("feed: KeyOf is required")

// DuplicateKeyError reports a key collision in the item set, which is a
// caller error: keys must be unique within one list.
type DuplicateKeyError struct {
	Key string
}

func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("feed: duplicate item key %q", e.Key)
}

// Phase is the render state of the list.
type Phase int

const (
	// EmptyLoading: first page in flight, nothing to show yet.
	EmptyLoading Phase = iota
	// EmptyIdle: not loading and no items.
	EmptyIdle
	// PopulatedIdle: items on screen, nothing in flight.
	PopulatedIdle
	// PopulatedLoading: items on screen being refreshed in place.
	PopulatedLoading
	// PopulatedLoadingMore: items on screen, next page in flight; existing
	// items stay rendered with an indicator below.
	PopulatedLoadingMore
)

func (p Phase) String() string {
	switch p {
	case EmptyLoading:
		return "empty-loading"
	case EmptyIdle:
		return "empty-idle"
	case PopulatedIdle:
		return "populated-idle"
	case PopulatedLoading:
		return "populated-loading"
	case PopulatedLoadingMore:
		return "populated-loading-more"
	}
	return "unknown"
}

// latchState is the trigger latch: Idle can fire, Triggered has fired and is
// handing off, Cooling ignores visibility until the cool-down expires.
type latchState int

const (
	latchIdle latchState = iota
	latchTriggered
	latchCooling
)

// Clock supplies the current time. Injected so the cool-down is testable
// without real timers.
type Clock func() time.Time

// Config parameterises a Controller. KeyOf is required; LoadMore is optional
// (a list without it never shows a sentinel).
type Config[T any] struct {
	KeyOf           func(T) string
	LoadMore        func()
	TriggerDistance float64
	Cooldown        time.Duration
	Clock           Clock
}

// Controller holds one list instance's state. It is not safe for concurrent
// use; callers drive it from a single event loop.
type Controller[T any] struct {
	cfg   Config[T]
	items []T

	loading     bool
	loadingMore bool

	latch     latchState
	coolUntil time.Time

	generation uint64
}

func New[T any](cfg Config[T]) (*Controller[T], error) {
	if cfg.KeyOf == nil {
		return nil, ErrKeyOfRequired
	}
	if cfg.TriggerDistance <= 0 {
		cfg.TriggerDistance = DefaultTriggerDistance
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Controller[T]{cfg: cfg}, nil
}

// Apply replaces the item set and the loading flag, as on a fresh render.
// Duplicate keys in items are rejected and leave the controller unchanged.
func (c *Controller[T]) Apply(items []T, isLoading bool) error {
	if err := c.checkKeys(items); err != nil {
		return err
	}
	c.items = items
	c.loading = isLoading
	if !isLoading {
		c.loadingMore = false
	}
	return nil
}

// Items returns the current item set in order.
func (c *Controller[T]) Items() []T { return c.items }

// Phase computes the render state from (len(items), loading) and whether the
// in-flight load is an append.
func (c *Controller[T]) Phase() Phase {
	switch {
	case len(c.items) == 0 && c.loading:
		return EmptyLoading
	case len(c.items) == 0:
		return EmptyIdle
	case !c.loading:
		return PopulatedIdle
	case c.loadingMore:
		return PopulatedLoadingMore
	default:
		return PopulatedLoading
	}
}

// SentinelVisible reports a visibility event for the end-of-list sentinel at
// the given distance from the viewport edge. It fires the LoadMore callback
// at most once per cool-down window and returns whether it fired.
func (c *Controller[T]) SentinelVisible(distance float64) bool {
	if c.cfg.LoadMore == nil || c.loading {
		return false
	}
	if distance > c.cfg.TriggerDistance {
		return false
	}

	now := c.cfg.Clock()
	switch c.latch {
	case latchTriggered:
		return false
	case latchCooling:
		if now.Before(c.coolUntil) {
			return false
		}
		c.latch = latchIdle
	}

	c.latch = latchTriggered
	if len(c.items) > 0 {
		c.loadingMore = true
	}
	c.cfg.LoadMore()
	c.latch = latchCooling
	c.coolUntil = now.Add(c.cfg.Cooldown)
	return true
}

// BeginLoad starts a new fetch generation and returns its token. Any result
// carrying an older token is stale and must be discarded.
func (c *Controller[T]) BeginLoad() uint64 {
	c.generation++
	c.loading = true
	if len(c.items) == 0 {
		c.loadingMore = false
	}
	return c.generation
}

// ApplyResult appends a completed page for the given generation. A token from
// a superseded generation is discarded and the method reports false.
func (c *Controller[T]) ApplyResult(token uint64, page []T) (bool, error) {
	if token != c.generation {
		return false, nil
	}
	merged := append(append([]T(nil), c.items...), page...)
	if err := c.checkKeys(merged); err != nil {
		return false, err
	}
	c.items = merged
	c.loading = false
	c.loadingMore = false
	return true, nil
}

func (c *Controller[T]) checkKeys(items []T) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		k := c.cfg.KeyOf(it)
		if _, dup := seen[k]; dup {
			return DuplicateKeyError{Key: k}
		}
		seen[k] = struct{}{}
	}
	return nil
}
