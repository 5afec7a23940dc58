package recent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"github.com/example/media-catalog/internal/platform/cache"
	"github.com/example/media-catalog/internal/progress"
	"github.com/example/media-catalog/internal/tmdb"
)

type stubLister struct {
	facts []progress.Fact
	err   error
	calls int32
}

func (s *stubLister) ListRecentWatched(_ context.Context, _ string, limit int) ([]progress.Fact, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.facts) > limit {
		return s.facts[:limit], nil
	}
	return s.facts, nil
}

type stubShows struct {
	mu    sync.Mutex
	delay map[int64]time.Duration
	fail  map[int64]bool
	calls []int64
}

func (s *stubShows) ShowDetails(_ context.Context, id int64) (*tmdb.Show, error) {
	s.mu.Lock()
	s.calls = append(s.calls, id)
	d := s.delay[id]
	failed := s.fail[id]
	s.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	if failed {
		return nil, fmt.Errorf("upstream: show %d unavailable", id)
	}
	return &tmdb.Show{ID: id, Name: fmt.Sprintf("Show %d", id)}, nil
}

func fact(showID int64, sec int) progress.Fact {
	return progress.Fact{
		UserID:        "u1",
		ShowID:        showID,
		SeasonNumber:  1,
		EpisodeNumber: sec,
		WatchedAt:     time.Date(2024, 5, 1, 12, 0, sec, 0, time.UTC),
	}
}

func shelfIDs(entries []Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.Show.ID
	}
	return out
}

func TestRecentlyWatchedDedupesAndPreservesFoldOrder(t *testing.T) {
	// Facts newest first; show 10 appears twice, only its newest fact counts.
	lister := &stubLister{facts: []progress.Fact{
		fact(10, 50), fact(20, 40), fact(10, 30), fact(30, 20),
	}}
	shows := &stubShows{}
	a := NewAggregator(lister, shows, nil, zap.NewNop(), Options{})

	entries, err := a.RecentlyWatched(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recently watched: %v", err)
	}
	got := shelfIDs(entries)
	want := []int64{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("expected shows %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected shows %v, got %v", want, got)
		}
	}
	if entries[0].LastEpisode != 50 {
		t.Fatalf("expected the newest fact for show 10, got episode %d", entries[0].LastEpisode)
	}
}

func TestRecentlyWatchedOrderSurvivesSlowFetches(t *testing.T) {
	// The first show resolves last; the shelf order must not change.
	lister := &stubLister{facts: []progress.Fact{fact(1, 30), fact(2, 20), fact(3, 10)}}
	shows := &stubShows{delay: map[int64]time.Duration{
		1: 40 * time.Millisecond,
		2: 20 * time.Millisecond,
	}}
	a := NewAggregator(lister, shows, nil, zap.NewNop(), Options{})

	entries, err := a.RecentlyWatched(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recently watched: %v", err)
	}
	got := shelfIDs(entries)
	want := []int64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestRecentlyWatchedCapsDistinctShows(t *testing.T) {
	var facts []progress.Fact
	for i := 0; i < 10; i++ {
		facts = append(facts, fact(int64(100+i), 60-i))
	}
	lister := &stubLister{facts: facts}
	shows := &stubShows{}
	a := NewAggregator(lister, shows, nil, zap.NewNop(), Options{MaxShows: 6})

	entries, err := a.RecentlyWatched(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recently watched: %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("expected the shelf capped at 6, got %d", len(entries))
	}
	if len(shows.calls) != 6 {
		t.Fatalf("expected 6 metadata fetches, got %d", len(shows.calls))
	}
}

func TestRecentlyWatchedSkipsFailedShows(t *testing.T) {
	lister := &stubLister{facts: []progress.Fact{fact(1, 30), fact(2, 20), fact(3, 10)}}
	shows := &stubShows{fail: map[int64]bool{2: true}}
	a := NewAggregator(lister, shows, nil, zap.NewNop(), Options{})

	entries, err := a.RecentlyWatched(context.Background(), "u1")
	if err != nil {
		t.Fatalf("one failed show must not fail the request: %v", err)
	}
	got := shelfIDs(entries)
	want := []int64{1, 3}
	if len(got) != len(want) || got[0] != 1 || got[1] != 3 {
		t.Fatalf("expected %v with show 2 dropped, got %v", want, got)
	}
}

func TestRecentlyWatchedEmptyUserShortCircuits(t *testing.T) {
	lister := &stubLister{facts: []progress.Fact{fact(1, 10)}}
	shows := &stubShows{}
	a := NewAggregator(lister, shows, nil, zap.NewNop(), Options{})

	entries, err := a.RecentlyWatched(context.Background(), "")
	if err != nil {
		t.Fatalf("recently watched: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty shelf, got %v", entries)
	}
	if atomic.LoadInt32(&lister.calls) != 0 || len(shows.calls) != 0 {
		t.Fatal("expected no store or metadata calls for an anonymous user")
	}
}

func TestRecentlyWatchedNoFactsNoFetches(t *testing.T) {
	lister := &stubLister{}
	shows := &stubShows{}
	a := NewAggregator(lister, shows, nil, zap.NewNop(), Options{})

	entries, err := a.RecentlyWatched(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recently watched: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty shelf, got %v", entries)
	}
	if len(shows.calls) != 0 {
		t.Fatalf("expected no metadata fetches, got %v", shows.calls)
	}
}

func TestRecentlyWatchedStoreErrorPropagates(t *testing.T) {
	wantErr := errors.New("pool exhausted")
	a := NewAggregator(&stubLister{err: wantErr}, &stubShows{}, nil, zap.NewNop(), Options{})

	if _, err := a.RecentlyWatched(context.Background(), "u1"); !errors.Is(err, wantErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

func TestRecentlyWatchedUsesCache(t *testing.T) {
	lister := &stubLister{facts: []progress.Fact{fact(1, 10)}}
	shows := &stubShows{}
	mem := cache.NewMemory(time.Minute, nil, "")
	a := NewAggregator(lister, shows, mem, zap.NewNop(), Options{})
	ctx := context.Background()

	if _, err := a.RecentlyWatched(ctx, "u1"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := a.RecentlyWatched(ctx, "u1"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if atomic.LoadInt32(&lister.calls) != 1 {
		t.Fatalf("expected one store read, got %d", lister.calls)
	}

	mem.Delete(cache.Key("RecentlyWatched", "u1"))
	if _, err := a.RecentlyWatched(ctx, "u1"); err != nil {
		t.Fatalf("after eviction: %v", err)
	}
	if atomic.LoadInt32(&lister.calls) != 2 {
		t.Fatalf("expected a fresh store read after eviction, got %d", lister.calls)
	}
}

// serializingCache stores values as marshaled JSON, the way the shared Redis
// tier does, so hits must decode into the caller's concrete type.
type serializingCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newSerializingCache() *serializingCache {
	return &serializingCache{items: make(map[string][]byte)}
}

func (c *serializingCache) Get(key string, dest any) bool {
	c.mu.Lock()
	b, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(b, dest) == nil
}

func (c *serializingCache) Set(key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.items[key] = b
	c.mu.Unlock()
}

func TestRecentlyWatchedServedFromSerializingCache(t *testing.T) {
	lister := &stubLister{facts: []progress.Fact{fact(1, 30), fact(2, 20)}}
	shows := &stubShows{}
	a := NewAggregator(lister, shows, newSerializingCache(), zap.NewNop(), Options{})
	ctx := context.Background()

	first, err := a.RecentlyWatched(ctx, "u1")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := a.RecentlyWatched(ctx, "u1")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if atomic.LoadInt32(&lister.calls) != 1 {
		t.Fatalf("expected the second call to hit the cache, got %d store reads", lister.calls)
	}
	if len(second) != len(first) {
		t.Fatalf("expected the cached shelf, got %v vs %v", second, first)
	}
	for i := range first {
		if second[i].Show.ID != first[i].Show.ID || second[i].LastEpisode != first[i].LastEpisode {
			t.Fatalf("cached entry %d diverged: %+v vs %+v", i, second[i], first[i])
		}
	}
}

func TestRecentlyWatchedShelfProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	genShowIDs := gen.SliceOf(gen.Int64Range(1, 40))

	properties.Property("shelf is the ordered distinct prefix of the facts", prop.ForAll(
		func(showIDs []int64) bool {
			facts := make([]progress.Fact, len(showIDs))
			for i, id := range showIDs {
				facts[i] = fact(id, len(showIDs)-i)
			}
			a := NewAggregator(&stubLister{facts: facts}, &stubShows{}, nil, zap.NewNop(), Options{})
			entries, err := a.RecentlyWatched(context.Background(), "u1")
			if err != nil {
				return false
			}
			if len(entries) > DefaultMaxShows {
				return false
			}
			want := foldDistinctShows(facts, DefaultMaxShows)
			if len(entries) != len(want) {
				return false
			}
			for i := range want {
				if entries[i].Show.ID != want[i].ShowID {
					return false
				}
			}
			return true
		},
		genShowIDs,
	))

	properties.TestingRun(t)
}
