package progress

import (
	"context"
	"sort"
	"sync"
	"time"
)

type factKey struct {
	UserID        string
	ShowID        int64
	SeasonNumber  int
	EpisodeNumber int
}

// MemoryStore is a development-only in-memory implementation.
type MemoryStore struct {
	mu    sync.RWMutex
	facts map[factKey]Fact
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{facts: make(map[factKey]Fact)}
}

func (s *MemoryStore) Upsert(_ context.Context, f Fact) error {
	if f.UserID == "" {
		return ErrUserIDRequired
	}
	if f.SeasonNumber < 1 || f.EpisodeNumber < 1 {
		return ErrInvalidEpisode
	}
	if f.WatchedAt.IsZero() {
		f.WatchedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts[factKey{f.UserID, f.ShowID, f.SeasonNumber, f.EpisodeNumber}] = f
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string, showID int64, season, episode int) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.facts, factKey{userID, showID, season, episode})
	return nil
}

func (s *MemoryStore) ListRecent(_ context.Context, userID string, limit int) ([]Fact, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.RLock()
	var out []Fact
	for k, f := range s.facts {
		if k.UserID == userID {
			out = append(out, f)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListShow(_ context.Context, userID string, showID int64) ([]Fact, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.RLock()
	var out []Fact
	for k, f := range s.facts {
		if k.UserID == userID && k.ShowID == showID {
			out = append(out, f)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

// sortNewestFirst matches the Postgres ordering: watched_at DESC with a
// stable key tiebreak so equal timestamps page deterministically.
func sortNewestFirst(facts []Fact) {
	sort.Slice(facts, func(i, j int) bool {
		if !facts[i].WatchedAt.Equal(facts[j].WatchedAt) {
			return facts[i].WatchedAt.After(facts[j].WatchedAt)
		}
		if facts[i].ShowID != facts[j].ShowID {
			return facts[i].ShowID > facts[j].ShowID
		}
		if facts[i].SeasonNumber != facts[j].SeasonNumber {
			return facts[i].SeasonNumber > facts[j].SeasonNumber
		}
		return facts[i].EpisodeNumber > facts[j].EpisodeNumber
	})
}
