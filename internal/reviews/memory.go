package reviews

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type reviewKey struct {
	UserID    string
	MediaType string
	TMDBID    int64
}

// MemoryStore is a development-only in-memory implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	reviews map[reviewKey]Review
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reviews: make(map[reviewKey]Review)}
}

func (s *MemoryStore) Upsert(_ context.Context, r Review) (Review, error) {
	if err := validate(r); err != nil {
		return Review{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := reviewKey{r.UserID, r.MediaType, r.TMDBID}
	now := time.Now().UTC()
	if existing, ok := s.reviews[key]; ok {
		existing.Score = r.Score
		existing.Body = r.Body
		existing.UpdatedAt = now
		s.reviews[key] = existing
		return existing, nil
	}

	r.ID = uuid.New().String()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.reviews[key] = r
	return r, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, mediaType string, tmdbID int64) error {
	if userID == "" {
		return ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := reviewKey{userID, mediaType, tmdbID}
	if _, ok := s.reviews[key]; !ok {
		return ErrNotFound
	}
	delete(s.reviews, key)
	return nil
}

func (s *MemoryStore) ListForTitle(_ context.Context, mediaType string, tmdbID int64, limit int, cursor string) ([]Review, string, error) {
	if err := ValidateMediaType(mediaType); err != nil {
		return nil, "", err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	s.mu.RLock()
	var all []Review
	for key, r := range s.reviews {
		if key.MediaType == mediaType && key.TMDBID == tmdbID {
			all = append(all, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if cursor != "" {
		at, id, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		start := len(all)
		for i, r := range all {
			if r.CreatedAt.Before(at) || (r.CreatedAt.Equal(at) && r.ID < id) {
				start = i
				break
			}
		}
		all = all[start:]
	}

	var next string
	if len(all) > limit {
		all = all[:limit]
		last := all[len(all)-1]
		next = encodeCursor(last.CreatedAt, last.ID)
	}
	return all, next, nil
}

func (s *MemoryStore) GetSummary(_ context.Context, mediaType string, tmdbID int64) (Summary, error) {
	if err := ValidateMediaType(mediaType); err != nil {
		return Summary{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{MediaType: mediaType, TMDBID: tmdbID}
	total := 0
	for key, r := range s.reviews {
		if key.MediaType == mediaType && key.TMDBID == tmdbID {
			total += r.Score
			sum.TotalReviews++
		}
	}
	if sum.TotalReviews > 0 {
		sum.AverageScore = float64(total) / float64(sum.TotalReviews)
	}
	return sum, nil
}
