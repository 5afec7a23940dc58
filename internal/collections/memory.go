package collections

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a development-only in-memory implementation.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*Collection // id -> collection with items
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*Collection)}
}

func (s *MemoryStore) Create(_ context.Context, userID, name string) (Collection, error) {
	if userID == "" {
		return Collection{}, ErrUserIDRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Collection{}, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	c := Collection{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.collections[c.ID] = &c
	return snapshot(&c), nil
}

func (s *MemoryStore) Rename(_ context.Context, userID, collectionID, name string) (Collection, error) {
	if userID == "" {
		return Collection{}, ErrUserIDRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Collection{}, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.owned(userID, collectionID)
	if err != nil {
		return Collection{}, err
	}
	c.Name = name
	c.UpdatedAt = time.Now().UTC()
	return snapshot(c), nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, collectionID string) error {
	if userID == "" {
		return ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(userID, collectionID); err != nil {
		return err
	}
	delete(s.collections, collectionID)
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID string) ([]Collection, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Collection
	for _, c := range s.collections {
		if c.UserID == userID {
			header := snapshot(c)
			header.Items = nil
			out = append(out, header)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, userID, collectionID string) (Collection, error) {
	if userID == "" {
		return Collection{}, ErrUserIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.owned(userID, collectionID)
	if err != nil {
		return Collection{}, err
	}
	return snapshot(c), nil
}

func (s *MemoryStore) AddItem(_ context.Context, userID, collectionID string, item Item) error {
	if userID == "" {
		return ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.owned(userID, collectionID)
	if err != nil {
		return err
	}
	for _, it := range c.Items {
		if it.MediaType == item.MediaType && it.TMDBID == item.TMDBID {
			return ErrDuplicateItem
		}
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}
	c.Items = append([]Item{item}, c.Items...)
	return nil
}

func (s *MemoryStore) RemoveItem(_ context.Context, userID, collectionID, mediaType string, tmdbID int64) error {
	if userID == "" {
		return ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.owned(userID, collectionID)
	if err != nil {
		return err
	}
	for i, it := range c.Items {
		if it.MediaType == mediaType && it.TMDBID == tmdbID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// owned resolves the collection only when the caller owns it. Someone else's
// collection id is indistinguishable from a missing one.
func (s *MemoryStore) owned(userID, collectionID string) (*Collection, error) {
	c, ok := s.collections[collectionID]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	return c, nil
}

func snapshot(c *Collection) Collection {
	out := *c
	out.Items = append([]Item(nil), c.Items...)
	return out
}
