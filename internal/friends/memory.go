package friends

import (
	"context"
	"sort"
	"sync"
	"time"
)

type edgeKey struct {
	RequesterID string
	AddresseeID string
}

// MemoryStore is a development-only in-memory implementation.
type MemoryStore struct {
	mu    sync.RWMutex
	edges map[edgeKey]Friendship
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{edges: make(map[edgeKey]Friendship)}
}

func (s *MemoryStore) Request(_ context.Context, userID, friendID string) error {
	if err := validatePair(userID, friendID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.edges[edgeKey{userID, friendID}]; ok {
		return nil
	}
	if _, ok := s.edges[edgeKey{friendID, userID}]; ok {
		return nil
	}

	now := time.Now().UTC()
	s.edges[edgeKey{userID, friendID}] = Friendship{
		RequesterID: userID,
		AddresseeID: friendID,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return nil
}

func (s *MemoryStore) Accept(_ context.Context, userID, requesterID string) error {
	if err := validatePair(userID, requesterID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey{requesterID, userID}
	f, ok := s.edges[key]
	if !ok || f.Status != StatusPending {
		return ErrNotFound
	}
	f.Status = StatusAccepted
	f.UpdatedAt = time.Now().UTC()
	s.edges[key] = f
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, userID, friendID string) error {
	if err := validatePair(userID, friendID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	for _, key := range []edgeKey{{userID, friendID}, {friendID, userID}} {
		if _, ok := s.edges[key]; ok {
			delete(s.edges, key)
			removed = true
		}
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID string) ([]Friend, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Friend
	for key, f := range s.edges {
		if f.Status != StatusAccepted {
			continue
		}
		switch userID {
		case key.RequesterID:
			out = append(out, Friend{UserID: key.AddresseeID, Since: f.UpdatedAt})
		case key.AddresseeID:
			out = append(out, Friend{UserID: key.RequesterID, Since: f.UpdatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Since.Equal(out[j].Since) {
			return out[i].Since.After(out[j].Since)
		}
		return out[i].UserID > out[j].UserID
	})
	return out, nil
}

func (s *MemoryStore) Pending(_ context.Context, userID string) ([]Friendship, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Friendship
	for key, f := range s.edges {
		if key.AddresseeID == userID && f.Status == StatusPending {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RequesterID > out[j].RequesterID
	})
	return out, nil
}
