// Package collections stores user-owned lists of titles (watchlist,
// favorites, arbitrary named lists). Every operation is owner-scoped: a
// collection id belonging to someone else behaves as not found.
package collections

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserIDRequired = errors.New("collections: user id is required")
	ErrNameRequired   = errors.New("collections: name is required")
	ErrNotFound       = errors.New("collections: collection not found")
	ErrDuplicateItem  = errors.New("collections: title already in collection")
)

type Collection struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Items     []Item    `json:"items,omitempty"`
}

// Item is one title in a collection.
type Item struct {
	MediaType string    `json:"media_type"`
	TMDBID    int64     `json:"tmdb_id"`
	AddedAt   time.Time `json:"added_at"`
}

// Store defines persistence operations for collections.
type Store interface {
	Create(ctx context.Context, userID, name string) (Collection, error)
	Rename(ctx context.Context, userID, collectionID, name string) (Collection, error)
	// Delete removes the collection and its items.
	Delete(ctx context.Context, userID, collectionID string) error
	// List returns the user's collections without items, newest first.
	List(ctx context.Context, userID string) ([]Collection, error)
	// Get returns one collection with its items, newest addition first.
	Get(ctx context.Context, userID, collectionID string) (Collection, error)
	AddItem(ctx context.Context, userID, collectionID string, item Item) error
	RemoveItem(ctx context.Context, userID, collectionID, mediaType string, tmdbID int64) error
}
