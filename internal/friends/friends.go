// Package friends manages friendship requests. A friendship is one row keyed
// by (requester, addressee); it starts pending and becomes accepted when the
// addressee confirms. Repeating a pending request is a no-op.
package friends

import (
	"context"
	"errors"
	"time"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
)

var (
	ErrUserIDRequired = errors.New("friends: user id is required")
	ErrSelfFriendship = errors.New("friends: cannot befriend yourself")
	ErrNotFound       = errors.New("friends: friendship not found")
)

// Friendship is one edge between two users.
type Friendship struct {
	RequesterID string    `json:"requester_id"`
	AddresseeID string    `json:"addressee_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Friend is the listing view: the other user plus when the edge was accepted.
type Friend struct {
	UserID string    `json:"user_id"`
	Since  time.Time `json:"since"`
}

// Store defines persistence operations for friendships.
type Store interface {
	// Request creates a pending request from userID to friendID. Repeating an
	// existing request (or one already accepted) is a no-op.
	Request(ctx context.Context, userID, friendID string) error
	// Accept confirms the pending request addressed to userID from requesterID.
	Accept(ctx context.Context, userID, requesterID string) error
	// Remove deletes the edge between the two users in either direction,
	// pending or accepted.
	Remove(ctx context.Context, userID, friendID string) error
	// List returns accepted friends of userID, most recently accepted first.
	List(ctx context.Context, userID string) ([]Friend, error)
	// Pending returns requests addressed to userID awaiting confirmation.
	Pending(ctx context.Context, userID string) ([]Friendship, error)
}

func validatePair(userID, friendID string) error {
	if userID == "" || friendID == "" {
		return ErrUserIDRequired
	}
	if userID == friendID {
		return ErrSelfFriendship
	}
	return nil
}
