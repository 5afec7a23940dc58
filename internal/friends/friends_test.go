package friends

import (
	"context"
	"errors"
	"testing"
)

func TestRequestAcceptLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Request(ctx, "alice", "bob"); err != nil {
		t.Fatalf("request: %v", err)
	}

	pending, err := s.Pending(ctx, "bob")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].RequesterID != "alice" || pending[0].Status != StatusPending {
		t.Fatalf("expected one pending request from alice, got %v", pending)
	}

	// The requester has no pending inbox entry.
	alicePending, err := s.Pending(ctx, "alice")
	if err != nil {
		t.Fatalf("pending for requester: %v", err)
	}
	if len(alicePending) != 0 {
		t.Fatalf("expected no pending requests for alice, got %v", alicePending)
	}

	if err := s.Accept(ctx, "bob", "alice"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Both sides now list each other.
	for user, friend := range map[string]string{"alice": "bob", "bob": "alice"} {
		list, err := s.List(ctx, user)
		if err != nil {
			t.Fatalf("list %s: %v", user, err)
		}
		if len(list) != 1 || list[0].UserID != friend {
			t.Fatalf("expected %s to have friend %s, got %v", user, friend, list)
		}
	}
}

func TestRequestIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Request(ctx, "alice", "bob"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := s.Request(ctx, "alice", "bob"); err != nil {
		t.Fatalf("repeat request must be a no-op: %v", err)
	}
	// The reverse request is swallowed by the existing edge too.
	if err := s.Request(ctx, "bob", "alice"); err != nil {
		t.Fatalf("reverse request must be a no-op: %v", err)
	}

	pending, err := s.Pending(ctx, "bob")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected a single pending request, got %d", len(pending))
	}
}

func TestSelfFriendshipRejected(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Request(context.Background(), "alice", "alice"); !errors.Is(err, ErrSelfFriendship) {
		t.Fatalf("expected ErrSelfFriendship, got %v", err)
	}
}

func TestAcceptMissingRequest(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Accept(ctx, "bob", "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Accepting in the wrong direction does not confirm the request.
	if err := s.Request(ctx, "alice", "bob"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := s.Accept(ctx, "alice", "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for requester-side accept, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Request(ctx, "alice", "bob"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := s.Accept(ctx, "bob", "alice"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Either side can remove the edge.
	if err := s.Remove(ctx, "bob", "alice"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	list, err := s.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no friends after removal, got %v", list)
	}
	if err := s.Remove(ctx, "bob", "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat removal, got %v", err)
	}
}

func TestValidation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Request(ctx, "", "bob"); !errors.Is(err, ErrUserIDRequired) {
		t.Fatalf("expected ErrUserIDRequired, got %v", err)
	}
	if _, err := s.List(ctx, ""); !errors.Is(err, ErrUserIDRequired) {
		t.Fatalf("expected ErrUserIDRequired from List, got %v", err)
	}
	if _, err := s.Pending(ctx, ""); !errors.Is(err, ErrUserIDRequired) {
		t.Fatalf("expected ErrUserIDRequired from Pending, got %v", err)
	}
}
