package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/media-catalog/internal/friends"
	"github.com/example/media-catalog/internal/platform/analytics"
	"github.com/example/media-catalog/internal/platform/api"
	"github.com/example/media-catalog/internal/platform/httpserver"
)

// FriendDeps carries the friendship handlers' collaborators.
type FriendDeps struct {
	Store  friends.Store
	Events *analytics.Publisher
}

type friendRequestBody struct {
	UserID string `json:"user_id"`
}

// RequestFriend handles POST /v1/friends/requests
func RequestFriend(d FriendDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		var req friendRequestBody
		if err := decodeJSON(w, r, &req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		target := strings.TrimSpace(req.UserID)
		if target == "" {
			api.BadRequest(w, "MISSING_USER", "user_id is required", rid, nil)
			return
		}

		if err := d.Store.Request(r.Context(), uid, target); err != nil {
			writeDomainError(w, rid, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// AcceptFriend handles POST /v1/friends/requests/{requester_id}/accept
func AcceptFriend(d FriendDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		requester := strings.TrimSpace(chi.URLParam(r, "requester_id"))
		if err := d.Store.Accept(r.Context(), uid, requester); err != nil {
			writeDomainError(w, rid, err)
			return
		}

		d.Events.Publish(analytics.SubjectFriendAccepted, "friend_accepted", uid, map[string]any{
			"requester_id": requester,
		})
		api.NoContent(w)
	}
}

// RemoveFriend handles DELETE /v1/friends/{user_id}
func RemoveFriend(d FriendDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		if err := d.Store.Remove(r.Context(), uid, strings.TrimSpace(chi.URLParam(r, "user_id"))); err != nil {
			writeDomainError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}

// ListFriends handles GET /v1/friends
func ListFriends(d FriendDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		list, err := d.Store.List(r.Context(), uid)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		if list == nil {
			list = []friends.Friend{}
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

// PendingFriends handles GET /v1/friends/requests
func PendingFriends(d FriendDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		list, err := d.Store.Pending(r.Context(), uid)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		if list == nil {
			list = []friends.Friendship{}
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}
