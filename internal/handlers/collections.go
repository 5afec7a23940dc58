package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/media-catalog/internal/collections"
	"github.com/example/media-catalog/internal/platform/api"
	"github.com/example/media-catalog/internal/platform/httpserver"
)

type createCollectionRequest struct {
	Name string `json:"name"`
}

type addItemRequest struct {
	MediaType string `json:"media_type"`
	TMDBID    int64  `json:"tmdb_id"`
}

func validItemRequest(req addItemRequest) bool {
	return (req.MediaType == "tv" || req.MediaType == "movie") && req.TMDBID > 0
}

// CreateCollection handles POST /v1/collections
func CreateCollection(store collections.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		var req createCollectionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}

		c, err := store.Create(r.Context(), uid, req.Name)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, c)
	}
}

// ListCollections handles GET /v1/collections
func ListCollections(store collections.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		list, err := store.List(r.Context(), uid)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		if list == nil {
			list = []collections.Collection{}
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

// GetCollection handles GET /v1/collections/{collection_id}
func GetCollection(store collections.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		c, err := store.Get(r.Context(), uid, strings.TrimSpace(chi.URLParam(r, "collection_id")))
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}

// RenameCollection handles PATCH /v1/collections/{collection_id}
func RenameCollection(store collections.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		var req createCollectionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}

		c, err := store.Rename(r.Context(), uid, strings.TrimSpace(chi.URLParam(r, "collection_id")), req.Name)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}

// DeleteCollection handles DELETE /v1/collections/{collection_id}
func DeleteCollection(store collections.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		if err := store.Delete(r.Context(), uid, strings.TrimSpace(chi.URLParam(r, "collection_id"))); err != nil {
			writeDomainError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}

// AddCollectionItem handles POST /v1/collections/{collection_id}/items
func AddCollectionItem(store collections.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		var req addItemRequest
		if err := decodeJSON(w, r, &req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		if !validItemRequest(req) {
			api.BadRequest(w, "INVALID_ITEM", "media_type must be tv or movie and tmdb_id positive", rid, nil)
			return
		}

		err := store.AddItem(r.Context(), uid, strings.TrimSpace(chi.URLParam(r, "collection_id")),
			collections.Item{MediaType: req.MediaType, TMDBID: req.TMDBID})
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

// RemoveCollectionItem handles DELETE /v1/collections/{collection_id}/items/{media_type}/{tmdb_id}
func RemoveCollectionItem(store collections.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		mediaType := strings.TrimSpace(chi.URLParam(r, "media_type"))
		tmdbID, idOK := pathInt64(chi.URLParam(r, "tmdb_id"))
		if (mediaType != "tv" && mediaType != "movie") || !idOK {
			api.BadRequest(w, "INVALID_ITEM", "media_type must be tv or movie and tmdb_id positive", rid, nil)
			return
		}

		err := store.RemoveItem(r.Context(), uid, strings.TrimSpace(chi.URLParam(r, "collection_id")), mediaType, tmdbID)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}
