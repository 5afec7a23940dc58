package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/media-catalog/internal/platform/analytics"
	"github.com/example/media-catalog/internal/platform/api"
	"github.com/example/media-catalog/internal/platform/httpserver"
	"github.com/example/media-catalog/internal/reviews"
)

// ReviewDeps carries the review handlers' collaborators.
type ReviewDeps struct {
	Store  reviews.Store
	Events *analytics.Publisher
}

type upsertReviewRequest struct {
	Score int    `json:"score"`
	Body  string `json:"body"`
}

func titlePath(w http.ResponseWriter, r *http.Request, rid string) (mediaType string, tmdbID int64, ok bool) {
	mediaType = strings.TrimSpace(chi.URLParam(r, "media_type"))
	if err := reviews.ValidateMediaType(mediaType); err != nil {
		api.BadRequest(w, "INVALID_MEDIA_TYPE", "media type must be tv or movie", rid, nil)
		return "", 0, false
	}
	tmdbID, idOK := pathInt64(chi.URLParam(r, "tmdb_id"))
	if !idOK {
		api.BadRequest(w, "INVALID_ID", "tmdb_id must be a positive integer", rid, nil)
		return "", 0, false
	}
	return mediaType, tmdbID, true
}

// UpsertReview handles PUT /v1/{media_type}/{tmdb_id}/reviews
func UpsertReview(d ReviewDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}
		mediaType, tmdbID, ok := titlePath(w, r, rid)
		if !ok {
			return
		}

		var req upsertReviewRequest
		if err := decodeJSON(w, r, &req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}

		review, err := d.Store.Upsert(r.Context(), reviews.Review{
			UserID:    uid,
			MediaType: mediaType,
			TMDBID:    tmdbID,
			Score:     req.Score,
			Body:      strings.TrimSpace(req.Body),
		})
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}

		d.Events.Publish(analytics.SubjectReviewWritten, "review_written", uid, map[string]any{
			"media_type": mediaType, "tmdb_id": tmdbID, "score": req.Score,
		})
		api.WriteJSON(w, http.StatusOK, review)
	}
}

// DeleteReview handles DELETE /v1/{media_type}/{tmdb_id}/reviews
func DeleteReview(d ReviewDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}
		mediaType, tmdbID, ok := titlePath(w, r, rid)
		if !ok {
			return
		}

		if err := d.Store.Delete(r.Context(), uid, mediaType, tmdbID); err != nil {
			writeDomainError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}

// ListReviews handles GET /v1/{media_type}/{tmdb_id}/reviews?limit=&cursor=
func ListReviews(d ReviewDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		mediaType, tmdbID, ok := titlePath(w, r, rid)
		if !ok {
			return
		}

		limit := 20
		if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		list, next, err := d.Store.ListForTitle(r.Context(), mediaType, tmdbID, limit, cursor)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		if list == nil {
			list = []reviews.Review{}
		}
		resp := map[string]any{"items": list}
		if next != "" {
			resp["next_cursor"] = next
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// ReviewSummary handles GET /v1/{media_type}/{tmdb_id}/reviews/summary
func ReviewSummary(d ReviewDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		mediaType, tmdbID, ok := titlePath(w, r, rid)
		if !ok {
			return
		}

		sum, err := d.Store.GetSummary(r.Context(), mediaType, tmdbID)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, sum)
	}
}
