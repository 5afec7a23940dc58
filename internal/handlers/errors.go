package handlers

import (
	"errors"
	"net/http"

	"github.com/example/media-catalog/internal/collections"
	"github.com/example/media-catalog/internal/friends"
	"github.com/example/media-catalog/internal/platform/api"
	"github.com/example/media-catalog/internal/progress"
	"github.com/example/media-catalog/internal/reviews"
	"github.com/example/media-catalog/internal/tmdb"
)

// writeDomainError maps domain errors onto the HTTP error envelope.
func writeDomainError(w http.ResponseWriter, rid string, err error) {
	var decodeErr *tmdb.DecodeError

	switch {
	case errors.Is(err, progress.ErrUserIDRequired),
		errors.Is(err, reviews.ErrUserIDRequired),
		errors.Is(err, collections.ErrUserIDRequired),
		errors.Is(err, friends.ErrUserIDRequired):
		api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)

	case errors.Is(err, tmdb.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "title not found", rid)
	case errors.Is(err, reviews.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "review not found", rid)
	case errors.Is(err, collections.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "collection not found", rid)
	case errors.Is(err, friends.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "friendship not found", rid)

	case errors.Is(err, collections.ErrDuplicateItem):
		api.Conflict(w, "DUPLICATE_ITEM", "title already in collection", rid, nil)

	case errors.Is(err, progress.ErrInvalidEpisode):
		api.BadRequest(w, "INVALID_EPISODE", "season and episode must be positive", rid, nil)
	case errors.Is(err, reviews.ErrInvalidScore):
		api.BadRequest(w, "INVALID_SCORE", "score must be between 1 and 10", rid, nil)
	case errors.Is(err, reviews.ErrInvalidMediaType):
		api.BadRequest(w, "INVALID_MEDIA_TYPE", "media type must be tv or movie", rid, nil)
	case errors.Is(err, reviews.ErrBadCursor):
		api.BadRequest(w, "INVALID_CURSOR", "malformed pagination cursor", rid, nil)
	case errors.Is(err, collections.ErrNameRequired):
		api.BadRequest(w, "MISSING_NAME", "name is required", rid, nil)
	case errors.Is(err, friends.ErrSelfFriendship):
		api.BadRequest(w, "SELF_FRIENDSHIP", "cannot befriend yourself", rid, nil)

	case errors.As(err, &decodeErr):
		api.BadGateway(w, "UPSTREAM_DECODE", "metadata service returned an unreadable response", rid)

	default:
		api.Internal(w, rid)
	}
}
