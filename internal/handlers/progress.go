package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/example/media-catalog/internal/platform/api"
	"github.com/example/media-catalog/internal/platform/httpserver"
	"github.com/example/media-catalog/internal/progress"
	"github.com/example/media-catalog/internal/recent"
)

// ProgressDeps carries the watch-progress handlers' collaborators. Publisher
// is optional: when present, writes go through JetStream and answer 202.
type ProgressDeps struct {
	Service    *progress.Service
	Publisher  *progress.EventPublisher
	Aggregator *recent.Aggregator
}

func episodePath(w http.ResponseWriter, r *http.Request, rid string) (showID int64, season, episode int, ok bool) {
	showID, ok = pathInt64(chi.URLParam(r, "show_id"))
	if !ok {
		api.BadRequest(w, "INVALID_ID", "show_id must be a positive integer", rid, nil)
		return 0, 0, 0, false
	}
	season, ok = pathInt(chi.URLParam(r, "season_number"))
	if !ok {
		api.BadRequest(w, "INVALID_SEASON", "season_number must be a positive integer", rid, nil)
		return 0, 0, 0, false
	}
	episode, ok = pathInt(chi.URLParam(r, "episode_number"))
	if !ok {
		api.BadRequest(w, "INVALID_EPISODE", "episode_number must be a positive integer", rid, nil)
		return 0, 0, 0, false
	}
	return showID, season, episode, true
}

// MarkWatched handles PUT /v1/progress/{show_id}/{season_number}/{episode_number}
func MarkWatched(d ProgressDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}
		showID, season, episode, ok := episodePath(w, r, rid)
		if !ok {
			return
		}

		// With JetStream configured the write is asynchronous: publish the
		// event and acknowledge before it lands in the store.
		if d.Publisher != nil {
			ev := progress.WatchedEvent{
				EventID:       uuid.NewString(),
				Action:        progress.ActionWatched,
				UserID:        uid,
				ShowID:        showID,
				SeasonNumber:  season,
				EpisodeNumber: episode,
				WatchedAt:     time.Now().UTC(),
			}
			if err := d.Publisher.Publish(ev); err != nil {
				api.WriteError(w, http.StatusServiceUnavailable, "EVENT_PUBLISH_FAILED", "failed to publish event", rid, nil)
				return
			}
			w.Header().Set("X-Event-ID", ev.EventID)
			w.WriteHeader(http.StatusAccepted)
			return
		}

		err := d.Service.MarkWatched(r.Context(), progress.Fact{
			UserID:        uid,
			ShowID:        showID,
			SeasonNumber:  season,
			EpisodeNumber: episode,
		})
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}

// MarkUnwatched handles DELETE /v1/progress/{show_id}/{season_number}/{episode_number}
func MarkUnwatched(d ProgressDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}
		showID, season, episode, ok := episodePath(w, r, rid)
		if !ok {
			return
		}

		if d.Publisher != nil {
			ev := progress.WatchedEvent{
				EventID:       uuid.NewString(),
				Action:        progress.ActionUnwatched,
				UserID:        uid,
				ShowID:        showID,
				SeasonNumber:  season,
				EpisodeNumber: episode,
			}
			if err := d.Publisher.Publish(ev); err != nil {
				api.WriteError(w, http.StatusServiceUnavailable, "EVENT_PUBLISH_FAILED", "failed to publish event", rid, nil)
				return
			}
			w.Header().Set("X-Event-ID", ev.EventID)
			w.WriteHeader(http.StatusAccepted)
			return
		}

		if err := d.Service.MarkUnwatched(r.Context(), uid, showID, season, episode); err != nil {
			writeDomainError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}

// GetShowProgress handles GET /v1/progress/{show_id}
func GetShowProgress(d ProgressDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}
		showID, ok := pathInt64(chi.URLParam(r, "show_id"))
		if !ok {
			api.BadRequest(w, "INVALID_ID", "show_id must be a positive integer", rid, nil)
			return
		}

		facts, err := d.Service.ListShowWatched(r.Context(), uid, showID)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		if facts == nil {
			facts = []progress.Fact{}
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"show_id": showID, "watched": facts})
	}
}

// RecentlyWatched handles GET /v1/recently-watched
func RecentlyWatched(d ProgressDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}

		entries, err := d.Aggregator.RecentlyWatched(r.Context(), uid)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": entries})
	}
}
