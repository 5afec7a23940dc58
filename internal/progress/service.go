package progress

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/media-catalog/internal/platform/analytics"
	"github.com/example/media-catalog/internal/platform/cache"
)

// Invalidator evicts cached query results after a mutation. The NATS-backed
// implementation fans the eviction out to every process sharing the cache.
type Invalidator interface {
	Invalidate(key string)
}

// Service wraps a Store with analytics events and cache invalidation.
// Mutations go through the service; reads may hit the store directly.
type Service struct {
	store      Store
	events     *analytics.Publisher
	invalidate Invalidator
	log        *zap.Logger
}

func NewService(store Store, events *analytics.Publisher, inv Invalidator, log *zap.Logger) *Service {
	return &Service{store: store, events: events, invalidate: inv, log: log}
}

// MarkWatched records the fact, idempotently. A repeated mark refreshes the
// watched_at timestamp, which floats the show to the top of the recent list.
func (s *Service) MarkWatched(ctx context.Context, f Fact) error {
	if f.UserID == "" {
		return ErrUserIDRequired
	}
	if f.WatchedAt.IsZero() {
		f.WatchedAt = time.Now().UTC()
	}
	if err := s.store.Upsert(ctx, f); err != nil {
		return err
	}

	s.events.Publish(analytics.SubjectEpisodeWatched, "episode_watched", f.UserID, map[string]any{
		"show_id": f.ShowID,
		"season":  f.SeasonNumber,
		"episode": f.EpisodeNumber,
	})
	s.evictRecent(f.UserID)
	return nil
}

// MarkUnwatched removes the fact. Removing a fact that does not exist is a no-op.
func (s *Service) MarkUnwatched(ctx context.Context, userID string, showID int64, season, episode int) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	if err := s.store.Delete(ctx, userID, showID, season, episode); err != nil {
		return err
	}

	s.events.Publish(analytics.SubjectEpisodeUnwatched, "episode_unwatched", userID, map[string]any{
		"show_id": showID,
		"season":  season,
		"episode": episode,
	})
	s.evictRecent(userID)
	return nil
}

func (s *Service) ListRecentWatched(ctx context.Context, userID string, limit int) ([]Fact, error) {
	return s.store.ListRecent(ctx, userID, limit)
}

func (s *Service) ListShowWatched(ctx context.Context, userID string, showID int64) ([]Fact, error) {
	return s.store.ListShow(ctx, userID, showID)
}

func (s *Service) evictRecent(userID string) {
	if s.invalidate == nil {
		return
	}
	s.invalidate.Invalidate(cache.Key("RecentlyWatched", userID))
}
