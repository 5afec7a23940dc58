// Package recent builds the recently-watched shelf: the user's watched-episode
// facts folded down to distinct shows, newest first, hydrated with show
// metadata fetched concurrently.
package recent

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/media-catalog/internal/platform/cache"
	"github.com/example/media-catalog/internal/progress"
	"github.com/example/media-catalog/internal/tmdb"
)

const (
	// DefaultFactLimit bounds how many facts the fold considers.
	DefaultFactLimit = 50
	// DefaultMaxShows bounds how many distinct shows the shelf holds.
	DefaultMaxShows = 6
)

// Entry is one shelf item: the show plus the fact that put it there.
type Entry struct {
	Show          tmdb.Show `json:"show"`
	LastSeason    int       `json:"last_season"`
	LastEpisode   int       `json:"last_episode"`
	LastWatchedAt time.Time `json:"last_watched_at"`
}

// FactLister supplies the user's watched facts, newest first.
type FactLister interface {
	ListRecentWatched(ctx context.Context, userID string, limit int) ([]progress.Fact, error)
}

// ShowClient hydrates a show ID into metadata.
type ShowClient interface {
	ShowDetails(ctx context.Context, id int64) (*tmdb.Show, error)
}

// Options tune the fold. Zero values take the defaults above.
type Options struct {
	FactLimit int
	MaxShows  int
}

// Aggregator computes the shelf. Metadata fetches run concurrently but the
// result keeps the fold order: most recently watched show first.
type Aggregator struct {
	facts FactLister
	shows ShowClient
	cache cache.Cache
	log   *zap.Logger
	opts  Options
}

func NewAggregator(facts FactLister, shows ShowClient, c cache.Cache, log *zap.Logger, opts Options) *Aggregator {
	if opts.FactLimit <= 0 {
		opts.FactLimit = DefaultFactLimit
	}
	if opts.MaxShows <= 0 {
		opts.MaxShows = DefaultMaxShows
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &Aggregator{facts: facts, shows: shows, cache: c, log: log, opts: opts}
}

// RecentlyWatched returns the shelf for one user. An empty user ID yields an
// empty shelf without touching the store or the metadata client.
func (a *Aggregator) RecentlyWatched(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return []Entry{}, nil
	}

	key := cache.Key("RecentlyWatched", userID)
	var entries []Entry
	if a.cache.Get(key, &entries) {
		return entries, nil
	}

	facts, err := a.facts.ListRecentWatched(ctx, userID, a.opts.FactLimit)
	if err != nil {
		return nil, err
	}
	heads := foldDistinctShows(facts, a.opts.MaxShows)
	if len(heads) == 0 {
		return []Entry{}, nil
	}

	entries = a.hydrate(ctx, heads)
	a.cache.Set(key, entries)
	return entries, nil
}

// foldDistinctShows keeps the first fact seen per show. Facts arrive newest
// first, so the first occurrence is the show's latest watch.
func foldDistinctShows(facts []progress.Fact, maxShows int) []progress.Fact {
	seen := make(map[int64]struct{}, maxShows)
	var heads []progress.Fact
	for _, f := range facts {
		if _, ok := seen[f.ShowID]; ok {
			continue
		}
		seen[f.ShowID] = struct{}{}
		heads = append(heads, f)
		if len(heads) == maxShows {
			break
		}
	}
	return heads
}

// hydrate fetches show metadata for every head fact concurrently, writing each
// result into its own slot so completion order never reorders the shelf.
// A failed fetch drops that show from the shelf instead of failing the whole
// request.
func (a *Aggregator) hydrate(ctx context.Context, heads []progress.Fact) []Entry {
	slots := make([]*Entry, len(heads))

	var wg sync.WaitGroup
	for i, f := range heads {
		wg.Add(1)
		go func(i int, f progress.Fact) {
			defer wg.Done()
			show, err := a.shows.ShowDetails(ctx, f.ShowID)
			if err != nil {
				a.log.Warn("recently watched: show fetch failed",
					zap.Int64("show_id", f.ShowID), zap.Error(err))
				return
			}
			slots[i] = &Entry{
				Show:          *show,
				LastSeason:    f.SeasonNumber,
				LastEpisode:   f.EpisodeNumber,
				LastWatchedAt: f.WatchedAt,
			}
		}(i, f)
	}
	wg.Wait()

	entries := make([]Entry, 0, len(heads))
	for _, e := range slots {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries
}
