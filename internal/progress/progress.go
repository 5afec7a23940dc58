// Package progress persists watched-episode facts. A fact is the statement
// "this user watched this episode of this show at this time"; marking an
// episode watched twice refreshes the timestamp instead of duplicating the row.
package progress

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserIDRequired = errors.New("progress: user id is required")
	ErrInvalidEpisode = errors.New("progress: season and episode must be positive")
)

// Fact is one watched-episode record.
type Fact struct {
	UserID        string    `json:"user_id"`
	ShowID        int64     `json:"show_id"`
	SeasonNumber  int       `json:"season_number"`
	EpisodeNumber int       `json:"episode_number"`
	WatchedAt     time.Time `json:"watched_at"`
}

// Store defines persistence operations for watched-episode facts.
type Store interface {
	// Upsert inserts the fact or refreshes watched_at on the existing row.
	Upsert(ctx context.Context, f Fact) error
	// Delete removes the fact; deleting a missing fact is not an error.
	Delete(ctx context.Context, userID string, showID int64, season, episode int) error
	// ListRecent returns up to limit facts ordered by watched_at DESC.
	ListRecent(ctx context.Context, userID string, limit int) ([]Fact, error)
	// ListShow returns every watched fact for one show, newest first.
	ListShow(ctx context.Context, userID string, showID int64) ([]Fact, error)
}
