// Package reviews stores user reviews for titles: one review per user per
// title, a 1-10 score, and an optional body. Listing is keyset-paginated.
package reviews

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MediaTypeShow  = "tv"
	MediaTypeMovie = "movie"
)

var (
	ErrUserIDRequired   = errors.New("reviews: user id is required")
	ErrInvalidMediaType = errors.New("reviews: media type must be tv or movie")
	ErrInvalidScore     = errors.New("reviews: score must be between 1 and 10")
	ErrNotFound         = errors.New("reviews: review not found")
	ErrBadCursor        = errors.New("reviews: malformed cursor")
)

type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	MediaType string    `json:"media_type"`
	TMDBID    int64     `json:"tmdb_id"`
	Score     int       `json:"score"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the aggregate over all reviews of one title.
type Summary struct {
	MediaType    string  `json:"media_type"`
	TMDBID       int64   `json:"tmdb_id"`
	AverageScore float64 `json:"average_score"`
	TotalReviews int     `json:"total_reviews"`
}

// Store defines persistence operations for reviews.
type Store interface {
	// Upsert creates the user's review of the title or replaces score and body
	// on the existing one.
	Upsert(ctx context.Context, r Review) (Review, error)
	// Delete removes the user's review of the title.
	Delete(ctx context.Context, userID, mediaType string, tmdbID int64) error
	// ListForTitle pages reviews newest first. An empty cursor starts at the
	// top; the returned cursor is empty on the last page.
	ListForTitle(ctx context.Context, mediaType string, tmdbID int64, limit int, cursor string) ([]Review, string, error)
	// GetSummary aggregates score average and count for one title.
	GetSummary(ctx context.Context, mediaType string, tmdbID int64) (Summary, error)
}

func validate(r Review) error {
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	if err := ValidateMediaType(r.MediaType); err != nil {
		return err
	}
	if r.Score < 1 || r.Score > 10 {
		return ErrInvalidScore
	}
	return nil
}

func ValidateMediaType(mt string) error {
	if mt != MediaTypeShow && mt != MediaTypeMovie {
		return ErrInvalidMediaType
	}
	return nil
}

func encodeCursor(t time.Time, id string) string {
	raw := fmt.Sprintf("%d|%s", t.UnixNano(), id)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(c string) (time.Time, string, error) {
	raw, err := base64.URLEncoding.DecodeString(c)
	if err != nil {
		return time.Time{}, "", ErrBadCursor
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", ErrBadCursor
	}
	var nanos int64
	if _, err := fmt.Sscanf(parts[0], "%d", &nanos); err != nil {
		return time.Time{}, "", ErrBadCursor
	}
	return time.Unix(0, nanos).UTC(), parts[1], nil
}
