package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Postgres-backed implementation.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, f Fact) error {
	if f.UserID == "" {
		return ErrUserIDRequired
	}
	if f.SeasonNumber < 1 || f.EpisodeNumber < 1 {
		return ErrInvalidEpisode
	}
	watchedAt := f.WatchedAt
	if watchedAt.IsZero() {
		watchedAt = time.Now().UTC()
	}

	q := `
INSERT INTO watched_episodes (user_id, show_id, season_number, episode_number, watched_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, show_id, season_number, episode_number)
DO UPDATE SET watched_at = EXCLUDED.watched_at`

	if _, err := s.db.Exec(ctx, q, f.UserID, f.ShowID, f.SeasonNumber, f.EpisodeNumber, watchedAt); err != nil {
		return fmt.Errorf("upsert watched episode: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID string, showID int64, season, episode int) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	q := `DELETE FROM watched_episodes
	      WHERE user_id=$1 AND show_id=$2 AND season_number=$3 AND episode_number=$4`
	if _, err := s.db.Exec(ctx, q, userID, showID, season, episode); err != nil {
		return fmt.Errorf("delete watched episode: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, userID string, limit int) ([]Fact, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	q := `SELECT show_id, season_number, episode_number, watched_at
	      FROM watched_episodes WHERE user_id=$1
	      ORDER BY watched_at DESC, show_id DESC, season_number DESC, episode_number DESC
	      LIMIT $2`

	rows, err := s.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent watched: %w", err)
	}
	defer rows.Close()

	var out []Fact
	for rows.Next() {
		f := Fact{UserID: userID}
		if err := rows.Scan(&f.ShowID, &f.SeasonNumber, &f.EpisodeNumber, &f.WatchedAt); err != nil {
			return nil, fmt.Errorf("scan watched episode: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListShow(ctx context.Context, userID string, showID int64) ([]Fact, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	q := `SELECT season_number, episode_number, watched_at
	      FROM watched_episodes WHERE user_id=$1 AND show_id=$2
	      ORDER BY watched_at DESC, season_number DESC, episode_number DESC`

	rows, err := s.db.Query(ctx, q, userID, showID)
	if err != nil {
		return nil, fmt.Errorf("list show watched: %w", err)
	}
	defer rows.Close()

	var out []Fact
	for rows.Next() {
		f := Fact{UserID: userID, ShowID: showID}
		if err := rows.Scan(&f.SeasonNumber, &f.EpisodeNumber, &f.WatchedAt); err != nil {
			return nil, fmt.Errorf("scan watched episode: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
