package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists reviews in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Upsert(ctx context.Context, r Review) (Review, error) {
	if err := validate(r); err != nil {
		return Review{}, err
	}

	const q = `
INSERT INTO reviews (user_id, media_type, tmdb_id, score, body)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, media_type, tmdb_id)
DO UPDATE SET score = EXCLUDED.score, body = EXCLUDED.body, updated_at = now()
RETURNING id, created_at, updated_at`

	out := r
	err := s.pool.QueryRow(ctx, q, r.UserID, r.MediaType, r.TMDBID, r.Score, r.Body).
		Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return Review{}, fmt.Errorf("upsert review: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID, mediaType string, tmdbID int64) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	const q = `DELETE FROM reviews WHERE user_id=$1 AND media_type=$2 AND tmdb_id=$3`
	ct, err := s.pool.Exec(ctx, q, userID, mediaType, tmdbID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListForTitle(ctx context.Context, mediaType string, tmdbID int64, limit int, cursor string) ([]Review, string, error) {
	if err := ValidateMediaType(mediaType); err != nil {
		return nil, "", err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := `SELECT id, user_id, score, body, created_at, updated_at
	      FROM reviews WHERE media_type=$1 AND tmdb_id=$2`
	args := []any{mediaType, tmdbID}

	if cursor != "" {
		at, id, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		q += ` AND (created_at, id) < ($3, $4)`
		args = append(args, at, id)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d`, limit+1)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, "", fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		r := Review{MediaType: mediaType, TMDBID: tmdbID}
		if err := rows.Scan(&r.ID, &r.UserID, &r.Score, &r.Body, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, "", fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) > limit {
		out = out[:limit]
		last := out[len(out)-1]
		next = encodeCursor(last.CreatedAt, last.ID)
	}
	return out, next, nil
}

func (s *PostgresStore) GetSummary(ctx context.Context, mediaType string, tmdbID int64) (Summary, error) {
	if err := ValidateMediaType(mediaType); err != nil {
		return Summary{}, err
	}

	const q = `SELECT COALESCE(AVG(score), 0), COUNT(*)
	           FROM reviews WHERE media_type=$1 AND tmdb_id=$2`

	sum := Summary{MediaType: mediaType, TMDBID: tmdbID}
	err := s.pool.QueryRow(ctx, q, mediaType, tmdbID).Scan(&sum.AverageScore, &sum.TotalReviews)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Summary{}, fmt.Errorf("review summary: %w", err)
	}
	return sum, nil
}
