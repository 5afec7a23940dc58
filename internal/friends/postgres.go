package friends

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists friendships in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Request(ctx context.Context, userID, friendID string) error {
	if err := validatePair(userID, friendID); err != nil {
		return err
	}

	// An edge in either direction, pending or accepted, makes this a no-op.
	const q = `
INSERT INTO friendships (requester_id, addressee_id, status)
SELECT $1, $2, 'pending'
WHERE NOT EXISTS (
  SELECT 1 FROM friendships
  WHERE (requester_id=$1 AND addressee_id=$2)
     OR (requester_id=$2 AND addressee_id=$1))`

	if _, err := s.pool.Exec(ctx, q, userID, friendID); err != nil {
		return fmt.Errorf("request friendship: %w", err)
	}
	return nil
}

func (s *PostgresStore) Accept(ctx context.Context, userID, requesterID string) error {
	if err := validatePair(userID, requesterID); err != nil {
		return err
	}

	const q = `UPDATE friendships SET status='accepted', updated_at=now()
	           WHERE requester_id=$2 AND addressee_id=$1 AND status='pending'`

	ct, err := s.pool.Exec(ctx, q, userID, requesterID)
	if err != nil {
		return fmt.Errorf("accept friendship: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, userID, friendID string) error {
	if err := validatePair(userID, friendID); err != nil {
		return err
	}

	const q = `DELETE FROM friendships
	           WHERE (requester_id=$1 AND addressee_id=$2)
	              OR (requester_id=$2 AND addressee_id=$1)`

	ct, err := s.pool.Exec(ctx, q, userID, friendID)
	if err != nil {
		return fmt.Errorf("remove friendship: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]Friend, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	const q = `
SELECT CASE WHEN requester_id=$1 THEN addressee_id ELSE requester_id END, updated_at
FROM friendships
WHERE status='accepted' AND (requester_id=$1 OR addressee_id=$1)
ORDER BY updated_at DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	var out []Friend
	for rows.Next() {
		var f Friend
		if err := rows.Scan(&f.UserID, &f.Since); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Pending(ctx context.Context, userID string) ([]Friendship, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	const q = `SELECT requester_id, addressee_id, status, created_at, updated_at
	           FROM friendships
	           WHERE addressee_id=$1 AND status='pending'
	           ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var out []Friendship
	for rows.Next() {
		var f Friendship
		if err := rows.Scan(&f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
