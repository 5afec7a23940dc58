package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists collections in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// parseCollectionID rejects ids that cannot be a collection UUID before they
// reach Postgres, where the failed uuid cast would surface as a query error
// instead of the owner-scoped not-found.
func parseCollectionID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", ErrNotFound
	}
	return u.String(), nil
}

func (s *PostgresStore) Create(ctx context.Context, userID, name string) (Collection, error) {
	if userID == "" {
		return Collection{}, ErrUserIDRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Collection{}, ErrNameRequired
	}

	const q = `INSERT INTO collections (user_id, name)
	           VALUES ($1, $2)
	           RETURNING id, created_at, updated_at`

	c := Collection{UserID: userID, Name: name}
	if err := s.pool.QueryRow(ctx, q, userID, name).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Collection{}, fmt.Errorf("create collection: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Rename(ctx context.Context, userID, collectionID, name string) (Collection, error) {
	if userID == "" {
		return Collection{}, ErrUserIDRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Collection{}, ErrNameRequired
	}
	collectionID, err := parseCollectionID(collectionID)
	if err != nil {
		return Collection{}, err
	}

	const q = `UPDATE collections SET name=$3, updated_at=now()
	           WHERE id=$2 AND user_id=$1
	           RETURNING id, created_at, updated_at`

	c := Collection{UserID: userID, Name: name}
	err = s.pool.QueryRow(ctx, q, userID, collectionID, name).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Collection{}, ErrNotFound
		}
		return Collection{}, fmt.Errorf("rename collection: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID, collectionID string) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	collectionID, err := parseCollectionID(collectionID)
	if err != nil {
		return err
	}
	ct, err := s.pool.Exec(ctx,
		`DELETE FROM collections WHERE id=$2 AND user_id=$1`, userID, collectionID)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]Collection, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	const q = `SELECT id, name, created_at, updated_at
	           FROM collections WHERE user_id=$1
	           ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		c := Collection{UserID: userID}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, userID, collectionID string) (Collection, error) {
	if userID == "" {
		return Collection{}, ErrUserIDRequired
	}
	collectionID, err := parseCollectionID(collectionID)
	if err != nil {
		return Collection{}, err
	}

	const q = `SELECT id, name, created_at, updated_at
	           FROM collections WHERE id=$2 AND user_id=$1`

	c := Collection{UserID: userID}
	err = s.pool.QueryRow(ctx, q, userID, collectionID).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Collection{}, ErrNotFound
		}
		return Collection{}, fmt.Errorf("get collection: %w", err)
	}

	const itemsQ = `SELECT media_type, tmdb_id, added_at
	                FROM collection_items WHERE collection_id=$1
	                ORDER BY added_at DESC, tmdb_id DESC`

	rows, err := s.pool.Query(ctx, itemsQ, c.ID)
	if err != nil {
		return Collection{}, fmt.Errorf("list collection items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.MediaType, &it.TMDBID, &it.AddedAt); err != nil {
			return Collection{}, fmt.Errorf("scan collection item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func (s *PostgresStore) AddItem(ctx context.Context, userID, collectionID string, item Item) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	collectionID, err := parseCollectionID(collectionID)
	if err != nil {
		return err
	}

	// Ownership check rides in the INSERT's subquery: no owned collection,
	// no row to insert into.
	const q = `
INSERT INTO collection_items (collection_id, media_type, tmdb_id)
SELECT id, $3, $4 FROM collections WHERE id=$2 AND user_id=$1
ON CONFLICT (collection_id, media_type, tmdb_id) DO NOTHING`

	ct, err := s.pool.Exec(ctx, q, userID, collectionID, item.MediaType, item.TMDBID)
	if err != nil {
		return fmt.Errorf("add collection item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if _, err := s.Get(ctx, userID, collectionID); err != nil {
			return err
		}
		return ErrDuplicateItem
	}
	return nil
}

func (s *PostgresStore) RemoveItem(ctx context.Context, userID, collectionID, mediaType string, tmdbID int64) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	collectionID, err := parseCollectionID(collectionID)
	if err != nil {
		return err
	}

	const q = `
DELETE FROM collection_items
WHERE collection_id IN (SELECT id FROM collections WHERE id=$2 AND user_id=$1)
  AND media_type=$3 AND tmdb_id=$4`

	ct, err := s.pool.Exec(ctx, q, userID, collectionID, mediaType, tmdbID)
	if err != nil {
		return fmt.Errorf("remove collection item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
