// README: Volunteer store backed by PostgreSQL.
package volunteer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"relay/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Upsert(ctx context.Context, v *Volunteer) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO volunteers (id, name, karma, max_volume)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE
        SET name = EXCLUDED.name,
            karma = EXCLUDED.karma,
            max_volume = EXCLUDED.max_volume`,
		string(v.ID), v.Name, v.Karma, v.MaxVolume,
	)
	if err != nil {
		return fmt.Errorf("store.Upsert: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Volunteer, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, name, karma, max_volume
        FROM volunteers
        WHERE id = $1`, string(id),
	)
	var v Volunteer
	err := row.Scan(&v.ID, &v.Name, &v.Karma, &v.MaxVolume)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store.Get: %w", err)
	}
	return &v, nil
}

// GetMany fetches profiles for the given IDs; missing IDs are skipped.
func (s *Store) GetMany(ctx context.Context, ids []types.ID) (map[types.ID]*Volunteer, error) {
	if len(ids) == 0 {
		return map[types.ID]*Volunteer{}, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	rows, err := s.db.Query(ctx, `
        SELECT id, name, karma, max_volume
        FROM volunteers
        WHERE id = ANY($1)`, raw,
	)
	if err != nil {
		return nil, fmt.Errorf("store.GetMany: %w", err)
	}
	defer rows.Close()

	out := make(map[types.ID]*Volunteer, len(ids))
	for rows.Next() {
		var v Volunteer
		if err := rows.Scan(&v.ID, &v.Name, &v.Karma, &v.MaxVolume); err != nil {
			return nil, fmt.Errorf("store.GetMany scan: %w", err)
		}
		out[v.ID] = &v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.GetMany rows: %w", err)
	}
	return out, nil
}

// LookupAPIKey returns the volunteer owning the given API key hash.
// Used by the auth middleware.
func (s *Store) LookupAPIKey(ctx context.Context, keyHash string) (types.ID, error) {
	row := s.db.QueryRow(ctx, `
        SELECT user_id FROM api_keys WHERE key_hash = $1`, keyHash,
	)
	var id string
	err := row.Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store.LookupAPIKey: %w", err)
	}
	return types.ID(id), nil
}
