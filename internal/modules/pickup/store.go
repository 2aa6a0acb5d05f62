// README: Pickup point store backed by PostgreSQL.
package pickup

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

func (s *Store) UpsertPoint(ctx context.Context, p *PickupPoint) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO pickup_points (id, name, lat, lng)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE
        SET name = EXCLUDED.name, lat = EXCLUDED.lat, lng = EXCLUDED.lng`,
		string(p.ID), p.Name, p.Location.Lat, p.Location.Lng,
	)
	if err != nil {
		return fmt.Errorf("store.UpsertPoint: %w", err)
	}
	return nil
}

func (s *Store) GetPoint(ctx context.Context, id types.ID) (*PickupPoint, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, name, lat, lng FROM pickup_points WHERE id = $1`, string(id),
	)
	var p PickupPoint
	err := row.Scan(&p.ID, &p.Name, &p.Location.Lat, &p.Location.Lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetPoint: %w", err)
	}
	return &p, nil
}

func (s *Store) UpsertVariant(ctx context.Context, v *ItemVariant) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO item_variants (id, name, volume)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE
        SET name = EXCLUDED.name, volume = EXCLUDED.volume`,
		string(v.ID), v.Name, v.Volume,
	)
	if err != nil {
		return fmt.Errorf("store.UpsertVariant: %w", err)
	}
	return nil
}

// SetInventory records the quantity of one item variant at a point.
// Zero removes the row.
func (s *Store) SetInventory(ctx context.Context, pointID, variantID types.ID, quantity int) error {
	if quantity == 0 {
		_, err := s.db.Exec(ctx, `
            DELETE FROM items_at_pickup_point
            WHERE pickup_point_id = $1 AND item_variant_id = $2`,
			string(pointID), string(variantID),
		)
		return err
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO items_at_pickup_point (pickup_point_id, item_variant_id, quantity)
        VALUES ($1, $2, $3)
        ON CONFLICT (pickup_point_id, item_variant_id) DO UPDATE
        SET quantity = EXCLUDED.quantity`,
		string(pointID), string(variantID), quantity,
	)
	if err != nil {
		return fmt.Errorf("store.SetInventory: %w", err)
	}
	return nil
}

func (s *Store) Inventory(ctx context.Context, pointID types.ID) ([]InventoryEntry, error) {
	rows, err := s.db.Query(ctx, `
        SELECT item_variant_id, quantity
        FROM items_at_pickup_point
        WHERE pickup_point_id = $1`, string(pointID),
	)
	if err != nil {
		return nil, fmt.Errorf("store.Inventory: %w", err)
	}
	defer rows.Close()

	var out []InventoryEntry
	for rows.Next() {
		var e InventoryEntry
		if err := rows.Scan(&e.ItemVariantID, &e.Quantity); err != nil {
			return nil, fmt.Errorf("store.Inventory scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.Inventory rows: %w", err)
	}
	return out, nil
}
