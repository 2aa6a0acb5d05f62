// README: Pickup point service (CRUD plus inventory).
package pickup

import (
	"context"

	"relay/internal/types"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) UpsertPoint(ctx context.Context, p *PickupPoint) error {
	if p.ID == "" || p.Name == "" {
		return ErrBadRequest
	}
	return s.store.UpsertPoint(ctx, p)
}

func (s *Service) GetPoint(ctx context.Context, id types.ID) (*PickupPoint, error) {
	return s.store.GetPoint(ctx, id)
}

// PointLocation resolves just the coordinates of a point; the request
// module uses it as its PointSource.
func (s *Service) PointLocation(ctx context.Context, id types.ID) (types.Point, error) {
	p, err := s.store.GetPoint(ctx, id)
	if err != nil {
		return types.Point{}, err
	}
	return p.Location, nil
}

func (s *Service) UpsertVariant(ctx context.Context, v *ItemVariant) error {
	if v.ID == "" || v.Name == "" || v.Volume < 0 {
		return ErrBadRequest
	}
	return s.store.UpsertVariant(ctx, v)
}

func (s *Service) SetInventory(ctx context.Context, pointID, variantID types.ID, quantity int) error {
	if quantity < 0 {
		return ErrBadRequest
	}
	if _, err := s.store.GetPoint(ctx, pointID); err != nil {
		return err
	}
	return s.store.SetInventory(ctx, pointID, variantID, quantity)
}

func (s *Service) Inventory(ctx context.Context, pointID types.ID) ([]InventoryEntry, error) {
	if _, err := s.store.GetPoint(ctx, pointID); err != nil {
		return nil, err
	}
	return s.store.Inventory(ctx, pointID)
}
