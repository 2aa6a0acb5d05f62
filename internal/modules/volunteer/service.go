// README: Volunteer service; profiles, presence, and auction candidate snapshots.
package volunteer

import (
	"context"

	"relay/internal/modules/auction"
	"relay/internal/types"
)

type Service struct {
	store    *Store
	presence *Presence
}

func NewService(store *Store, presence *Presence) *Service {
	return &Service{store: store, presence: presence}
}

func (s *Service) Upsert(ctx context.Context, v *Volunteer) error {
	if v.ID == "" || v.Name == "" {
		return ErrBadRequest
	}
	if v.MaxVolume < 0 || v.Karma <= -100 {
		return ErrBadRequest
	}
	return s.store.Upsert(ctx, v)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Volunteer, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) UpdateLocation(ctx context.Context, id types.ID, pos types.Point) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.presence.UpdateLocation(ctx, id, pos)
}

func (s *Service) LookupAPIKey(ctx context.Context, keyHash string) (types.ID, error) {
	return s.store.LookupAPIKey(ctx, keyHash)
}

// Candidates snapshots the volunteers near the pickup point as immutable
// auction candidates. Volunteers with a live position but no profile row
// are skipped.
func (s *Service) Candidates(ctx context.Context, pickup types.Point, radiusKm float64) ([]auction.Candidate, error) {
	ids, err := s.presence.Nearby(ctx, pickup, radiusKm)
	if err != nil {
		return nil, err
	}
	profiles, err := s.store.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]auction.Candidate, 0, len(ids))
	for _, id := range ids {
		prof, ok := profiles[id]
		if !ok {
			continue
		}
		pos, ok, err := s.presence.Location(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		candidates = append(candidates, auction.Candidate{
			VolunteerID: id,
			Position:    pos,
			Capacity:    prof.MaxVolume,
			Karma:       prof.Karma,
		})
	}
	return candidates, nil
}
