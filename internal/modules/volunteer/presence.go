// README: Volunteer presence store backed by Redis GEO.
package volunteer

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"relay/internal/types"
)

const presenceGeoKey = "relay:volunteers:positions"

// Presence tracks live volunteer locations for eligible-candidate
// lookup at auction start.
type Presence struct {
	redis *redis.Client
}

func NewPresence(redis *redis.Client) *Presence {
	return &Presence{redis: redis}
}

func (p *Presence) UpdateLocation(ctx context.Context, id types.ID, pos types.Point) error {
	err := p.redis.GeoAdd(ctx, presenceGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
	if err != nil {
		return fmt.Errorf("presence.UpdateLocation: %w", err)
	}
	return nil
}

func (p *Presence) Remove(ctx context.Context, id types.ID) error {
	return p.redis.ZRem(ctx, presenceGeoKey, string(id)).Err()
}

// Location returns the last reported position, and whether one exists.
func (p *Presence) Location(ctx context.Context, id types.ID) (types.Point, bool, error) {
	pos, err := p.redis.GeoPos(ctx, presenceGeoKey, string(id)).Result()
	if err != nil {
		return types.Point{}, false, fmt.Errorf("presence.Location: %w", err)
	}
	if len(pos) == 0 || pos[0] == nil {
		return types.Point{}, false, nil
	}
	return types.Point{Lat: pos[0].Latitude, Lng: pos[0].Longitude}, true, nil
}

// Nearby returns volunteer IDs within radiusKm of p, closest first.
func (p *Presence) Nearby(ctx context.Context, center types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := p.redis.GeoSearch(ctx, presenceGeoKey, &redis.GeoSearchQuery{
		Longitude:  center.Lng,
		Latitude:   center.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("presence.Nearby: %w", err)
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}
