// README: Distance gateway; batched Google Maps matrix with great-circle fallback.
package maps

import (
	"context"
	"fmt"
	"log"

	"googlemaps.github.io/maps"

	"relay/internal/modules/auction"
	"relay/internal/types"
)

// DistanceService implements auction.DistanceEstimator against the
// Google Maps Distance Matrix API. Provider failures never surface to
// the caller: every path degrades to a great-circle estimate at an
// assumed average speed, so auctions always complete.
type DistanceService struct {
	client   *maps.Client
	speedKmh float64
}

// NewDistanceService creates the gateway. An empty API key is allowed
// and puts the service in fallback-only mode.
func NewDistanceService(apiKey string, fallbackSpeedKmh float64) (*DistanceService, error) {
	s := &DistanceService{speedKmh: fallbackSpeedKmh}
	if s.speedKmh <= 0 {
		s.speedKmh = 40.0
	}
	if apiKey == "" {
		return s, nil
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	s.client = client
	return s, nil
}

// TravelTimes returns driving minutes from origin to each destination,
// preserving input order. One batched provider call per auction.
func (s *DistanceService) TravelTimes(ctx context.Context, origin types.Point, dests []types.Point) (auction.Estimate, error) {
	if len(dests) == 0 {
		return auction.Estimate{}, nil
	}
	if s.client == nil {
		return s.fallback(origin, dests), nil
	}

	r := &maps.DistanceMatrixRequest{
		Origins:      []string{formatPoint(origin)},
		Destinations: make([]string, len(dests)),
		Mode:         maps.TravelModeDriving,
	}
	for i, d := range dests {
		r.Destinations[i] = formatPoint(d)
	}

	resp, err := s.client.DistanceMatrix(ctx, r)
	if err != nil {
		log.Printf("distance matrix request failed, degrading to local estimate: %v", err)
		return s.fallback(origin, dests), nil
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) != len(dests) {
		log.Printf("distance matrix returned malformed response, degrading to local estimate")
		return s.fallback(origin, dests), nil
	}

	est := auction.Estimate{Minutes: make([]float64, len(dests))}
	for i, el := range resp.Rows[0].Elements {
		if el.Status != "OK" {
			est.Minutes[i] = s.estimateMinutes(origin, dests[i])
			est.Degraded = true
			continue
		}
		est.Minutes[i] = el.Duration.Minutes()
	}
	return est, nil
}

func (s *DistanceService) fallback(origin types.Point, dests []types.Point) auction.Estimate {
	est := auction.Estimate{Minutes: make([]float64, len(dests)), Degraded: true}
	for i, d := range dests {
		est.Minutes[i] = s.estimateMinutes(origin, d)
	}
	return est
}

func (s *DistanceService) estimateMinutes(a, b types.Point) float64 {
	return haversineKm(a.Lat, a.Lng, b.Lat, b.Lng) / s.speedKmh * 60.0
}

func formatPoint(p types.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
