// README: Pickup request service; creates requests and starts their auctions.
package request

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"relay/internal/config"
	"relay/internal/modules/auction"
	"relay/internal/types"
)

// PointSource resolves a pickup point's location.
type PointSource interface {
	PointLocation(ctx context.Context, id types.ID) (types.Point, error)
}

// CandidateSource snapshots the eligible volunteers near a pickup point.
type CandidateSource interface {
	Candidates(ctx context.Context, pickup types.Point, radiusKm float64) ([]auction.Candidate, error)
}

type Service struct {
	store      *Store
	auctions   *auction.Manager
	points     PointSource
	candidates CandidateSource
	radiusKm   float64
	window     time.Duration
}

func NewService(store *Store, auctions *auction.Manager, points PointSource, candidates CandidateSource, radiusKm float64, cfg config.AuctionConfig) *Service {
	return &Service{
		store:      store,
		auctions:   auctions,
		points:     points,
		candidates: candidates,
		radiusKm:   radiusKm,
		window:     cfg.Window,
	}
}

type CreateCommand struct {
	// ID is optional; generated when empty.
	ID            types.ID
	PickupPointID types.ID
}

// Create persists a new pickup request and starts its auction with the
// volunteers currently near the pickup point.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*PickupRequest, error) {
	if cmd.PickupPointID == "" {
		return nil, ErrBadRequest
	}
	pickupLoc, err := s.points.PointLocation(ctx, cmd.PickupPointID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.candidates.Candidates(ctx, pickupLoc, s.radiusKm)
	if err != nil {
		return nil, err
	}

	id := cmd.ID
	if id == "" {
		id = newID()
	}
	now := time.Now()
	r := &PickupRequest{
		ID:            id,
		PickupPointID: cmd.PickupPointID,
		State:         auction.StateCreated,
		CreatedAt:     now,
		Deadline:      now.Add(s.window),
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}

	if _, err := s.auctions.Start(ctx, auction.StartCommand{
		RequestID:  id,
		Pickup:     pickupLoc,
		Candidates: candidates,
	}); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*PickupRequest, error) {
	return s.store.Get(ctx, id)
}

// Respond records a volunteer decision on the request's auction.
func (s *Service) Respond(ctx context.Context, requestID, volunteerID types.ID, decision auction.Decision) error {
	if requestID == "" || volunteerID == "" {
		return ErrBadRequest
	}
	return s.auctions.SubmitResponse(ctx, requestID, volunteerID, decision)
}

func (s *Service) Outcome(ctx context.Context, requestID types.ID) (auction.Outcome, error) {
	return s.auctions.Outcome(ctx, requestID)
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
