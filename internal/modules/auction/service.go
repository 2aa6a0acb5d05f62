// README: Auction manager; entry points for starting auctions and routing responses.
package auction

import (
	"context"
	"time"

	"relay/internal/config"
	"relay/internal/types"
)

// Estimate is a travel-time vector for one origin and N destinations,
// in input order. Degraded marks locally computed fallback values.
type Estimate struct {
	Minutes  []float64
	Degraded bool
}

type DistanceEstimator interface {
	TravelTimes(ctx context.Context, origin types.Point, dests []types.Point) (Estimate, error)
}

type Notifier interface {
	BroadcastRequest(ctx context.Context, requestID types.ID, pickup types.Point, volunteers []types.ID) error
	NotifyAssigned(ctx context.Context, requestID, volunteerID types.ID) error
	NotifyUnassigned(ctx context.Context, requestID types.ID) error
}

// OutcomeStore persists state transitions and terminal outcomes. Reads
// serve Outcome lookups after the auction has left the registry.
type OutcomeStore interface {
	SaveState(ctx context.Context, requestID types.ID, state State) error
	SaveOutcome(ctx context.Context, o Outcome) error
	GetOutcome(ctx context.Context, requestID types.ID) (Outcome, error)
}

type managerDeps struct {
	gateway  DistanceEstimator
	notifier Notifier
	store    OutcomeStore
	registry *Registry
	retries  int
}

// Manager is the process-wide entry point for the auction engine. One
// instance is constructed at startup and shared by all callers.
type Manager struct {
	deps managerDeps
	cfg  config.AuctionConfig
}

func NewManager(gateway DistanceEstimator, notifier Notifier, store OutcomeStore, cfg config.AuctionConfig) *Manager {
	retries := cfg.CommitRetries
	if retries < 1 {
		retries = 1
	}
	return &Manager{
		deps: managerDeps{
			gateway:  gateway,
			notifier: notifier,
			store:    store,
			registry: NewRegistry(),
			retries:  retries,
		},
		cfg: cfg,
	}
}

type StartCommand struct {
	RequestID  types.ID
	Pickup     types.Point
	Candidates []Candidate
	// Window overrides the configured collection window when positive.
	Window time.Duration
}

// Start registers and launches an auction. Rejects a request ID that is
// already running a non-terminal auction. Input validation happens
// before registration so a bad command leaves no trace.
func (m *Manager) Start(ctx context.Context, cmd StartCommand) (*Coordinator, error) {
	if cmd.RequestID == "" {
		return nil, ErrInvalidInput
	}
	for _, cand := range cmd.Candidates {
		if cand.VolunteerID == "" || cand.Capacity < 0 || cand.Karma <= -100 {
			return nil, ErrInvalidInput
		}
	}

	window := cmd.Window
	if window <= 0 {
		window = m.cfg.Window
	}

	c := newCoordinator(cmd.RequestID, cmd.Pickup, cmd.Candidates, window, m.deps)
	if err := m.deps.registry.Register(cmd.RequestID, c); err != nil {
		return nil, err
	}

	// The auction must run to completion even if the caller's request
	// context ends first.
	go c.Run(context.WithoutCancel(ctx))
	return c, nil
}

// SubmitResponse routes a volunteer decision to the owning auction.
func (m *Manager) SubmitResponse(ctx context.Context, requestID, volunteerID types.ID, decision Decision) error {
	if decision != DecisionAccept && decision != DecisionDeny {
		return ErrInvalidInput
	}
	c, err := m.deps.registry.Lookup(requestID)
	if err != nil {
		return err
	}
	return c.Submit(volunteerID, decision)
}

// Outcome reports the auction result: the live snapshot while the
// auction is in flight, the persisted record once it has closed.
func (m *Manager) Outcome(ctx context.Context, requestID types.ID) (Outcome, error) {
	if c, err := m.deps.registry.Lookup(requestID); err == nil {
		return c.Outcome(), nil
	}
	return m.deps.store.GetOutcome(ctx, requestID)
}

// Active reports how many auctions are currently in flight.
func (m *Manager) Active() int {
	return m.deps.registry.Len()
}
