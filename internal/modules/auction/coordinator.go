// README: Auction coordinator; runs one request's broadcast-collect-select-commit lifecycle.
package auction

import (
	"context"
	"log"
	"sync"
	"time"

	"relay/internal/types"
)

// Coordinator owns a single auction from start to terminal state. It is
// the only writer of the auction's state; responses arrive concurrently
// through the collector.
type Coordinator struct {
	requestID  types.ID
	pickup     types.Point
	candidates map[types.ID]Candidate
	collector  *Collector
	window     time.Duration

	gateway  DistanceEstimator
	notifier Notifier
	store    OutcomeStore
	registry *Registry
	retries  int

	mu      sync.Mutex
	outcome Outcome
	doneCh  chan struct{}
}

func newCoordinator(requestID types.ID, pickup types.Point, candidates []Candidate, window time.Duration, deps managerDeps) *Coordinator {
	byID := make(map[types.ID]Candidate, len(candidates))
	for _, cand := range candidates {
		byID[cand.VolunteerID] = cand
	}
	return &Coordinator{
		requestID:  requestID,
		pickup:     pickup,
		candidates: byID,
		collector:  NewCollector(candidates),
		window:     window,
		gateway:    deps.gateway,
		notifier:   deps.notifier,
		store:      deps.store,
		registry:   deps.registry,
		retries:    deps.retries,
		outcome:    Outcome{RequestID: requestID, State: StateCreated},
		doneCh:     make(chan struct{}),
	}
}

// Done is closed once the auction has reached a terminal state.
func (c *Coordinator) Done() <-chan struct{} {
	return c.doneCh
}

// Submit routes a volunteer decision into the collection window.
func (c *Coordinator) Submit(volunteerID types.ID, decision Decision) error {
	return c.collector.Submit(volunteerID, decision, time.Now())
}

// Outcome returns a snapshot of the auction's current result.
func (c *Coordinator) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Run drives the state machine to a terminal state and unregisters the
// auction. It is started on its own goroutine by the manager.
func (c *Coordinator) Run(ctx context.Context) Outcome {
	defer close(c.doneCh)
	defer c.registry.Unregister(c.requestID)

	c.transition(ctx, StateBroadcasting)
	c.broadcast(ctx)

	c.transition(ctx, StateCollecting)
	c.collect(ctx)

	c.transition(ctx, StateSelecting)

	accepted := c.acceptedCandidates()
	if len(accepted) == 0 {
		log.Printf("auction %s: no volunteers accepted", c.requestID)
		c.finish(ctx, Outcome{RequestID: c.requestID, State: StateUnassigned})
		c.notify(ctx, c.notifier.NotifyUnassigned, "unassigned")
		return c.Outcome()
	}

	winner, cost, err := c.selectWinner(ctx, accepted)
	if err != nil {
		c.finish(ctx, Outcome{RequestID: c.requestID, State: StateFailed, Reason: err.Error()})
		return c.Outcome()
	}

	if err := c.commit(ctx, winner, cost); err != nil {
		// The decision stands even though the write failed; keep it in
		// the log for manual reconciliation.
		log.Printf("auction %s: commit failed after %d attempts, decided winner was %s (cost %.2f): %v",
			c.requestID, c.retries, winner, cost, err)
		c.finish(ctx, Outcome{RequestID: c.requestID, State: StateFailed, Reason: ErrCommitFailed.Error()})
		return c.Outcome()
	}

	now := time.Now()
	c.setOutcome(Outcome{
		RequestID:   c.requestID,
		State:       StateAssigned,
		VolunteerID: &winner,
		Cost:        &cost,
		ClosedAt:    &now,
	})
	if err := c.notifier.NotifyAssigned(ctx, c.requestID, winner); err != nil {
		log.Printf("auction %s: notify winner %s: %v", c.requestID, winner, err)
	}
	log.Printf("auction %s: assigned to %s (cost %.2f)", c.requestID, winner, cost)
	return c.Outcome()
}

// broadcast is fire-and-forget; delivery problems never stall the auction.
func (c *Coordinator) broadcast(ctx context.Context) {
	ids := make([]types.ID, 0, len(c.candidates))
	for id := range c.candidates {
		ids = append(ids, id)
	}
	if err := c.notifier.BroadcastRequest(ctx, c.requestID, c.pickup, ids); err != nil {
		log.Printf("auction %s: broadcast: %v", c.requestID, err)
	}
}

// collect waits until every expected volunteer responded or the window
// deadline fires, then freezes the collector. The freeze is atomic with
// respect to Submit.
func (c *Coordinator) collect(ctx context.Context) {
	timer := time.NewTimer(c.window)
	defer timer.Stop()

	select {
	case <-c.collector.Done():
	case <-timer.C:
	case <-ctx.Done():
	}
	c.collector.Close()
}

func (c *Coordinator) acceptedCandidates() []Response {
	var accepted []Response
	for _, r := range c.collector.Responses() {
		if r.Decision == DecisionAccept {
			accepted = append(accepted, r)
		}
	}
	return accepted
}

// selectWinner queries the gateway once for all accepting volunteers,
// scores them, and picks the minimum cost. Ties go to the earliest
// recorded response.
func (c *Coordinator) selectWinner(ctx context.Context, accepted []Response) (types.ID, float64, error) {
	dests := make([]types.Point, len(accepted))
	for i, r := range accepted {
		dests[i] = c.candidates[r.VolunteerID].Position
	}

	est, err := c.gateway.TravelTimes(ctx, c.pickup, dests)
	if err != nil {
		return "", 0, err
	}
	if est.Degraded {
		log.Printf("auction %s: distance gateway degraded, using local estimates", c.requestID)
	}

	var best *CostEntry
	for i, r := range accepted {
		cand := c.candidates[r.VolunteerID]
		cost, err := Cost(est.Minutes[i], cand.Capacity, cand.Karma)
		if err != nil {
			log.Printf("auction %s: skipping %s: %v", c.requestID, r.VolunteerID, err)
			continue
		}
		entry := CostEntry{VolunteerID: r.VolunteerID, TravelMinutes: est.Minutes[i], Cost: cost, seq: r.seq}
		if best == nil || entry.Cost < best.Cost || (entry.Cost == best.Cost && entry.seq < best.seq) {
			best = &entry
		}
	}
	if best == nil {
		return "", 0, ErrInvalidInput
	}
	return best.VolunteerID, best.Cost, nil
}

// commit persists the assignment with bounded retries.
func (c *Coordinator) commit(ctx context.Context, winner types.ID, cost float64) error {
	now := time.Now()
	o := Outcome{
		RequestID:   c.requestID,
		State:       StateAssigned,
		VolunteerID: &winner,
		Cost:        &cost,
		ClosedAt:    &now,
	}
	var err error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(commitBackoff)
		}
		if err = c.store.SaveOutcome(ctx, o); err == nil {
			return nil
		}
		log.Printf("auction %s: commit attempt %d: %v", c.requestID, attempt+1, err)
	}
	return err
}

const commitBackoff = 100 * time.Millisecond

// transition moves to a non-terminal state and persists it best-effort.
func (c *Coordinator) transition(ctx context.Context, to State) {
	c.mu.Lock()
	from := c.outcome.State
	if !CanTransition(from, to) {
		c.mu.Unlock()
		log.Printf("auction %s: refused transition %s -> %s", c.requestID, from, to)
		return
	}
	c.outcome.State = to
	c.mu.Unlock()

	if err := c.store.SaveState(ctx, c.requestID, to); err != nil {
		log.Printf("auction %s: persist state %s: %v", c.requestID, to, err)
	}
}

// finish records a terminal outcome and persists it best-effort.
func (c *Coordinator) finish(ctx context.Context, o Outcome) {
	if o.ClosedAt == nil {
		now := time.Now()
		o.ClosedAt = &now
	}
	c.setOutcome(o)
	if err := c.store.SaveOutcome(ctx, o); err != nil {
		log.Printf("auction %s: persist outcome %s: %v", c.requestID, o.State, err)
	}
}

func (c *Coordinator) setOutcome(o Outcome) {
	c.mu.Lock()
	c.outcome = o
	c.mu.Unlock()
}

func (c *Coordinator) notify(ctx context.Context, fn func(context.Context, types.ID) error, kind string) {
	if err := fn(ctx, c.requestID); err != nil {
		log.Printf("auction %s: notify %s: %v", c.requestID, kind, err)
	}
}
