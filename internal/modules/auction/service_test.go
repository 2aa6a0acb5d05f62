package auction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"relay/internal/config"
	"relay/internal/types"
)

// fakeGateway derives travel minutes from the destination latitude, so a
// candidate at Lat=15 is 15 minutes away. Deterministic and orderless.
type fakeGateway struct {
	degraded bool
	err      error
}

func (g *fakeGateway) TravelTimes(_ context.Context, _ types.Point, dests []types.Point) (Estimate, error) {
	if g.err != nil {
		return Estimate{}, g.err
	}
	est := Estimate{Minutes: make([]float64, len(dests)), Degraded: g.degraded}
	for i, d := range dests {
		est.Minutes[i] = d.Lat
	}
	return est, nil
}

type fakeNotifier struct {
	mu         sync.Mutex
	broadcasts int
	assigned   []types.ID
	unassigned int
}

func (n *fakeNotifier) BroadcastRequest(_ context.Context, _ types.ID, _ types.Point, _ []types.ID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts++
	return nil
}

func (n *fakeNotifier) NotifyAssigned(_ context.Context, _, volunteerID types.ID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assigned = append(n.assigned, volunteerID)
	return nil
}

func (n *fakeNotifier) NotifyUnassigned(_ context.Context, _ types.ID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unassigned++
	return nil
}

func (n *fakeNotifier) assignedTo() []types.ID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]types.ID(nil), n.assigned...)
}

// memStore is an in-memory OutcomeStore. failCommits makes the first N
// assignment writes fail, to exercise the retry policy.
type memStore struct {
	mu          sync.Mutex
	states      map[types.ID][]State
	outcomes    map[types.ID]Outcome
	failCommits int
}

func newMemStore() *memStore {
	return &memStore{
		states:   make(map[types.ID][]State),
		outcomes: make(map[types.ID]Outcome),
	}
}

func (s *memStore) SaveState(_ context.Context, requestID types.ID, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[requestID] = append(s.states[requestID], state)
	return nil
}

func (s *memStore) SaveOutcome(_ context.Context, o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.State == StateAssigned && s.failCommits > 0 {
		s.failCommits--
		return errors.New("storage unavailable")
	}
	s.outcomes[o.RequestID] = o
	return nil
}

func (s *memStore) GetOutcome(_ context.Context, requestID types.ID) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outcomes[requestID]
	if !ok {
		return Outcome{}, ErrNotFound
	}
	return o, nil
}

func (s *memStore) statesFor(requestID types.ID) []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]State(nil), s.states[requestID]...)
}

func testConfig() config.AuctionConfig {
	return config.AuctionConfig{Window: 100 * time.Millisecond, CommitRetries: 3}
}

func newTestManager(gw *fakeGateway, store *memStore) (*Manager, *fakeNotifier) {
	notifier := &fakeNotifier{}
	return NewManager(gw, notifier, store, testConfig()), notifier
}

func candidateAt(id types.ID, minutes, capacity, karma float64) Candidate {
	return Candidate{VolunteerID: id, Position: types.Point{Lat: minutes}, Capacity: capacity, Karma: karma}
}

func waitDone(t *testing.T, c *Coordinator) Outcome {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("auction did not reach a terminal state")
	}
	return c.Outcome()
}

func mustAccept(t *testing.T, m *Manager, requestID, volunteerID types.ID) {
	t.Helper()
	if err := m.SubmitResponse(context.Background(), requestID, volunteerID, DecisionAccept); err != nil {
		t.Fatalf("accept %s: %v", volunteerID, err)
	}
}

func TestAuction_SelectsLowestCostVolunteer(t *testing.T) {
	store := newMemStore()
	m, notifier := newTestManager(&fakeGateway{}, store)
	ctx := context.Background()

	c, err := m.Start(ctx, StartCommand{
		RequestID: "req1",
		Candidates: []Candidate{
			candidateAt("v1", 15, 200, 95),
			candidateAt("v2", 15, 100, 50),
			candidateAt("v3", 15, 50, 20),
		},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	mustAccept(t, m, "req1", "v1")
	mustAccept(t, m, "req1", "v2")
	mustAccept(t, m, "req1", "v3")

	o := waitDone(t, c)
	if o.State != StateAssigned {
		t.Fatalf("state = %s, want assigned", o.State)
	}
	if *o.VolunteerID != "v1" {
		t.Errorf("winner = %s, want v1", *o.VolunteerID)
	}
	if math.Abs(*o.Cost-2.5641) > 0.01 {
		t.Errorf("cost = %f, want ~2.5641", *o.Cost)
	}
	if got := notifier.assignedTo(); len(got) != 1 || got[0] != "v1" {
		t.Errorf("assigned notifications = %v, want [v1]", got)
	}
}

func TestAuction_FartherButBetterQualifiedWins(t *testing.T) {
	store := newMemStore()
	m, _ := newTestManager(&fakeGateway{}, store)
	ctx := context.Background()

	c, err := m.Start(ctx, StartCommand{
		RequestID: "req1",
		Candidates: []Candidate{
			candidateAt("near", 10, 50, 20),
			candidateAt("far", 30, 200, 95),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustAccept(t, m, "req1", "near")
	mustAccept(t, m, "req1", "far")

	o := waitDone(t, c)
	if o.State != StateAssigned || *o.VolunteerID != "far" {
		t.Fatalf("winner = %+v, want far", o)
	}
}

// An early accept must not short-circuit the auction: a cheaper volunteer
// responding later still wins.
func TestAuction_EarlyAcceptDoesNotShortCircuit(t *testing.T) {
	store := newMemStore()
	m, _ := newTestManager(&fakeGateway{}, store)
	ctx := context.Background()

	c, err := m.Start(ctx, StartCommand{
		RequestID: "req1",
		Candidates: []Candidate{
			candidateAt("pricey", 30, 50, 20),
			candidateAt("cheap", 5, 200, 95),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustAccept(t, m, "req1", "pricey")
	mustAccept(t, m, "req1", "cheap")

	o := waitDone(t, c)
	if *o.VolunteerID != "cheap" {
		t.Errorf("winner = %s, want cheap despite responding later", *o.VolunteerID)
	}
}

func TestAuction_TieBreakGoesToEarliestResponse(t *testing.T) {
	store := newMemStore()
	m, _ := newTestManager(&fakeGateway{}, store)
	ctx := context.Background()

	c, err := m.Start(ctx, StartCommand{
		RequestID: "req1",
		Candidates: []Candidate{
			candidateAt("v1", 15, 100, 50),
			candidateAt("v2", 15, 100, 50),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustAccept(t, m, "req1", "v2")
	mustAccept(t, m, "req1", "v1")

	o := waitDone(t, c)
	if *o.VolunteerID != "v2" {
		t.Errorf("winner = %s, want v2 (responded first)", *o.VolunteerID)
	}
}

func TestAuction_NoAcceptorsUnassigned(t *testing.T) {
	store := newMemStore()
	m, notifier := newTestManager(&fakeGateway{}, store)
	ctx := context.Background()

	c, err := m.Start(ctx, StartCommand{
		RequestID: "req1",
		Candidates: []Candidate{
			candidateAt("v1", 10, 100, 50),
			candidateAt("v2", 20, 100, 50),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	// v1 declines, v2 never answers; the deadline resolves the window.
	if err := m.SubmitResponse(ctx, "req1", "v1", DecisionDeny); err != nil {
		t.Fatalf("deny: %v", err)
	}

	o := waitDone(t, c)
	if o.State != StateUnassigned {
		t.Fatalf("state = %s, want unassigned", o.State)
	}
	if o.VolunteerID != nil {
		t.Error("unassigned outcome carries a volunteer")
	}
	notifier.mu.Lock()
	unassigned := notifier.unassigned
	notifier.mu.Unlock()
	if unassigned != 1 {
		t.Errorf("unassigned notifications = %d, want 1", unassigned)
	}
}

func TestAuction_LateResponseCannotChangeOutcome(t *testing.T) {
	store := newMemStore()
	m, _ := newTestManager(&fakeGateway{}, store)
	ctx := context.Background()

	c, err := m.Start(ctx, StartCommand{
		RequestID: "req1",
		Candidates: []Candidate{
			candidateAt("pricey", 30, 50, 20),
			candidateAt("cheap", 5, 200, 95),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustAccept(t, m, "req1", "pricey")

	first := waitDone(t, c)
	if first.State != StateAssigned || *first.VolunteerID != "pricey" {
		t.Fatalf("outcome = %+v, want pricey assigned", first)
	}

	// The cheaper volunteer is too late; the auction is gone.
	if err := m.SubmitResponse(ctx, "req1", "cheap", DecisionAccept); !errors.Is(err, ErrNotFound) {
		t.Fatalf("late submit: expected ErrNotFound, got %v", err)
	}

	// Outcome reads are idempotent after the terminal state.
	for i := 0; i < 3; i++ {
		again, err := m.Outcome(ctx, "req1")
		if err != nil {
			t.Fatalf("outcome read %d: %v", i, err)
		}
		if again.State != first.State || *again.VolunteerID != *first.VolunteerID || *again.Cost != *first.Cost {
			t.Fatalf("outcome changed on read %d: %+v vs %+v", i, again, first)
		}
	}
}

func TestAuction_DuplicateStartRejectedUntilTerminal(t *testing.T) {
	store := newMemStore()
	m, _ := newTestManager(&fakeGateway{}, store)
	ctx := context.Background()

	c, err := m.Start(ctx, StartCommand{
		RequestID:  "req1",
		Candidates: []Candidate{candidateAt("v1", 10, 100, 50)},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Start(ctx, StartCommand{
		RequestID:  "req1",
		Candidates: []Candidate{candidateAt("v1", 10, 100, 50)},
	}); !errors.Is(err, ErrDuplicateAuction) {
		t.Fatalf("expected ErrDuplicateAuction, got %v", err)
	}

	mustAccept(t, m, "req1", "v1")
	waitDone(t, c)

	c2, err := m.Start(ctx, StartCommand{
		RequestID:  "req1",
		Candidates: []Candidate{candidateAt("v1", 10, 100, 50)},
	})
	if err != nil {
		t.Fatalf("restart after terminal: %v", err)
	}
	mustAccept(t, m, "req1", "v1")
	waitDone(t, c2)
}

func TestAuction_ZeroCandidatesResolvesImmediately(t *testing.T) {
	store := newMemStore()
	m, _ := newTestManager(&fakeGateway{}, store)

	// Long window on purpose: with nobody to wait for, the auction must
	// not sit out the deadline.
	c, err := m.Start(context.Background(), StartCommand{
		RequestID: "req1",
		Window:    10 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	o := waitDone(t, c)
	if o.State != StateUnassigned {
		t.Errorf("state = %s, want unassigned", o.State)
	}
}

func TestAuction_CommitRetriesThenSucceeds(t *testing.T) {
	store := newMemStore()
	store.failCommits = 1
	m, _ := newTestManager(&fakeGateway{}, store)
	ctx := context.Background()

	c, err := m.Start(ctx, StartCommand{
		RequestID:  "req1",
		Candidates: []Candidate{candidateAt("v1", 10, 100, 50)},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustAccept(t, m, "req1", "v1")

	o := waitDone(t, c)
	if o.State != StateAssigned {
		t.Fatalf("state = %s, want assigned after retry", o.State)
	}
	persisted, err := store.GetOutcome(ctx, "req1")
	if err != nil {
		t.Fatal(err)
	}
	if persisted.State != StateAssigned {
		t.Errorf("persisted state = %s, want assigned", persisted.State)
	}
}

func TestAuction_CommitExhaustionFails(t *testing.T) {
	store := newMemStore()
	store.failCommits = 3 // matches CommitRetries
	m, notifier := newTestManager(&fakeGateway{}, store)
	ctx := context.Background()

	c, err := m.Start(ctx, StartCommand{
		RequestID:  "req1",
		Candidates: []Candidate{candidateAt("v1", 10, 100, 50)},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustAccept(t, m, "req1", "v1")

	o := waitDone(t, c)
	if o.State != StateFailed {
		t.Fatalf("state = %s, want failed", o.State)
	}
	if len(notifier.assignedTo()) != 0 {
		t.Error("winner was notified despite failed commit")
	}
	persisted, err := m.Outcome(ctx, "req1")
	if err != nil {
		t.Fatal(err)
	}
	if persisted.State != StateFailed {
		t.Errorf("persisted state = %s, want failed", persisted.State)
	}
}

func TestAuction_DegradedGatewayStillCompletes(t *testing.T) {
	store := newMemStore()
	m, _ := newTestManager(&fakeGateway{degraded: true}, store)
	ctx := context.Background()

	c, err := m.Start(ctx, StartCommand{
		RequestID:  "req1",
		Candidates: []Candidate{candidateAt("v1", 10, 100, 50)},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustAccept(t, m, "req1", "v1")

	o := waitDone(t, c)
	if o.State != StateAssigned {
		t.Errorf("state = %s, want assigned on degraded estimates", o.State)
	}
}

func TestAuction_StateTransitionsPersistedInOrder(t *testing.T) {
	store := newMemStore()
	m, _ := newTestManager(&fakeGateway{}, store)

	c, err := m.Start(context.Background(), StartCommand{
		RequestID:  "req1",
		Candidates: []Candidate{candidateAt("v1", 10, 100, 50)},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustAccept(t, m, "req1", "v1")
	waitDone(t, c)

	want := []State{StateBroadcasting, StateCollecting, StateSelecting}
	got := store.statesFor("req1")
	if len(got) != len(want) {
		t.Fatalf("persisted states = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("persisted states = %v, want %v", got, want)
		}
	}
}

func TestManager_OutcomePendingWhileCollecting(t *testing.T) {
	store := newMemStore()
	m, _ := newTestManager(&fakeGateway{}, store)
	ctx := context.Background()

	c, err := m.Start(ctx, StartCommand{
		RequestID:  "req1",
		Candidates: []Candidate{candidateAt("v1", 10, 100, 50)},
		Window:     300 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	o, err := m.Outcome(ctx, "req1")
	if err != nil {
		t.Fatalf("outcome while pending: %v", err)
	}
	if o.State.Terminal() {
		t.Errorf("state = %s before window close, want non-terminal", o.State)
	}
	waitDone(t, c)
}

func TestManager_InputValidation(t *testing.T) {
	m, _ := newTestManager(&fakeGateway{}, newMemStore())
	ctx := context.Background()

	if _, err := m.Start(ctx, StartCommand{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty request ID: expected ErrInvalidInput, got %v", err)
	}
	if _, err := m.Start(ctx, StartCommand{
		RequestID:  "req1",
		Candidates: []Candidate{candidateAt("v1", 10, 100, -150)},
	}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad karma: expected ErrInvalidInput, got %v", err)
	}
	if err := m.SubmitResponse(ctx, "req1", "v1", Decision("maybe")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad decision: expected ErrInvalidInput, got %v", err)
	}
	if err := m.SubmitResponse(ctx, "ghost", "v1", DecisionAccept); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown request: expected ErrNotFound, got %v", err)
	}
	if _, err := m.Outcome(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown outcome: expected ErrNotFound, got %v", err)
	}
	if m.Active() != 0 {
		t.Errorf("rejected starts left %d auctions registered", m.Active())
	}
}

// Simultaneous auctions for distinct requests must not interfere.
func TestManager_ConcurrentAuctionsIndependent(t *testing.T) {
	store := newMemStore()
	m, _ := newTestManager(&fakeGateway{}, store)
	ctx := context.Background()

	const n = 10
	coords := make([]*Coordinator, n)
	for i := 0; i < n; i++ {
		reqID := types.ID(fmt.Sprintf("req%d", i))
		volID := types.ID(fmt.Sprintf("v%d", i))
		c, err := m.Start(ctx, StartCommand{
			RequestID:  reqID,
			Candidates: []Candidate{candidateAt(volID, float64(5+i), 100, 50)},
		})
		if err != nil {
			t.Fatalf("start %s: %v", reqID, err)
		}
		coords[i] = c
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reqID := types.ID(fmt.Sprintf("req%d", i))
			volID := types.ID(fmt.Sprintf("v%d", i))
			if err := m.SubmitResponse(ctx, reqID, volID, DecisionAccept); err != nil {
				t.Errorf("accept %s: %v", reqID, err)
			}
		}(i)
	}
	wg.Wait()

	for i, c := range coords {
		o := waitDone(t, c)
		wantVol := types.ID(fmt.Sprintf("v%d", i))
		if o.State != StateAssigned || *o.VolunteerID != wantVol {
			t.Errorf("req%d outcome = %+v, want assigned to %s", i, o, wantVol)
		}
	}
	if m.Active() != 0 {
		t.Errorf("%d auctions still registered after completion", m.Active())
	}
}
