// README: Response collector; gathers volunteer decisions until all in or frozen.
package auction

import (
	"sort"
	"sync"
	"time"

	"relay/internal/types"
)

// Collector is the response window for one auction. It accepts at most
// one decision per expected volunteer and freezes atomically, either
// when every expected volunteer has responded or when the coordinator
// closes it at the deadline. Submissions after the freeze are rejected
// with ErrLateResponse and can never alter the recorded set.
type Collector struct {
	mu        sync.Mutex
	expected  map[types.ID]struct{}
	responses map[types.ID]Response
	nextSeq   int
	closed    bool
	done      chan struct{}
}

func NewCollector(expected []Candidate) *Collector {
	c := &Collector{
		expected:  make(map[types.ID]struct{}, len(expected)),
		responses: make(map[types.ID]Response, len(expected)),
		done:      make(chan struct{}),
	}
	for _, cand := range expected {
		c.expected[cand.VolunteerID] = struct{}{}
	}
	// Nobody to wait for: the window is born frozen.
	if len(c.expected) == 0 {
		c.closed = true
		close(c.done)
	}
	return c
}

// Submit records a decision. First response per volunteer wins; later
// ones are rejected so the earliest-response tie-break stays stable.
func (c *Collector) Submit(volunteerID types.ID, decision Decision, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrLateResponse
	}
	if _, ok := c.expected[volunteerID]; !ok {
		return ErrNotFound
	}
	if _, ok := c.responses[volunteerID]; ok {
		return ErrAlreadyResponded
	}

	c.responses[volunteerID] = Response{
		VolunteerID: volunteerID,
		Decision:    decision,
		ReceivedAt:  now,
		seq:         c.nextSeq,
	}
	c.nextSeq++

	if len(c.responses) == len(c.expected) {
		c.freezeLocked()
	}
	return nil
}

// Close freezes the window. Idempotent; called by the coordinator when
// the deadline fires.
func (c *Collector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freezeLocked()
}

func (c *Collector) freezeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// Done is closed once every expected volunteer has responded or the
// window was frozen. The completion signal the coordinator waits on.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

// Responses returns the recorded decisions in arrival order. Volunteers
// who never responded are absent (implicit deny).
func (c *Collector) Responses() []Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Response, 0, len(c.responses))
	for _, r := range c.responses {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
