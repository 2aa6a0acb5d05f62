// README: Registry of in-flight auctions keyed by request ID.
package auction

import (
	"sync"

	"relay/internal/types"
)

// Registry tracks the coordinators of non-terminal auctions so inbound
// responses can be routed and duplicate starts refused. Point-wise
// mutual exclusion only; auctions for distinct requests never contend
// beyond the map access itself.
type Registry struct {
	mu     sync.Mutex
	active map[types.ID]*Coordinator
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[types.ID]*Coordinator)}
}

func (r *Registry) Register(requestID types.ID, c *Coordinator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[requestID]; ok {
		return ErrDuplicateAuction
	}
	r.active[requestID] = c
	return nil
}

func (r *Registry) Lookup(requestID types.ID) (*Coordinator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.active[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Unregister is called only by a coordinator reaching a terminal state.
func (r *Registry) Unregister(requestID types.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, requestID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
