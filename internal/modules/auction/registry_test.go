package auction

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"relay/internal/types"
)

func TestRegistry_DuplicateRejected(t *testing.T) {
	r := NewRegistry()
	c := &Coordinator{requestID: "req1"}

	if err := r.Register("req1", c); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register("req1", &Coordinator{}); !errors.Is(err, ErrDuplicateAuction) {
		t.Fatalf("expected ErrDuplicateAuction, got %v", err)
	}

	got, err := r.Lookup("req1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != c {
		t.Error("lookup returned a different coordinator")
	}
}

func TestRegistry_UnregisterThenReuse(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("req1", &Coordinator{}); err != nil {
		t.Fatal(err)
	}
	r.Unregister("req1")

	if _, err := r.Lookup("req1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after unregister, got %v", err)
	}
	if err := r.Register("req1", &Coordinator{}); err != nil {
		t.Fatalf("re-register after unregister: %v", err)
	}
}

// Distinct request IDs must never contend beyond the map access itself.
func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			id := types.ID(fmt.Sprintf("req%d", i))
			if err := r.Register(id, &Coordinator{}); err != nil {
				t.Errorf("register %s: %v", id, err)
				return
			}
			if _, err := r.Lookup(id); err != nil {
				t.Errorf("lookup %s: %v", id, err)
			}
			r.Unregister(id)
		}(i)
	}
	close(start)
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("registry not empty after all unregisters: %d left", r.Len())
	}
}
