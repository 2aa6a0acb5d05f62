// README: Auction aggregate, state definitions, and shared errors.
package auction

import (
	"errors"
	"time"

	"relay/internal/types"
)

type State string

const (
	StateCreated      State = "created"
	StateBroadcasting State = "broadcasting"
	StateCollecting   State = "collecting"
	StateSelecting    State = "selecting"
	StateAssigned     State = "assigned"
	StateUnassigned   State = "unassigned"
	StateFailed       State = "failed"
)

// Terminal reports whether s is one of the immutable end states.
func (s State) Terminal() bool {
	return s == StateAssigned || s == StateUnassigned || s == StateFailed
}

// AllowedTransitions represents the auction state flow (diagram) as code.
var AllowedTransitions = map[State][]State{
	StateCreated:      {StateBroadcasting},
	StateBroadcasting: {StateCollecting},
	StateCollecting:   {StateSelecting},
	StateSelecting:    {StateAssigned, StateUnassigned, StateFailed},
}

func CanTransition(from, to State) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionDeny   Decision = "deny"
)

// Candidate is an immutable snapshot of a volunteer taken at auction
// start. Later profile or location changes do not affect an in-flight
// auction.
type Candidate struct {
	VolunteerID types.ID
	Position    types.Point
	Capacity    float64
	Karma       float64
}

type Response struct {
	VolunteerID types.ID
	Decision    Decision
	ReceivedAt  time.Time
	// seq is the arrival order within the window, used for the
	// lowest-cost tie-break.
	seq int
}

// CostEntry is derived during selection and consumed immediately.
type CostEntry struct {
	VolunteerID   types.ID
	TravelMinutes float64
	Cost          float64
	seq           int
}

type Outcome struct {
	RequestID   types.ID
	State       State
	VolunteerID *types.ID
	Cost        *float64
	Reason      string
	ClosedAt    *time.Time
}

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicateAuction = errors.New("auction already active for request")
	ErrNotFound         = errors.New("auction not found")
	ErrLateResponse     = errors.New("response window closed")
	ErrAlreadyResponded = errors.New("volunteer already responded")
	ErrCommitFailed     = errors.New("assignment commit failed")
)
