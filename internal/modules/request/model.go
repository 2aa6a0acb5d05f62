// README: Pickup request aggregate.
package request

import (
	"errors"
	"time"

	"relay/internal/modules/auction"
	"relay/internal/types"
)

type PickupRequest struct {
	ID                  types.ID
	PickupPointID       types.ID
	State               auction.State
	AssignedVolunteerID *types.ID
	Cost                *float64
	CreatedAt           time.Time
	// Deadline is the end of the response collection window.
	Deadline time.Time
	ClosedAt *time.Time
}

var (
	ErrNotFound   = errors.New("pickup request not found")
	ErrConflict   = errors.New("pickup request already exists")
	ErrBadRequest = errors.New("bad request")
)
