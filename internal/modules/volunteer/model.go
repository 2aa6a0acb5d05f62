// README: Volunteer profile model.
package volunteer

import (
	"errors"

	"relay/internal/types"
)

type Volunteer struct {
	ID   types.ID
	Name string
	// Karma is the track-record score; conventionally 0-100 but not
	// clamped.
	Karma float64
	// MaxVolume is the carrying capacity in litres.
	MaxVolume float64
}

var (
	ErrNotFound   = errors.New("volunteer not found")
	ErrBadRequest = errors.New("bad request")
)
