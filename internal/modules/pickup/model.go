// README: Pickup point, item variant, and inventory models.
package pickup

import (
	"errors"

	"relay/internal/types"
)

type PickupPoint struct {
	ID       types.ID
	Name     string
	Location types.Point
}

type ItemVariant struct {
	ID   types.ID
	Name string
	// Volume in litres per unit.
	Volume float64
}

type InventoryEntry struct {
	ItemVariantID types.ID `json:"item_variant_id"`
	Quantity      int      `json:"quantity"`
}

var (
	ErrNotFound   = errors.New("pickup point not found")
	ErrBadRequest = errors.New("bad request")
)
