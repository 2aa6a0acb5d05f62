// README: Pickup point handlers (points, item variants, inventory).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relay/internal/modules/pickup"
	"relay/internal/types"
)

type PickupHandler struct {
	pickups *pickup.Service
}

func NewPickupHandler(svc *pickup.Service) *PickupHandler {
	return &PickupHandler{pickups: svc}
}

type upsertPointReq struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (h *PickupHandler) UpsertPoint(c *gin.Context) {
	var req upsertPointReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p := &pickup.PickupPoint{
		ID:       types.ID(req.ID),
		Name:     req.Name,
		Location: types.Point{Lat: req.Lat, Lng: req.Lng},
	}
	if err := h.pickups.UpsertPoint(c.Request.Context(), p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID})
}

func (h *PickupHandler) GetPoint(c *gin.Context) {
	id := types.ID(c.Param("id"))
	p, err := h.pickups.GetPoint(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	items, err := h.pickups.Inventory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    p.ID,
		"name":  p.Name,
		"lat":   p.Location.Lat,
		"lng":   p.Location.Lng,
		"items": items,
	})
}

type upsertVariantReq struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Volume float64 `json:"volume"`
}

func (h *PickupHandler) UpsertVariant(c *gin.Context) {
	var req upsertVariantReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	v := &pickup.ItemVariant{ID: types.ID(req.ID), Name: req.Name, Volume: req.Volume}
	if err := h.pickups.UpsertVariant(c.Request.Context(), v); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": v.ID})
}

type setInventoryReq struct {
	ItemVariantID string `json:"item_variant_id"`
	Quantity      int    `json:"quantity"`
}

func (h *PickupHandler) SetInventory(c *gin.Context) {
	var req setInventoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	pointID := types.ID(c.Param("id"))
	if err := h.pickups.SetInventory(c.Request.Context(), pointID, types.ID(req.ItemVariantID), req.Quantity); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": pointID})
}
