// README: Volunteer handlers for profile upsert, read, and location updates.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relay/internal/modules/volunteer"
	"relay/internal/types"
)

type VolunteerHandler struct {
	volunteers *volunteer.Service
}

func NewVolunteerHandler(svc *volunteer.Service) *VolunteerHandler {
	return &VolunteerHandler{volunteers: svc}
}

type upsertVolunteerReq struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Karma     float64 `json:"karma"`
	MaxVolume float64 `json:"max_volume"`
}

func (h *VolunteerHandler) Upsert(c *gin.Context) {
	var req upsertVolunteerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	v := &volunteer.Volunteer{
		ID:        types.ID(req.ID),
		Name:      req.Name,
		Karma:     req.Karma,
		MaxVolume: req.MaxVolume,
	}
	if err := h.volunteers.Upsert(c.Request.Context(), v); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": v.ID})
}

func (h *VolunteerHandler) Get(c *gin.Context) {
	v, err := h.volunteers.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         v.ID,
		"name":       v.Name,
		"karma":      v.Karma,
		"max_volume": v.MaxVolume,
	})
}

type updateLocationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *VolunteerHandler) UpdateLocation(c *gin.Context) {
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	id := types.ID(c.Param("id"))
	if err := h.volunteers.UpdateLocation(c.Request.Context(), id, types.Point{Lat: req.Lat, Lng: req.Lng}); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
