// README: Pickup request handlers; create, respond, and outcome endpoints.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"relay/internal/modules/auction"
	"relay/internal/modules/request"
	"relay/internal/modules/volunteer"
	"relay/internal/types"
)

type RequestHandler struct {
	requests   *request.Service
	volunteers *volunteer.Service
}

func NewRequestHandler(requests *request.Service, volunteers *volunteer.Service) *RequestHandler {
	return &RequestHandler{requests: requests, volunteers: volunteers}
}

type createRequestReq struct {
	ID            string `json:"id"`
	PickupPointID string `json:"pickup_point_id"`
}

func (h *RequestHandler) Create(c *gin.Context) {
	var req createRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	r, err := h.requests.Create(c.Request.Context(), request.CreateCommand{
		ID:            types.ID(req.ID),
		PickupPointID: types.ID(req.PickupPointID),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       r.ID,
		"state":    r.State,
		"deadline": r.Deadline,
	})
}

func (h *RequestHandler) Get(c *gin.Context) {
	r, err := h.requests.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := gin.H{
		"id":              r.ID,
		"pickup_point_id": r.PickupPointID,
		"state":           r.State,
		"created_at":      r.CreatedAt,
		"deadline":        r.Deadline,
	}
	if r.AssignedVolunteerID != nil {
		resp["assigned_volunteer_id"] = *r.AssignedVolunteerID
	}
	if r.Cost != nil {
		resp["cost"] = *r.Cost
	}
	c.JSON(http.StatusOK, resp)
}

type respondReq struct {
	VolunteerID string   `json:"volunteer_id"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

func (h *RequestHandler) Accept(c *gin.Context) {
	h.respond(c, auction.DecisionAccept)
}

func (h *RequestHandler) Deny(c *gin.Context) {
	h.respond(c, auction.DecisionDeny)
}

func (h *RequestHandler) respond(c *gin.Context, decision auction.Decision) {
	var req respondReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	requestID := types.ID(c.Param("id"))
	volunteerID := types.ID(req.VolunteerID)

	// A response may carry a fresh position; it feeds the presence store
	// for future auctions, never the in-flight snapshot.
	if req.Lat != nil && req.Lng != nil {
		pos := types.Point{Lat: *req.Lat, Lng: *req.Lng}
		if err := h.volunteers.UpdateLocation(c.Request.Context(), volunteerID, pos); err != nil {
			log.Printf("response location update for %s: %v", volunteerID, err)
		}
	}

	err := h.requests.Respond(c.Request.Context(), requestID, volunteerID, decision)
	if errors.Is(err, auction.ErrLateResponse) {
		// Late responses are dropped, not errors: the volunteer's
		// workflow continues, the event is just recorded.
		log.Printf("late response from %s for request %s", volunteerID, requestID)
		c.JSON(http.StatusAccepted, gin.H{"status": "late"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

func (h *RequestHandler) Outcome(c *gin.Context) {
	o, err := h.requests.Outcome(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"request_id": o.RequestID}
	switch o.State {
	case auction.StateAssigned:
		resp["status"] = "assigned"
		resp["volunteer_id"] = *o.VolunteerID
		resp["cost"] = *o.Cost
	case auction.StateUnassigned:
		resp["status"] = "unassigned"
	case auction.StateFailed:
		resp["status"] = "failed"
		resp["reason"] = o.Reason
	default:
		resp["status"] = "pending"
	}
	c.JSON(http.StatusOK, resp)
}
