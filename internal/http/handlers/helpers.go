// README: Shared JSON error mapping for handlers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"relay/internal/modules/auction"
	"relay/internal/modules/pickup"
	"relay/internal/modules/request"
	"relay/internal/modules/volunteer"
)

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auction.ErrInvalidInput),
		errors.Is(err, request.ErrBadRequest),
		errors.Is(err, volunteer.ErrBadRequest),
		errors.Is(err, pickup.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auction.ErrNotFound),
		errors.Is(err, request.ErrNotFound),
		errors.Is(err, volunteer.ErrNotFound),
		errors.Is(err, pickup.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, auction.ErrDuplicateAuction),
		errors.Is(err, auction.ErrAlreadyResponded),
		errors.Is(err, request.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
