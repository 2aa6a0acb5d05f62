// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relay/internal/http/handlers"
	"relay/internal/http/middleware"
	"relay/internal/modules/pickup"
	"relay/internal/modules/request"
	"relay/internal/modules/volunteer"
)

func NewRouter(
	requestService *request.Service,
	volunteerService *volunteer.Service,
	pickupService *pickup.Service,
) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(volunteerService))

	volunteerHandler := handlers.NewVolunteerHandler(volunteerService)
	api.POST("/volunteers", volunteerHandler.Upsert)
	api.GET("/volunteers/:id", volunteerHandler.Get)
	api.PUT("/volunteers/:id/location", volunteerHandler.UpdateLocation)

	pickupHandler := handlers.NewPickupHandler(pickupService)
	api.POST("/pickup-points", pickupHandler.UpsertPoint)
	api.GET("/pickup-points/:id", pickupHandler.GetPoint)
	api.PUT("/pickup-points/:id/items", pickupHandler.SetInventory)
	api.POST("/item-variants", pickupHandler.UpsertVariant)

	requestHandler := handlers.NewRequestHandler(requestService, volunteerService)
	api.POST("/requests", requestHandler.Create)
	api.GET("/requests/:id", requestHandler.Get)
	api.POST("/requests/:id/accept", requestHandler.Accept)
	api.POST("/requests/:id/deny", requestHandler.Deny)
	api.GET("/requests/:id/outcome", requestHandler.Outcome)

	return r
}
