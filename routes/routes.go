package routes

import (
	"net/http"
	"time"

	"tidymatch/handlers"
	"tidymatch/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterReservationRoutes registers reservation endpoints.
func RegisterReservationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/reservations")
	{
		api.POST("", hb.CreateReservationHandler)
		api.GET("/:id", hb.GetReservationHandler)
		api.POST("/:id/cancel", hb.CancelReservationHandler)
	}
}

// RegisterMatchingRoutes sets up the endpoints for the matching engine.
func RegisterMatchingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/matching")
	{
		api.POST("/requests", hb.CreateRequestHandler)
		api.POST("/requests/manual", hb.CreateManualRequestHandler)
		api.GET("/requests", hb.ListRequestsHandler)
		api.GET("/requests/:id", hb.GetRequestHandler)
		api.POST("/requests/:id/responses", hb.RecordResponseHandler)
		api.POST("/requests/:id/decision", hb.ResolveDecisionHandler)
		api.GET("/requests/:id/events", hb.ListRequestEventsHandler)
		api.GET("/escalations", hb.ListEscalationsHandler)
	}
}

// RegisterCriteriaRoutes registers criterion registry endpoints.
func RegisterCriteriaRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/criteria")
	{
		api.GET("", hb.ListCriteriaHandler)
		api.PUT("/:id/weight", hb.SetCriterionWeightHandler)
		api.PUT("/:id/active", hb.SetCriterionActiveHandler)
	}
}

// RegisterManagerRoutes registers manager directory endpoints.
func RegisterManagerRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/managers")
	{
		api.POST("/register", hb.RegisterManagerHandler)
		api.GET("", hb.ListManagersHandler)
		api.GET("/:id", hb.GetManagerHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterReservationRoutes(r, hb)
	RegisterMatchingRoutes(r, hb)
	RegisterCriteriaRoutes(r, hb)
	RegisterManagerRoutes(r, hb)
	RegisterHealthRoute(r)
}
