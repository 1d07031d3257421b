package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dinehall-loyalty-service/internal/api_gateway/handler"
	"github.com/dinehall-loyalty-service/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	pointsHandler *handler.PointsHandler,
	activityHandler *handler.ActivityHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Points applied to a pending order by staff
		orders := v1.Group("/orders")
		{
			orders.POST("/:slug/points", pointsHandler.Reserve)
		}

		// Customer balance and ledger history
		users := v1.Group("/users")
		{
			users.GET("/:id/points/balance", pointsHandler.GetBalance)
			users.GET("/:id/points/history", pointsHandler.GetHistory)
		}

		// Staff activity feed backed by the MongoDB archive
		v1.GET("/activity", activityHandler.List)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
