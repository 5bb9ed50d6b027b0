package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/eatyaar/backend/internal/api"
	"github.com/eatyaar/backend/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(
	authHandler *api.AuthHandler,
	listingHandler *api.ListingHandler,
	claimHandler *api.ClaimHandler,
	ratingHandler *api.RatingHandler,
	otpLimiter *middleware.RateLimiter,
) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1 := router.Group("/api/v1")

	var limit gin.HandlerFunc
	if otpLimiter != nil {
		limit = otpLimiter.Middleware()
	}
	authHandler.RegisterRoutes(v1, limit)
	listingHandler.RegisterRoutes(v1)
	claimHandler.RegisterRoutes(v1)
	ratingHandler.RegisterRoutes(v1)

	return router
}
