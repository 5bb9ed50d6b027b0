package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/eatyaar/backend/config"
	"github.com/eatyaar/backend/internal/api"
	"github.com/eatyaar/backend/internal/database"
	"github.com/eatyaar/backend/internal/middleware"
	"github.com/eatyaar/backend/internal/router"
	"github.com/eatyaar/backend/internal/service"
)

// Server wires the services and handlers together and owns the HTTP
// listener lifecycle.
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	http   *http.Server
}

// New builds a fully wired server from open connections.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, s3Cfg *config.S3Config) *Server {
	otpStore := database.NewRedisOTPStore(redisClient)

	authService := service.NewAuthService(db, otpStore, nil, cfg.JWTSecret)
	listingService := service.NewListingService(db)
	claimService := service.NewClaimService(db)
	ratingService := service.NewRatingService(db)

	var imageService *service.ImageService
	if s3Cfg != nil {
		imageService = service.NewImageService(s3Cfg)
	}

	otpLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
		Window:    10 * time.Minute,
		Limit:     10,
		KeyPrefix: "rl:send-otp",
	})

	engine := router.SetupRouter(
		api.NewAuthHandler(authService),
		api.NewListingHandler(listingService, imageService, authService),
		api.NewClaimHandler(claimService, authService),
		api.NewRatingHandler(ratingService, authService),
		otpLimiter,
	)

	return &Server{cfg: cfg, engine: engine}
}

// Start blocks serving HTTP until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    s.cfg.ServerHost + ":" + s.cfg.ServerPort,
		Handler: s.engine,
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}
