package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eatyaar/backend/internal/middleware"
	"github.com/eatyaar/backend/internal/service"
)

type RatingHandler struct {
	ratingService *service.RatingService
	authService   *service.AuthService
}

func NewRatingHandler(ratingService *service.RatingService, authService *service.AuthService) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
		authService:   authService,
	}
}

func (h *RatingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/ratings", middleware.AuthMiddleware(h.authService), h.Create)
}

func (h *RatingHandler) Create(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req CreateRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "claimId and score are required"})
		return
	}

	rating, err := h.ratingService.Create(c.Request.Context(), req.ClaimID, uid, req.Score)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      rating.ID,
		"claimId": rating.ClaimID,
		"score":   rating.Score,
	})
}
