package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eatyaar/backend/internal/middleware"
	"github.com/eatyaar/backend/internal/models"
	"github.com/eatyaar/backend/internal/service"
)

type ClaimHandler struct {
	claimService *service.ClaimService
	authService  *service.AuthService
}

func NewClaimHandler(claimService *service.ClaimService, authService *service.AuthService) *ClaimHandler {
	return &ClaimHandler{
		claimService: claimService,
		authService:  authService,
	}
}

func (h *ClaimHandler) RegisterRoutes(router *gin.RouterGroup) {
	claims := router.Group("/claims")
	claims.Use(middleware.AuthMiddleware(h.authService))
	{
		claims.POST("", h.Create)
		claims.GET("/received", h.Received)
		claims.GET("/my", h.Mine)
		claims.PATCH("/:id/approve", h.Approve)
		claims.PATCH("/:id/reject", h.Reject)
		claims.PATCH("/:id/picked-up", h.MarkPickedUp)
	}
}

func (h *ClaimHandler) Create(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "listingId is required"})
		return
	}

	claim, err := h.claimService.Create(c.Request.Context(), req.ListingID, uid)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newReceivedClaimResponse(claim))
}

// Received lists all claims against the caller's listings in arrival
// order. The inbox badge and banner polling both hit this endpoint.
func (h *ClaimHandler) Received(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	claims, err := h.claimService.Received(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]ReceivedClaimResponse, 0, len(claims))
	for i := range claims {
		out = append(out, newReceivedClaimResponse(&claims[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ClaimHandler) Mine(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	claims, err := h.claimService.Mine(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]MyClaimResponse, 0, len(claims))
	for i := range claims {
		out = append(out, newMyClaimResponse(&claims[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ClaimHandler) Approve(c *gin.Context) {
	h.transition(c, h.claimService.Approve)
}

func (h *ClaimHandler) Reject(c *gin.Context) {
	h.transition(c, h.claimService.Reject)
}

func (h *ClaimHandler) MarkPickedUp(c *gin.Context) {
	h.transition(c, h.claimService.MarkPickedUp)
}

func (h *ClaimHandler) transition(
	c *gin.Context,
	op func(ctx context.Context, claimID, actor uuid.UUID) (*models.Claim, error),
) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid claim id"})
		return
	}

	claim, err := op(c.Request.Context(), claimID, uid)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newReceivedClaimResponse(claim))
}
