package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eatyaar/backend/internal/middleware"
	"github.com/eatyaar/backend/internal/models"
	"github.com/eatyaar/backend/internal/service"
)

const maxPhotoBytes = 5 << 20

type ListingHandler struct {
	listingService *service.ListingService
	imageService   *service.ImageService
	authService    *service.AuthService
}

func NewListingHandler(listingService *service.ListingService, imageService *service.ImageService, authService *service.AuthService) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		imageService:   imageService,
		authService:    authService,
	}
}

func (h *ListingHandler) RegisterRoutes(router *gin.RouterGroup) {
	authed := middleware.AuthMiddleware(h.authService)
	listings := router.Group("/listings")
	{
		listings.GET("", h.Search)
		listings.GET("/all", h.All)
		listings.GET("/my", authed, h.Mine)
		listings.POST("", authed, h.Create)
		listings.POST("/:id/image", authed, h.UploadPhoto)
	}
}

func (h *ListingHandler) Create(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid listing payload"})
		return
	}

	listing, err := h.listingService.Create(c.Request.Context(), uid, service.CreateListingInput{
		Title:        req.Title,
		Description:  req.Description,
		FoodType:     models.FoodType(req.FoodType),
		Servings:     req.Servings,
		CookedAt:     req.CookedAt,
		PickupBy:     req.PickupBy,
		AreaName:     req.AreaName,
		ExactAddress: req.ExactAddress,
		City:         req.City,
		State:        req.State,
		Pincode:      req.Pincode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newListingResponse(listing, uid, time.Now()))
}

// Search returns claimable listings for a city. Public endpoint; the
// viewer is anonymous so addresses are always redacted.
func (h *ListingHandler) Search(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "city query parameter is required"})
		return
	}

	now := time.Now()
	listings, err := h.listingService.SearchByCity(c.Request.Context(), city, now)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listingResponses(listings, uuid.Nil, now))
}

func (h *ListingHandler) All(c *gin.Context) {
	now := time.Now()
	listings, err := h.listingService.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listingResponses(listings, uuid.Nil, now))
}

func (h *ListingHandler) Mine(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	now := time.Now()
	listings, err := h.listingService.Mine(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listingResponses(listings, uid, now))
}

func (h *ListingHandler) UploadPhoto(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid listing id"})
		return
	}

	// Ownership is checked before anything reaches S3, so a stranger
	// cannot land objects in the bucket against someone else's listing.
	listing, err := h.listingService.Get(c.Request.Context(), listingID)
	if err != nil {
		respondError(c, err)
		return
	}
	if listing.PostedByUserID != uid {
		respondError(c, service.ErrNotListingOwner)
		return
	}

	if h.imageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "photo uploads are not available"})
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "photo file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		respondError(c, err)
		return
	}
	if len(data) > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "photo exceeds the 5MB limit"})
		return
	}

	url, err := h.imageService.UploadListingPhoto(c.Request.Context(), listingID, header.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.listingService.SetPhotoURL(c.Request.Context(), listingID, uid, url); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"photoUrl": url})
}

func listingResponses(listings []models.Listing, viewer uuid.UUID, now time.Time) []ListingResponse {
	out := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		out = append(out, newListingResponse(&listings[i], viewer, now))
	}
	return out
}
