package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eatyaar/backend/internal/lifecycle"
	"github.com/eatyaar/backend/internal/models"
	"github.com/eatyaar/backend/internal/service"
)

// Wire DTOs. The mobile/web clients speak camelCase; the GORM models keep
// the database naming, so handlers map between the two here.

type SendOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"userId"`
	Phone     string    `json:"phone"`
	IsNewUser bool      `json:"isNewUser"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required"`
	City string `json:"city" binding:"required"`
	Area string `json:"area"`
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Phone      string    `json:"phone"`
	Name       string    `json:"name"`
	City       string    `json:"city"`
	Area       string    `json:"area"`
	TrustScore float64   `json:"trustScore"`
}

type CreateListingRequest struct {
	Title        string    `json:"title" binding:"required"`
	Description  string    `json:"description"`
	FoodType     string    `json:"foodType" binding:"required"`
	Servings     int       `json:"servings" binding:"required"`
	CookedAt     time.Time `json:"cookedAt" binding:"required"`
	PickupBy     time.Time `json:"pickupBy" binding:"required"`
	AreaName     string    `json:"areaName" binding:"required"`
	ExactAddress string    `json:"exactAddress" binding:"required"`
	City         string    `json:"city" binding:"required"`
	State        string    `json:"state"`
	Pincode      string    `json:"pincode"`
}

type ListingResponse struct {
	ID                 uuid.UUID            `json:"id"`
	Title              string               `json:"title"`
	Description        string               `json:"description,omitempty"`
	FoodType           models.FoodType      `json:"foodType"`
	Servings           int                  `json:"servings"`
	CookedAt           time.Time            `json:"cookedAt"`
	PickupBy           time.Time            `json:"pickupBy"`
	AreaName           string               `json:"areaName"`
	ExactAddress       string               `json:"exactAddress,omitempty"`
	City               string               `json:"city"`
	State              string               `json:"state,omitempty"`
	Pincode            string               `json:"pincode,omitempty"`
	PhotoURL           string               `json:"photoUrl,omitempty"`
	Status             models.ListingStatus `json:"status"`
	PostedByUserID     uuid.UUID            `json:"postedByUserId"`
	PostedByName       string               `json:"postedByName,omitempty"`
	PostedByTrustScore float64              `json:"postedByTrustScore"`
	CreatedAt          time.Time            `json:"createdAt"`
}

// newListingResponse renders a listing for the given viewer. The exact
// address stays hidden unless the viewer owns the listing; approved
// takers get it through their claim view instead. Status is the derived
// one, so an elapsed pickup window reads as EXPIRED.
func newListingResponse(l *models.Listing, viewer uuid.UUID, now time.Time) ListingResponse {
	resp := ListingResponse{
		ID:                 l.ID,
		Title:              l.Title,
		Description:        l.Description,
		FoodType:           l.FoodType,
		Servings:           l.Servings,
		CookedAt:           l.CookedAt,
		PickupBy:           l.PickupBy,
		AreaName:           l.AreaName,
		City:               l.City,
		State:              l.State,
		Pincode:            l.Pincode,
		PhotoURL:           l.PhotoURL,
		Status:             lifecycle.EffectiveStatus(l, now),
		PostedByUserID:     l.PostedByUserID,
		PostedByTrustScore: l.PostedByTrustScore,
		CreatedAt:          l.CreatedAt,
	}
	if l.PostedBy != nil {
		resp.PostedByName = l.PostedBy.Name
	}
	if viewer == l.PostedByUserID {
		resp.ExactAddress = l.ExactAddress
	}
	return resp
}

type CreateClaimRequest struct {
	ListingID uuid.UUID `json:"listingId" binding:"required"`
}

// ReceivedClaimResponse is the giver-facing view of a claim. This is the
// shape the notification poller consumes.
type ReceivedClaimResponse struct {
	ID            uuid.UUID          `json:"id"`
	ListingID     uuid.UUID          `json:"listingId"`
	ListingTitle  string             `json:"listingTitle"`
	ClaimedByName string             `json:"claimedByName"`
	Status        models.ClaimStatus `json:"status"`
	CreatedAt     time.Time          `json:"createdAt"`
}

func newReceivedClaimResponse(c *models.Claim) ReceivedClaimResponse {
	resp := ReceivedClaimResponse{
		ID:            c.ID,
		ListingID:     c.ListingID,
		ClaimedByName: c.ClaimedByName,
		Status:        c.Status,
		CreatedAt:     c.CreatedAt,
	}
	if c.Listing != nil {
		resp.ListingTitle = c.Listing.Title
	}
	return resp
}

// MyClaimResponse is the taker-facing view. The pickup address appears
// only once the giver has approved.
type MyClaimResponse struct {
	ID              uuid.UUID          `json:"id"`
	ListingID       uuid.UUID          `json:"listingId"`
	ListingTitle    string             `json:"listingTitle"`
	ListingAreaName string             `json:"listingAreaName"`
	ExactAddress    string             `json:"exactAddress,omitempty"`
	Status          models.ClaimStatus `json:"status"`
	CreatedAt       time.Time          `json:"createdAt"`
}

func newMyClaimResponse(c *models.Claim) MyClaimResponse {
	resp := MyClaimResponse{
		ID:        c.ID,
		ListingID: c.ListingID,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
	}
	if c.Listing != nil {
		resp.ListingTitle = c.Listing.Title
		resp.ListingAreaName = c.Listing.AreaName
		if c.Status == models.ClaimApproved || c.Status == models.ClaimPickedUp {
			resp.ExactAddress = c.Listing.ExactAddress
		}
	}
	return resp
}

type CreateRatingRequest struct {
	ClaimID uuid.UUID `json:"claimId" binding:"required"`
	Score   int       `json:"score" binding:"required"`
}

// respondError maps service and lifecycle errors onto HTTP statuses. All
// error bodies are {"message": "..."} so clients have one shape to parse.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, lifecycle.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, lifecycle.ErrAlreadyClaimed),
		errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyRated):
		status = http.StatusConflict
	case errors.Is(err, service.ErrListingNotFound),
		errors.Is(err, service.ErrClaimNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidServings),
		errors.Is(err, service.ErrInvalidPickupBy),
		errors.Is(err, service.ErrInvalidFoodType),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrUnsupportedImageType):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotListingOwner):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrTooManyRequests):
		status = http.StatusTooManyRequests
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

// userID pulls the authenticated user out of the gin context.
func userID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "user not authenticated"})
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "user not authenticated"})
		return uuid.Nil, false
	}
	return id, true
}
