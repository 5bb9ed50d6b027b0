package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eatyaar/backend/internal/models"
)

var (
	ErrInvalidServings = errors.New("servings must be a positive number")
	ErrInvalidPickupBy = errors.New("pickup by must not be before cooked at")
	ErrInvalidFoodType = errors.New("invalid food type")
	ErrListingNotFound = errors.New("listing not found")
	ErrNotListingOwner = errors.New("not the listing owner")
)

// CreateListingInput carries the fields a giver submits when sharing food.
type CreateListingInput struct {
	Title        string
	Description  string
	FoodType     models.FoodType
	Servings     int
	CookedAt     time.Time
	PickupBy     time.Time
	AreaName     string
	ExactAddress string
	City         string
	State        string
	Pincode      string
}

type ListingService struct {
	db *gorm.DB
}

func NewListingService(db *gorm.DB) *ListingService {
	return &ListingService{db: db}
}

// Create validates and stores a new listing. The poster's trust score is
// snapshotted onto the listing for display.
func (s *ListingService) Create(ctx context.Context, owner uuid.UUID, in CreateListingInput) (*models.Listing, error) {
	if in.Servings <= 0 {
		return nil, ErrInvalidServings
	}
	if in.PickupBy.Before(in.CookedAt) {
		return nil, ErrInvalidPickupBy
	}
	if !in.FoodType.Valid() {
		return nil, ErrInvalidFoodType
	}

	var poster models.User
	if err := s.db.WithContext(ctx).First(&poster, "id = ?", owner).Error; err != nil {
		return nil, err
	}

	listing := models.Listing{
		Title:              in.Title,
		Description:        in.Description,
		FoodType:           in.FoodType,
		Servings:           in.Servings,
		CookedAt:           in.CookedAt,
		PickupBy:           in.PickupBy,
		AreaName:           in.AreaName,
		ExactAddress:       in.ExactAddress,
		City:               in.City,
		State:              in.State,
		Pincode:            in.Pincode,
		Status:             models.ListingAvailable,
		PostedByUserID:     poster.ID,
		PostedByTrustScore: poster.TrustScore,
	}
	if err := s.db.WithContext(ctx).Create(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// SearchByCity returns claimable listings in a city: AVAILABLE and not
// past their pickup window.
func (s *ListingService) SearchByCity(ctx context.Context, city string, now time.Time) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.WithContext(ctx).
		Preload("PostedBy").
		Where("LOWER(city) = LOWER(?)", city).
		Where("status = ?", models.ListingAvailable).
		Where("pickup_by > ?", now).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

// All returns every listing regardless of status, newest first.
func (s *ListingService) All(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.WithContext(ctx).
		Preload("PostedBy").
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

// Mine returns the caller's own listings, newest first.
func (s *ListingService) Mine(ctx context.Context, owner uuid.UUID) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.WithContext(ctx).
		Where("posted_by_user_id = ?", owner).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

func (s *ListingService) Get(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.WithContext(ctx).Preload("PostedBy").First(&listing, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// SetPhotoURL records an uploaded photo against the owner's listing.
func (s *ListingService) SetPhotoURL(ctx context.Context, id, owner uuid.UUID, url string) error {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if listing.PostedByUserID != owner {
		return ErrNotListingOwner
	}
	return s.db.WithContext(ctx).Model(listing).Update("photo_url", url).Error
}
