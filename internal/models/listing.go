package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListingStatus is the persisted lifecycle state of a food listing.
// EXPIRED is derived from pickup_by at read time and is never written.
type ListingStatus string

const (
	ListingAvailable ListingStatus = "AVAILABLE"
	ListingClaimed   ListingStatus = "CLAIMED"
	ListingCompleted ListingStatus = "COMPLETED"
	ListingExpired   ListingStatus = "EXPIRED"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingAvailable, ListingClaimed, ListingCompleted, ListingExpired:
		return true
	}
	return false
}

type FoodType string

const (
	FoodVeg    FoodType = "VEG"
	FoodNonVeg FoodType = "NON_VEG"
	FoodBoth   FoodType = "BOTH"
)

func (t FoodType) Valid() bool {
	switch t {
	case FoodVeg, FoodNonVeg, FoodBoth:
		return true
	}
	return false
}

type Listing struct {
	ID          uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"size:120;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	FoodType    FoodType       `gorm:"size:10;not null" json:"food_type"`
	Servings    int            `gorm:"not null" json:"servings"`
	CookedAt    time.Time      `gorm:"not null" json:"cooked_at"`
	PickupBy    time.Time      `gorm:"not null;index" json:"pickup_by"`

	// AreaName is public; ExactAddress is revealed only to the approved taker.
	AreaName     string `gorm:"size:100;not null" json:"area_name"`
	ExactAddress string `gorm:"type:text;not null" json:"-"`
	City         string `gorm:"size:100;not null;index" json:"city"`
	State        string `gorm:"size:100" json:"state"`
	Pincode      string `gorm:"size:10" json:"pincode"`

	PhotoURL string `gorm:"size:255" json:"photo_url,omitempty"`

	Status         ListingStatus `gorm:"size:20;not null;default:'AVAILABLE';index" json:"status"`
	PostedByUserID uuid.UUID     `gorm:"type:varchar(36);not null;index" json:"posted_by_user_id"`
	// PostedByTrustScore is a display snapshot taken when the listing is
	// created; rating activity after that does not rewrite it.
	PostedByTrustScore float64 `gorm:"not null;default:0" json:"posted_by_trust_score"`

	PostedBy *User `gorm:"foreignKey:PostedByUserID" json:"-"`
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
