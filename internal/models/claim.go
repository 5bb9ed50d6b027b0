package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimStatus is the lifecycle state of a taker's claim. REJECTED and
// PICKED_UP are terminal.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "PENDING"
	ClaimApproved ClaimStatus = "APPROVED"
	ClaimRejected ClaimStatus = "REJECTED"
	ClaimPickedUp ClaimStatus = "PICKED_UP"
)

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimPending, ClaimApproved, ClaimRejected, ClaimPickedUp:
		return true
	}
	return false
}

func (s ClaimStatus) Terminal() bool {
	return s == ClaimRejected || s == ClaimPickedUp
}

// Claim records one taker's request against a listing. Claims are kept
// forever for history and rating eligibility, never deleted.
type Claim struct {
	ID              uuid.UUID   `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	ListingID       uuid.UUID   `gorm:"type:varchar(36);not null;index" json:"listing_id"`
	ClaimedByUserID uuid.UUID   `gorm:"type:varchar(36);not null;index" json:"claimed_by_user_id"`
	ClaimedByName   string      `gorm:"size:100" json:"claimed_by_name"`
	Status          ClaimStatus `gorm:"size:20;not null;default:'PENDING';index" json:"status"`

	Listing *Listing `gorm:"foreignKey:ListingID" json:"-"`
}

func (c *Claim) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
