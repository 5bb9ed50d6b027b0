package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID         uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Phone      string         `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	Name       string         `gorm:"size:100" json:"name"`
	City       string         `gorm:"size:100" json:"city"`
	Area       string         `gorm:"size:100" json:"area"`
	TrustScore float64        `gorm:"not null;default:0" json:"trust_score"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ProfileComplete reports whether the user finished onboarding after
// their first OTP login.
func (u *User) ProfileComplete() bool {
	return u.Name != "" && u.City != ""
}
