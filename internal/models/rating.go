package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rating is the taker's 1-5 score for a completed pickup. One per claim;
// the aggregate feeds the giver's trust score.
type Rating struct {
	ID          uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ClaimID     uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex" json:"claim_id"`
	RatedByID   uuid.UUID `gorm:"type:varchar(36);not null" json:"rated_by_id"`
	RatedUserID uuid.UUID `gorm:"type:varchar(36);not null;index" json:"rated_user_id"`
	Score       int       `gorm:"not null;check:score >= 1 AND score <= 5" json:"score"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
