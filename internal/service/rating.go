package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eatyaar/backend/internal/lifecycle"
	"github.com/eatyaar/backend/internal/models"
)

var (
	ErrInvalidScore = errors.New("score must be between 1 and 5")
	ErrAlreadyRated = errors.New("this exchange has already been rated")
)

// RatingService attaches one rating per picked-up claim and keeps the
// giver's aggregate trust score current. The score is the plain average
// of all ratings the giver has received.
type RatingService struct {
	db *gorm.DB
}

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{db: db}
}

func (s *RatingService) Create(ctx context.Context, claimID, rater uuid.UUID, score int) (*models.Rating, error) {
	if score < 1 || score > 5 {
		return nil, ErrInvalidScore
	}

	var rating *models.Rating
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var claim models.Claim
		if err := tx.Preload("Listing").First(&claim, "id = ?", claimID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClaimNotFound
			}
			return err
		}

		if err := lifecycle.CanRate(&claim, rater); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Rating{}).Where("claim_id = ?", claimID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyRated
		}

		giver := claim.Listing.PostedByUserID
		rating = &models.Rating{
			ClaimID:     claimID,
			RatedByID:   rater,
			RatedUserID: giver,
			Score:       score,
		}
		if err := tx.Create(rating).Error; err != nil {
			return err
		}

		return recomputeTrustScore(tx, giver)
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

func recomputeTrustScore(tx *gorm.DB, userID uuid.UUID) error {
	var avg float64
	err := tx.Model(&models.Rating{}).
		Where("rated_user_id = ?", userID).
		Select("AVG(score)").
		Scan(&avg).Error
	if err != nil {
		return err
	}
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("trust_score", avg).Error; err != nil {
		return fmt.Errorf("failed to update trust score: %w", err)
	}
	return nil
}
