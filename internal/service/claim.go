package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eatyaar/backend/internal/lifecycle"
	"github.com/eatyaar/backend/internal/models"
)

var ErrClaimNotFound = errors.New("claim not found")

// ClaimService runs every lifecycle transition inside a transaction that
// locks the listing row, so the "is the listing still AVAILABLE" check is
// atomic with respect to concurrent approval attempts. The lifecycle
// package decides legality; this layer provides the atomicity.
type ClaimService struct {
	db *gorm.DB
}

func NewClaimService(db *gorm.DB) *ClaimService {
	return &ClaimService{db: db}
}

// lockListing fetches the listing with a row lock on dialects that
// support it. SQLite serializes writers on its own.
func lockListing(tx *gorm.DB, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.First(&listing, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// Create opens a PENDING claim for taker on the listing. The listing must
// be effectively AVAILABLE and the taker must not already have a live
// claim on it.
func (s *ClaimService) Create(ctx context.Context, listingID, taker uuid.UUID) (*models.Claim, error) {
	var claim *models.Claim
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listing, err := lockListing(tx, listingID)
		if err != nil {
			return err
		}
		if err := lifecycle.CanClaim(listing, taker, time.Now()); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Claim{}).
			Where("listing_id = ? AND claimed_by_user_id = ? AND status <> ?",
				listingID, taker, models.ClaimRejected).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: you have already claimed this listing", lifecycle.ErrAlreadyClaimed)
		}

		var user models.User
		if err := tx.First(&user, "id = ?", taker).Error; err != nil {
			return err
		}

		claim = &models.Claim{
			ListingID:       listingID,
			ClaimedByUserID: taker,
			ClaimedByName:   user.Name,
			Status:          models.ClaimPending,
		}
		return tx.Create(claim).Error
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// Approve moves the claim to APPROVED and its listing to CLAIMED. If the
// listing is no longer AVAILABLE the approval fails with AlreadyClaimed;
// the winning claim is untouched.
func (s *ClaimService) Approve(ctx context.Context, claimID, actor uuid.UUID) (*models.Claim, error) {
	return s.transition(ctx, claimID, actor, lifecycle.Approve)
}

// Reject moves the claim to REJECTED. The listing stays AVAILABLE so
// remaining pending claims can still be approved.
func (s *ClaimService) Reject(ctx context.Context, claimID, actor uuid.UUID) (*models.Claim, error) {
	return s.transition(ctx, claimID, actor, lifecycle.Reject)
}

// MarkPickedUp confirms the pickup and completes the listing.
func (s *ClaimService) MarkPickedUp(ctx context.Context, claimID, actor uuid.UUID) (*models.Claim, error) {
	return s.transition(ctx, claimID, actor, lifecycle.MarkPickedUp)
}

func (s *ClaimService) transition(
	ctx context.Context,
	claimID, actor uuid.UUID,
	apply func(*models.Listing, *models.Claim, uuid.UUID) error,
) (*models.Claim, error) {
	var claim models.Claim
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// This first read only discovers which listing to lock; the
		// claim status it sees may be mid-change on another connection.
		if err := tx.First(&claim, "id = ?", claimID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClaimNotFound
			}
			return err
		}

		listing, err := lockListing(tx, claim.ListingID)
		if err != nil {
			return err
		}

		// Every transition holds the listing lock, so re-reading the
		// claim here observes its settled status. Without this a Reject
		// racing an Approve could apply its guards to a stale PENDING
		// snapshot and un-approve the winner.
		if err := tx.First(&claim, "id = ?", claimID).Error; err != nil {
			return err
		}

		if err := apply(listing, &claim, actor); err != nil {
			return err
		}

		if err := tx.Save(listing).Error; err != nil {
			return err
		}
		return tx.Save(&claim).Error
	})
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// Received returns all claims made against the owner's listings, with
// the listing preloaded, in arrival order. The notification poller and
// the claims inbox both read this view.
func (s *ClaimService) Received(ctx context.Context, owner uuid.UUID) ([]models.Claim, error) {
	var claims []models.Claim
	err := s.db.WithContext(ctx).
		Preload("Listing").
		Joins("JOIN listings ON listings.id = claims.listing_id").
		Where("listings.posted_by_user_id = ?", owner).
		Order("claims.created_at ASC").
		Find(&claims).Error
	return claims, err
}

// Mine returns the taker's own claims, newest first.
func (s *ClaimService) Mine(ctx context.Context, taker uuid.UUID) ([]models.Claim, error) {
	var claims []models.Claim
	err := s.db.WithContext(ctx).
		Preload("Listing").
		Where("claimed_by_user_id = ?", taker).
		Order("created_at DESC").
		Find(&claims).Error
	return claims, err
}

// Get fetches one claim with its listing.
func (s *ClaimService) Get(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	err := s.db.WithContext(ctx).Preload("Listing").First(&claim, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClaimNotFound
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}
