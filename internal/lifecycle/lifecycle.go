// Package lifecycle holds the pure transition rules for listings and
// claims. It never touches the database; the service layer runs these
// checks inside a transaction that holds a row lock on the listing, which
// makes the "is the listing still AVAILABLE" check the single atomic
// source of truth for the at-most-one-approval invariant.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eatyaar/backend/internal/models"
)

// EffectiveStatus derives the display status of a listing. An AVAILABLE
// listing whose pickup window has elapsed reads as EXPIRED; nothing is
// persisted for that, expiry is passive.
func EffectiveStatus(l *models.Listing, now time.Time) models.ListingStatus {
	if l.Status == models.ListingAvailable && now.After(l.PickupBy) {
		return models.ListingExpired
	}
	return l.Status
}

// CanClaim checks whether taker may open a new claim on the listing.
func CanClaim(l *models.Listing, taker uuid.UUID, now time.Time) error {
	if taker == l.PostedByUserID {
		return fmt.Errorf("%w: cannot claim your own listing", ErrPermissionDenied)
	}
	if EffectiveStatus(l, now) != models.ListingAvailable {
		return fmt.Errorf("%w: listing is not available", ErrAlreadyClaimed)
	}
	return nil
}

// Approve moves a PENDING claim to APPROVED and the listing to CLAIMED.
// Only the listing owner may approve, and only while the listing is still
// AVAILABLE — a listing that is already CLAIMED means some other claim won
// the race, so a second approval fails instead of double-booking the food.
func Approve(l *models.Listing, c *models.Claim, actor uuid.UUID) error {
	if actor != l.PostedByUserID {
		return fmt.Errorf("%w: only the listing owner can approve claims", ErrPermissionDenied)
	}
	if c.Status != models.ClaimPending {
		return fmt.Errorf("%w: claim is %s, expected PENDING", ErrInvalidTransition, c.Status)
	}
	if l.Status != models.ListingAvailable {
		return fmt.Errorf("%w: another claim was already approved", ErrAlreadyClaimed)
	}
	c.Status = models.ClaimApproved
	l.Status = models.ListingClaimed
	return nil
}

// Reject moves a PENDING claim to REJECTED. The listing stays AVAILABLE so
// the remaining pending claims are still actionable.
func Reject(l *models.Listing, c *models.Claim, actor uuid.UUID) error {
	if actor != l.PostedByUserID {
		return fmt.Errorf("%w: only the listing owner can reject claims", ErrPermissionDenied)
	}
	if c.Status != models.ClaimPending {
		return fmt.Errorf("%w: claim is %s, expected PENDING", ErrInvalidTransition, c.Status)
	}
	c.Status = models.ClaimRejected
	return nil
}

// MarkPickedUp moves an APPROVED claim to PICKED_UP and completes the
// listing. Only the claimant may confirm pickup.
func MarkPickedUp(l *models.Listing, c *models.Claim, actor uuid.UUID) error {
	if actor != c.ClaimedByUserID {
		return fmt.Errorf("%w: only the claimant can confirm pickup", ErrPermissionDenied)
	}
	if c.Status != models.ClaimApproved {
		return fmt.Errorf("%w: claim is %s, expected APPROVED", ErrInvalidTransition, c.Status)
	}
	c.Status = models.ClaimPickedUp
	l.Status = models.ListingCompleted
	return nil
}

// CanRate checks whether actor may rate the exchange for claim c. Rating
// is the claimant's move and only a completed pickup is rateable; the
// one-rating-per-claim rule is enforced by the unique index on ratings.
func CanRate(c *models.Claim, actor uuid.UUID) error {
	if actor != c.ClaimedByUserID {
		return fmt.Errorf("%w: only the claimant can rate this exchange", ErrPermissionDenied)
	}
	if c.Status != models.ClaimPickedUp {
		return fmt.Errorf("%w: claim is %s, expected PICKED_UP", ErrInvalidTransition, c.Status)
	}
	return nil
}
