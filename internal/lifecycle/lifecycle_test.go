package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/eatyaar/backend/internal/models"
)

func newListing(owner uuid.UUID) *models.Listing {
	return &models.Listing{
		ID:             uuid.New(),
		Title:          "Homemade Dal & Rice",
		Servings:       3,
		Status:         models.ListingAvailable,
		PostedByUserID: owner,
		CookedAt:       time.Now().Add(-time.Hour),
		PickupBy:       time.Now().Add(4 * time.Hour),
	}
}

func newClaim(listing *models.Listing, taker uuid.UUID) *models.Claim {
	return &models.Claim{
		ID:              uuid.New(),
		ListingID:       listing.ID,
		ClaimedByUserID: taker,
		Status:          models.ClaimPending,
	}
}

func TestEffectiveStatusExpiry(t *testing.T) {
	owner := uuid.New()
	l := newListing(owner)

	assert.Equal(t, models.ListingAvailable, EffectiveStatus(l, time.Now()))
	assert.Equal(t, models.ListingExpired, EffectiveStatus(l, l.PickupBy.Add(time.Minute)))

	// Non-available listings never read as expired.
	l.Status = models.ListingCompleted
	assert.Equal(t, models.ListingCompleted, EffectiveStatus(l, l.PickupBy.Add(time.Minute)))
}

func TestCanClaim(t *testing.T) {
	owner := uuid.New()
	taker := uuid.New()
	l := newListing(owner)

	assert.NoError(t, CanClaim(l, taker, time.Now()))
	assert.ErrorIs(t, CanClaim(l, owner, time.Now()), ErrPermissionDenied)
	assert.ErrorIs(t, CanClaim(l, taker, l.PickupBy.Add(time.Minute)), ErrAlreadyClaimed)

	l.Status = models.ListingClaimed
	assert.ErrorIs(t, CanClaim(l, taker, time.Now()), ErrAlreadyClaimed)
}

func TestApproveHappyPath(t *testing.T) {
	owner := uuid.New()
	l := newListing(owner)
	c := newClaim(l, uuid.New())

	assert.NoError(t, Approve(l, c, owner))
	assert.Equal(t, models.ClaimApproved, c.Status)
	assert.Equal(t, models.ListingClaimed, l.Status)
}

func TestApproveSecondClaimLosesRace(t *testing.T) {
	owner := uuid.New()
	l := newListing(owner)
	c1 := newClaim(l, uuid.New())
	c2 := newClaim(l, uuid.New())

	assert.NoError(t, Approve(l, c1, owner))

	err := Approve(l, c2, owner)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, models.ClaimPending, c2.Status)
	// The winning claim is untouched by the failed attempt.
	assert.Equal(t, models.ClaimApproved, c1.Status)
}

func TestApproveWrongActor(t *testing.T) {
	l := newListing(uuid.New())
	c := newClaim(l, uuid.New())

	assert.ErrorIs(t, Approve(l, c, uuid.New()), ErrPermissionDenied)
	assert.Equal(t, models.ClaimPending, c.Status)
	assert.Equal(t, models.ListingAvailable, l.Status)
}

func TestRejectKeepsListingAvailable(t *testing.T) {
	owner := uuid.New()
	l := newListing(owner)
	c := newClaim(l, uuid.New())

	assert.NoError(t, Reject(l, c, owner))
	assert.Equal(t, models.ClaimRejected, c.Status)
	assert.Equal(t, models.ListingAvailable, l.Status)

	assert.ErrorIs(t, Reject(l, c, uuid.New()), ErrPermissionDenied)
}

func TestTerminalStatesAreAbsorbing(t *testing.T) {
	owner := uuid.New()
	taker := uuid.New()

	for _, terminal := range []models.ClaimStatus{models.ClaimRejected, models.ClaimPickedUp} {
		l := newListing(owner)
		c := newClaim(l, taker)
		c.Status = terminal

		assert.ErrorIs(t, Approve(l, c, owner), ErrInvalidTransition)
		assert.ErrorIs(t, Reject(l, c, owner), ErrInvalidTransition)
		assert.ErrorIs(t, MarkPickedUp(l, c, taker), ErrInvalidTransition)
		assert.Equal(t, terminal, c.Status)
	}
}

func TestMarkPickedUp(t *testing.T) {
	owner := uuid.New()
	taker := uuid.New()
	l := newListing(owner)
	c := newClaim(l, taker)

	// Pending claims cannot be picked up.
	assert.ErrorIs(t, MarkPickedUp(l, c, taker), ErrInvalidTransition)

	assert.NoError(t, Approve(l, c, owner))

	// Only the claimant can confirm.
	assert.ErrorIs(t, MarkPickedUp(l, c, owner), ErrPermissionDenied)

	assert.NoError(t, MarkPickedUp(l, c, taker))
	assert.Equal(t, models.ClaimPickedUp, c.Status)
	assert.Equal(t, models.ListingCompleted, l.Status)
}

func TestCanRate(t *testing.T) {
	owner := uuid.New()
	taker := uuid.New()
	l := newListing(owner)
	c := newClaim(l, taker)

	assert.ErrorIs(t, CanRate(c, taker), ErrInvalidTransition)

	assert.NoError(t, Approve(l, c, owner))
	assert.NoError(t, MarkPickedUp(l, c, taker))

	assert.NoError(t, CanRate(c, taker))
	assert.ErrorIs(t, CanRate(c, owner), ErrPermissionDenied)
}
