package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatyaar/backend/internal/lifecycle"
	"github.com/eatyaar/backend/internal/models"
	"github.com/eatyaar/backend/internal/service"
	"github.com/eatyaar/backend/internal/testhelpers"
)

// TestConcurrentApprovals hammers a single listing with concurrent
// approvals against real PostgreSQL. Exactly one may win; the row lock
// and the partial unique index both defend this.
func TestConcurrentApprovals(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ctx := context.Background()

	giver := models.User{Phone: "+919800000001", Name: "Priya", City: "Pune"}
	require.NoError(t, db.Create(&giver).Error)

	listing := models.Listing{
		Title:          "Veg Biryani",
		FoodType:       models.FoodVeg,
		Servings:       4,
		CookedAt:       time.Now().Add(-time.Hour),
		PickupBy:       time.Now().Add(4 * time.Hour),
		AreaName:       "Aundh",
		ExactAddress:   "12 Green View Society",
		City:           "Pune",
		Status:         models.ListingAvailable,
		PostedByUserID: giver.ID,
	}
	require.NoError(t, db.Create(&listing).Error)

	claims := service.NewClaimService(db)

	const takers = 8
	claimIDs := make([]uuid.UUID, takers)
	for i := 0; i < takers; i++ {
		taker := models.User{
			Phone: fmt.Sprintf("+9198000001%02d", i),
			Name:  fmt.Sprintf("Taker %d", i),
			City:  "Pune",
		}
		require.NoError(t, db.Create(&taker).Error)

		claim, err := claims.Create(ctx, listing.ID, taker.ID)
		require.NoError(t, err)
		claimIDs[i] = claim.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, takers)
	for i := 0; i < takers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = claims.Approve(ctx, claimIDs[i], giver.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, lifecycle.ErrAlreadyClaimed)
		}
	}
	assert.Equal(t, 1, wins, "exactly one approval must win")

	var approved int64
	require.NoError(t, db.Model(&models.Claim{}).
		Where("listing_id = ? AND status = ?", listing.ID, models.ClaimApproved).
		Count(&approved).Error)
	assert.EqualValues(t, 1, approved)

	var dbListing models.Listing
	require.NoError(t, db.First(&dbListing, "id = ?", listing.ID).Error)
	assert.Equal(t, models.ListingClaimed, dbListing.Status)
}

// TestConcurrentApproveAndReject races an approval against a rejection
// of the same claim. Exactly one transition may apply, and the surviving
// claim/listing pair must be consistent: APPROVED goes with CLAIMED,
// REJECTED goes with AVAILABLE. A stale read of the claim status would
// let the loser overwrite the winner.
func TestConcurrentApproveAndReject(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ctx := context.Background()

	giver := models.User{Phone: "+919800000010", Name: "Priya", City: "Pune"}
	require.NoError(t, db.Create(&giver).Error)
	taker := models.User{Phone: "+919800000011", Name: "Arjun", City: "Pune"}
	require.NoError(t, db.Create(&taker).Error)

	claims := service.NewClaimService(db)

	for round := 0; round < 10; round++ {
		listing := models.Listing{
			Title:          fmt.Sprintf("Chole Bhature %d", round),
			FoodType:       models.FoodVeg,
			Servings:       2,
			CookedAt:       time.Now().Add(-time.Hour),
			PickupBy:       time.Now().Add(4 * time.Hour),
			AreaName:       "Aundh",
			ExactAddress:   "12 Green View Society",
			City:           "Pune",
			Status:         models.ListingAvailable,
			PostedByUserID: giver.ID,
		}
		require.NoError(t, db.Create(&listing).Error)

		claim, err := claims.Create(ctx, listing.ID, taker.ID)
		require.NoError(t, err)

		var wg sync.WaitGroup
		var approveErr, rejectErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, approveErr = claims.Approve(ctx, claim.ID, giver.ID)
		}()
		go func() {
			defer wg.Done()
			_, rejectErr = claims.Reject(ctx, claim.ID, giver.ID)
		}()
		wg.Wait()

		if approveErr == nil {
			assert.ErrorIs(t, rejectErr, lifecycle.ErrInvalidTransition)
		} else {
			require.NoError(t, rejectErr)
			assert.ErrorIs(t, approveErr, lifecycle.ErrInvalidTransition)
		}

		var dbClaim models.Claim
		require.NoError(t, db.First(&dbClaim, "id = ?", claim.ID).Error)
		var dbListing models.Listing
		require.NoError(t, db.First(&dbListing, "id = ?", listing.ID).Error)

		switch dbClaim.Status {
		case models.ClaimApproved:
			assert.Equal(t, models.ListingClaimed, dbListing.Status)
			assert.NoError(t, approveErr)
		case models.ClaimRejected:
			assert.Equal(t, models.ListingAvailable, dbListing.Status)
			assert.NoError(t, rejectErr)
		default:
			t.Fatalf("claim left in %s after racing transitions", dbClaim.Status)
		}
	}
}

// TestActiveClaimIndexBackstop verifies the database itself rejects a
// second active claim per listing, independent of the service layer.
func TestActiveClaimIndexBackstop(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)

	giver := models.User{Phone: "+919800000002", Name: "Priya", City: "Pune"}
	require.NoError(t, db.Create(&giver).Error)
	taker1 := models.User{Phone: "+919800000003", Name: "Arjun", City: "Pune"}
	require.NoError(t, db.Create(&taker1).Error)
	taker2 := models.User{Phone: "+919800000004", Name: "Meera", City: "Pune"}
	require.NoError(t, db.Create(&taker2).Error)

	listing := models.Listing{
		Title:          "Dal Makhani",
		FoodType:       models.FoodVeg,
		Servings:       2,
		CookedAt:       time.Now().Add(-time.Hour),
		PickupBy:       time.Now().Add(3 * time.Hour),
		AreaName:       "Baner",
		ExactAddress:   "7 Hill Road",
		City:           "Pune",
		Status:         models.ListingAvailable,
		PostedByUserID: giver.ID,
	}
	require.NoError(t, db.Create(&listing).Error)

	first := models.Claim{
		ListingID:       listing.ID,
		ClaimedByUserID: taker1.ID,
		ClaimedByName:   taker1.Name,
		Status:          models.ClaimApproved,
	}
	require.NoError(t, db.Create(&first).Error)

	second := models.Claim{
		ListingID:       listing.ID,
		ClaimedByUserID: taker2.ID,
		ClaimedByName:   taker2.Name,
		Status:          models.ClaimApproved,
	}
	err := db.Create(&second).Error
	require.Error(t, err, "unique index must reject a second active claim")

	// PENDING and REJECTED claims are unconstrained.
	pending := models.Claim{
		ListingID:       listing.ID,
		ClaimedByUserID: taker2.ID,
		ClaimedByName:   taker2.Name,
		Status:          models.ClaimPending,
	}
	assert.NoError(t, db.Create(&pending).Error)
}
