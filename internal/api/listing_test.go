package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatyaar/backend/internal/models"
)

func validListingRequest() CreateListingRequest {
	return CreateListingRequest{
		Title:        "Veg Pulao",
		Description:  "Made this morning, too much for two people",
		FoodType:     "VEG",
		Servings:     4,
		CookedAt:     time.Now().Add(-2 * time.Hour),
		PickupBy:     time.Now().Add(5 * time.Hour),
		AreaName:     "Aundh",
		ExactAddress: "12 Green View Society, near DAV school",
		City:         "Pune",
	}
}

func TestCreateListing(t *testing.T) {
	router, db := SetupTestRouter(t)
	user, token := CreateTestUserAndToken(t, db, "Priya")

	w := PerformRequest(router, http.MethodPost, "/api/v1/listings", token, validListingRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp ListingResponse
	decodeJSON(t, w.Body.Bytes(), &resp)
	assert.Equal(t, "Veg Pulao", resp.Title)
	assert.Equal(t, models.ListingAvailable, resp.Status)
	assert.Equal(t, user.ID, resp.PostedByUserID)
	// The owner sees their own address back.
	assert.Equal(t, "12 Green View Society, near DAV school", resp.ExactAddress)
}

func TestCreateListingValidation(t *testing.T) {
	router, db := SetupTestRouter(t)
	_, token := CreateTestUserAndToken(t, db, "Priya")

	tests := []struct {
		name   string
		mutate func(*CreateListingRequest)
	}{
		{"negative servings", func(r *CreateListingRequest) { r.Servings = -1 }},
		{"pickup before cooked", func(r *CreateListingRequest) { r.PickupBy = r.CookedAt.Add(-time.Hour) }},
		{"unknown food type", func(r *CreateListingRequest) { r.FoodType = "VEGAN" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validListingRequest()
			tt.mutate(&req)
			w := PerformRequest(router, http.MethodPost, "/api/v1/listings", token, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestSearchListings(t *testing.T) {
	router, db := SetupTestRouter(t)
	giver, _ := CreateTestUserAndToken(t, db, "Priya")

	pune := CreateTestListing(t, db, giver.ID, "Misal Pav")
	mumbai := CreateTestListing(t, db, giver.ID, "Vada Pav")
	require.NoError(t, db.DB.Model(&models.Listing{}).
		Where("id = ?", mumbai.ID).
		Update("city", "Mumbai").Error)

	// Past pickup window; must not show up in search.
	expired := CreateTestListing(t, db, giver.ID, "Old Upma")
	require.NoError(t, db.DB.Model(&models.Listing{}).
		Where("id = ?", expired.ID).
		Update("pickup_by", time.Now().Add(-time.Hour)).Error)

	w := PerformRequest(router, http.MethodGet, "/api/v1/listings?city=pune", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var results []ListingResponse
	decodeJSON(t, w.Body.Bytes(), &results)
	require.Len(t, results, 1)
	assert.Equal(t, pune.ID, results[0].ID)
	// Anonymous viewers never get the exact address.
	assert.Empty(t, results[0].ExactAddress)
}

func TestSearchRequiresCity(t *testing.T) {
	router, _ := SetupTestRouter(t)

	w := PerformRequest(router, http.MethodGet, "/api/v1/listings", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func performPhotoUpload(t *testing.T, router *gin.Engine, listingID uuid.UUID, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "plate.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a jpeg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listingID.String()+"/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadPhotoOwnership(t *testing.T) {
	router, db := SetupTestRouter(t)
	giver, giverToken := CreateTestUserAndToken(t, db, "Priya")
	_, strangerToken := CreateTestUserAndToken(t, db, "Arjun")
	listing := CreateTestListing(t, db, giver.ID, "Thepla")

	// A stranger is refused before the upload path is entered.
	w := performPhotoUpload(t, router, listing.ID, strangerToken)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	// The owner gets through the ownership check; with no photo storage
	// configured the upload itself is unavailable.
	w = performPhotoUpload(t, router, listing.ID, giverToken)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())

	w = performPhotoUpload(t, router, uuid.New(), giverToken)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestMyListingsShowsDerivedExpiry(t *testing.T) {
	router, db := SetupTestRouter(t)
	giver, token := CreateTestUserAndToken(t, db, "Priya")

	listing := CreateTestListing(t, db, giver.ID, "Leftover Pasta")
	require.NoError(t, db.DB.Model(&models.Listing{}).
		Where("id = ?", listing.ID).
		Update("pickup_by", time.Now().Add(-time.Minute)).Error)

	w := PerformRequest(router, http.MethodGet, "/api/v1/listings/my", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var results []ListingResponse
	decodeJSON(t, w.Body.Bytes(), &results)
	require.Len(t, results, 1)
	// Stored status is still AVAILABLE; the response derives EXPIRED.
	assert.Equal(t, models.ListingExpired, results[0].Status)
	assert.Equal(t, listing.ExactAddress, results[0].ExactAddress)
}
