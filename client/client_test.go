package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyOTPInstallsToken(t *testing.T) {
	userID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/verify-otp":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "+919812345678", body["phone"])
			assert.Equal(t, "123456", body["otp"])
			json.NewEncoder(w).Encode(map[string]interface{}{
				"token":     "session-token",
				"userId":    userID,
				"phone":     body["phone"],
				"isNewUser": true,
			})
		case "/api/v1/users/me":
			assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]interface{}{"id": userID, "name": "Priya"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	assert.False(t, c.Authenticated())

	res, err := c.VerifyOTP(context.Background(), "+919812345678", "123456")
	require.NoError(t, err)
	assert.Equal(t, userID, res.UserID)
	assert.True(t, res.IsNewUser)
	assert.True(t, c.Authenticated())

	// The installed token rides on subsequent requests.
	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Priya", me.Name)

	c.Logout()
	assert.False(t, c.Authenticated())
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "listing is no longer available"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CreateClaim(context.Background(), uuid.New())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "listing is no longer available", apiErr.Message)
	assert.Equal(t, "api error 409: listing is no longer available", apiErr.Error())
}

func TestAPIErrorWithoutMessageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.SendOTP(context.Background(), "+911234567890")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestListingsCityQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/listings", r.URL.Path)
		assert.Equal(t, "Pune", r.URL.Query().Get("city"))
		json.NewEncoder(w).Encode([]map[string]interface{}{{"title": "Misal Pav"}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	listings, err := c.Listings(context.Background(), "Pune")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Misal Pav", listings[0].Title)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL)
	_, err := c.ReceivedClaims(context.Background())
	require.Error(t, err)

	// Transport failures are not API errors; callers (the notification
	// poller in particular) distinguish the two.
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
