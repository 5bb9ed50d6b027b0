package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatyaar/backend/internal/service"
)

// captureSMSSender records the last message instead of sending it, so
// tests can read the OTP back out.
type captureSMSSender struct {
	lastPhone   string
	lastMessage string
}

func (s *captureSMSSender) Send(_ context.Context, phone, message string) error {
	s.lastPhone = phone
	s.lastMessage = message
	return nil
}

func (s *captureSMSSender) lastOTP() string {
	// "Your EatYaar login code is 123456"
	parts := strings.Fields(s.lastMessage)
	return parts[len(parts)-1]
}

func setupAuthRouter(t *testing.T) (*gin.Engine, *TestDB, *captureSMSSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB := SetupTestDB(t)
	sms := &captureSMSSender{}
	testDB.AuthService = service.NewAuthService(testDB.DB, NewMemoryOTPStore(), sms, "test-secret")

	router := gin.New()
	v1 := router.Group("/api/v1")
	NewAuthHandler(testDB.AuthService).RegisterRoutes(v1, nil)
	return router, testDB, sms
}

func TestOTPLoginFlow(t *testing.T) {
	router, _, sms := setupAuthRouter(t)
	phone := "+919812345678"

	w := PerformRequest(router, http.MethodPost, "/api/v1/auth/send-otp", "", SendOTPRequest{Phone: phone})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, phone, sms.lastPhone)

	w = PerformRequest(router, http.MethodPost, "/api/v1/auth/verify-otp", "",
		VerifyOTPRequest{Phone: phone, OTP: sms.lastOTP()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var auth AuthResponse
	decodeJSON(t, w.Body.Bytes(), &auth)
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, phone, auth.Phone)
	assert.True(t, auth.IsNewUser)

	// Complete the profile; the user is no longer "new" next login.
	w = PerformRequest(router, http.MethodPatch, "/api/v1/auth/profile", auth.Token,
		UpdateProfileRequest{Name: "Priya", City: "Pune", Area: "Aundh"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = PerformRequest(router, http.MethodPost, "/api/v1/auth/send-otp", "", SendOTPRequest{Phone: phone})
	require.Equal(t, http.StatusOK, w.Code)
	w = PerformRequest(router, http.MethodPost, "/api/v1/auth/verify-otp", "",
		VerifyOTPRequest{Phone: phone, OTP: sms.lastOTP()})
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w.Body.Bytes(), &auth)
	assert.False(t, auth.IsNewUser)

	w = PerformRequest(router, http.MethodGet, "/api/v1/users/me", auth.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me UserResponse
	decodeJSON(t, w.Body.Bytes(), &me)
	assert.Equal(t, "Priya", me.Name)
	assert.Equal(t, "Pune", me.City)
}

func TestVerifyWrongOTP(t *testing.T) {
	router, _, _ := setupAuthRouter(t)
	phone := "+919812345679"

	w := PerformRequest(router, http.MethodPost, "/api/v1/auth/send-otp", "", SendOTPRequest{Phone: phone})
	require.Equal(t, http.StatusOK, w.Code)

	w = PerformRequest(router, http.MethodPost, "/api/v1/auth/verify-otp", "",
		VerifyOTPRequest{Phone: phone, OTP: "000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestOTPSingleUse(t *testing.T) {
	router, _, sms := setupAuthRouter(t)
	phone := "+919812345680"

	w := PerformRequest(router, http.MethodPost, "/api/v1/auth/send-otp", "", SendOTPRequest{Phone: phone})
	require.Equal(t, http.StatusOK, w.Code)
	otp := sms.lastOTP()

	w = PerformRequest(router, http.MethodPost, "/api/v1/auth/verify-otp", "",
		VerifyOTPRequest{Phone: phone, OTP: otp})
	require.Equal(t, http.StatusOK, w.Code)

	w = PerformRequest(router, http.MethodPost, "/api/v1/auth/verify-otp", "",
		VerifyOTPRequest{Phone: phone, OTP: otp})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOTPResendCap(t *testing.T) {
	router, _, _ := setupAuthRouter(t)
	phone := "+919812345681"

	for i := 0; i < 3; i++ {
		w := PerformRequest(router, http.MethodPost, "/api/v1/auth/send-otp", "", SendOTPRequest{Phone: phone})
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := PerformRequest(router, http.MethodPost, "/api/v1/auth/send-otp", "", SendOTPRequest{Phone: phone})
	assert.Equal(t, http.StatusTooManyRequests, w.Code, w.Body.String())
}
