package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eatyaar/backend/internal/database"
	"github.com/eatyaar/backend/internal/models"
	"github.com/eatyaar/backend/internal/service"
	"github.com/eatyaar/backend/internal/types"
)

// MemoryOTPStore is an in-memory service.OTPStore for tests.
type MemoryOTPStore struct {
	mu    sync.Mutex
	otps  map[string]string
	sends map[string]int64
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{
		otps:  make(map[string]string),
		sends: make(map[string]int64),
	}
}

func (s *MemoryOTPStore) SaveOTP(_ context.Context, phone, hash string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otps[phone] = hash
	return nil
}

func (s *MemoryOTPStore) GetOTP(_ context.Context, phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.otps[phone]
	if !ok {
		return "", fmt.Errorf("no OTP for %s", phone)
	}
	return hash, nil
}

func (s *MemoryOTPStore) DeleteOTP(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.otps, phone)
	return nil
}

func (s *MemoryOTPStore) CountSend(_ context.Context, phone string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends[phone]++
	return s.sends[phone], nil
}

// TestDB holds the test database and services
type TestDB struct {
	DB             *gorm.DB
	AuthService    *service.AuthService
	ListingService *service.ListingService
	ClaimService   *service.ClaimService
	RatingService  *service.RatingService
}

// SetupTestDB creates an in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// One connection so every session sees the same :memory: database.
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return &TestDB{
		DB:             db,
		AuthService:    service.NewAuthService(db, NewMemoryOTPStore(), nil, "test-secret"),
		ListingService: service.NewListingService(db),
		ClaimService:   service.NewClaimService(db),
		RatingService:  service.NewRatingService(db),
	}
}

// SetupTestRouter creates a router wired against a fresh test database
func SetupTestRouter(t *testing.T) (*gin.Engine, *TestDB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB := SetupTestDB(t)

	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	NewAuthHandler(testDB.AuthService).RegisterRoutes(v1, nil)
	NewListingHandler(testDB.ListingService, nil, testDB.AuthService).RegisterRoutes(v1)
	NewClaimHandler(testDB.ClaimService, testDB.AuthService).RegisterRoutes(v1)
	NewRatingHandler(testDB.RatingService, testDB.AuthService).RegisterRoutes(v1)

	return router, testDB
}

// CreateTestUserAndToken creates a user and returns it with a valid JWT
func CreateTestUserAndToken(t *testing.T, db *TestDB, name string) (*models.User, string) {
	t.Helper()

	user := models.User{
		Phone: fmt.Sprintf("+91%010d", time.Now().UnixNano()%1e10),
		Name:  name,
		City:  "Pune",
		Area:  "Koregaon Park",
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	token, err := db.AuthService.GenerateToken(&types.TokenClaims{UserID: user.ID, Phone: user.Phone})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return &user, token
}

// CreateTestListing inserts an AVAILABLE listing owned by userID
func CreateTestListing(t *testing.T, db *TestDB, userID uuid.UUID, title string) *models.Listing {
	t.Helper()

	listing := models.Listing{
		Title:          title,
		FoodType:       models.FoodVeg,
		Servings:       3,
		CookedAt:       time.Now().Add(-time.Hour),
		PickupBy:       time.Now().Add(4 * time.Hour),
		AreaName:       "Koregaon Park",
		ExactAddress:   "Flat 4B, Sunrise Apartments, Lane 5",
		City:           "Pune",
		Status:         models.ListingAvailable,
		PostedByUserID: userID,
	}
	if err := db.DB.Create(&listing).Error; err != nil {
		t.Fatalf("failed to create test listing: %v", err)
	}
	return &listing
}

// PerformRequest makes an HTTP request against the test router
func PerformRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		req = httptest.NewRequest(method, path, bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
