package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/eatyaar/backend/internal/models"
	"github.com/eatyaar/backend/internal/types"
)

const (
	otpTTL         = 5 * time.Minute
	otpResendCap   = 3
	otpResendScope = 10 * time.Minute
)

var (
	ErrInvalidOTP      = errors.New("invalid or expired OTP")
	ErrTooManyRequests = errors.New("too many OTP requests, try again later")
)

// OTPStore holds short-lived OTP hashes keyed by phone number. The redis
// implementation lives in internal/database.
type OTPStore interface {
	SaveOTP(ctx context.Context, phone, hash string, ttl time.Duration) error
	GetOTP(ctx context.Context, phone string) (string, error)
	DeleteOTP(ctx context.Context, phone string) error
	CountSend(ctx context.Context, phone string, window time.Duration) (int64, error)
}

// SMSSender delivers the OTP to the user's phone. The default just logs,
// which is all local development needs.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

type LogSMSSender struct{}

func (LogSMSSender) Send(_ context.Context, phone, message string) error {
	log.Printf("SMS to %s: %s", phone, message)
	return nil
}

type AuthService struct {
	db        *gorm.DB
	otps      OTPStore
	sms       SMSSender
	jwtSecret string
}

func NewAuthService(db *gorm.DB, otps OTPStore, sms SMSSender, jwtSecret string) *AuthService {
	if sms == nil {
		sms = LogSMSSender{}
	}
	return &AuthService{
		db:        db,
		otps:      otps,
		sms:       sms,
		jwtSecret: jwtSecret,
	}
}

// SendOTP generates a one-time code, stores a bcrypt hash of it with a
// short TTL and delivers it over SMS. Resends are rate limited per phone.
func (s *AuthService) SendOTP(ctx context.Context, phone string) error {
	sends, err := s.otps.CountSend(ctx, phone, otpResendScope)
	if err != nil {
		return err
	}
	if sends > otpResendCap {
		return ErrTooManyRequests
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.otps.SaveOTP(ctx, phone, string(hash), otpTTL); err != nil {
		return err
	}

	return s.sms.Send(ctx, phone, fmt.Sprintf("Your EatYaar login code is %s", code))
}

// VerifyOTP checks the code, consumes it and returns a session token. A
// user row is created on first login; IsNewUser tells the client to run
// the profile-completion step.
func (s *AuthService) VerifyOTP(ctx context.Context, phone, code string) (token string, user *models.User, isNewUser bool, err error) {
	hash, err := s.otps.GetOTP(ctx, phone)
	if err != nil {
		return "", nil, false, ErrInvalidOTP
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return "", nil, false, ErrInvalidOTP
	}
	// One verification per code.
	if err := s.otps.DeleteOTP(ctx, phone); err != nil {
		return "", nil, false, err
	}

	var u models.User
	err = s.db.WithContext(ctx).Where("phone = ?", phone).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		u = models.User{Phone: phone}
		if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
			return "", nil, false, err
		}
		isNewUser = true
	case err != nil:
		return "", nil, false, err
	default:
		isNewUser = !u.ProfileComplete()
	}

	token, err = s.GenerateToken(&types.TokenClaims{UserID: u.ID, Phone: u.Phone})
	if err != nil {
		return "", nil, false, err
	}
	return token, &u, isNewUser, nil
}

// UpdateProfile fills in the onboarding fields after first login.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, name, city, area string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	u.Name = name
	u.City = city
	u.Area = area
	if err := s.db.WithContext(ctx).Save(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *AuthService) GenerateToken(claims *types.TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": claims.UserID.String(),
		"phone":   claims.Phone,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, err
	}

	phone, _ := claims["phone"].(string)
	return &types.TokenClaims{UserID: userID, Phone: phone}, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
