package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eatyaar/backend/internal/middleware"
	"github.com/eatyaar/backend/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, limiter gin.HandlerFunc) {
	auth := router.Group("/auth")
	{
		if limiter != nil {
			auth.POST("/send-otp", limiter, h.SendOTP)
		} else {
			auth.POST("/send-otp", h.SendOTP)
		}
		auth.POST("/verify-otp", h.VerifyOTP)
		auth.PATCH("/profile", middleware.AuthMiddleware(h.authService), h.UpdateProfile)
	}
	router.GET("/users/me", middleware.AuthMiddleware(h.authService), h.Me)
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "phone is required"})
		return
	}

	if err := h.authService.SendOTP(c.Request.Context(), req.Phone); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "phone and otp are required"})
		return
	}

	token, user, isNewUser, err := h.authService.VerifyOTP(c.Request.Context(), req.Phone, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token:     token,
		UserID:    user.ID,
		Phone:     user.Phone,
		IsNewUser: isNewUser,
	})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name and city are required"})
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), uid, req.Name, req.City, req.Area)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		ID:         user.ID,
		Phone:      user.Phone,
		Name:       user.Name,
		City:       user.City,
		Area:       user.Area,
		TrustScore: user.TrustScore,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		ID:         user.ID,
		Phone:      user.Phone,
		Name:       user.Name,
		City:       user.City,
		Area:       user.Area,
		TrustScore: user.TrustScore,
	})
}
