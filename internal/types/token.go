package types

import "github.com/google/uuid"

// TokenClaims represents the claims carried by a session JWT
type TokenClaims struct {
	UserID uuid.UUID
	Phone  string
}
