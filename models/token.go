package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the JWT payload. The server signs and verifies it; the
// client core only decodes it to learn who it is.
type TokenClaims struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	jwt.RegisteredClaims
}
