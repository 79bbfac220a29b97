package model

import "github.com/google/uuid"

// TokenClaims carries the identity extracted from a validated token.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// LoginResponse is the login payload: the profile plus a bearer token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
