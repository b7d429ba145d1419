package model

import "github.com/golang-jwt/jwt/v5"

// PlayerClaims is the JWT payload for a logged-in player.
type PlayerClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// LoginResponse is returned when a player logs in.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}
