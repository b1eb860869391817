package models

// JWTClaims holds the identity claims this service reads from a verified access token.
type JWTClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Iss   string `json:"iss"`
}
