package auth

import "time"

// AccessClaims are the claims carried in a readtrack access token.
// v4.local tokens are encrypted, so clients cannot read them without the server key.
type AccessClaims struct {
	UserID string `json:"user_id"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}
