package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo describes what can be read from a bearer token without verifying
// it. Tokens are opaque to the client; this is informational only and never
// used to decide whether a session is valid.
type TokenInfo struct {
	JWT       bool
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that lies before now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// InspectToken decodes token claims without checking the signature. Opaque
// (non-JWT) tokens yield a TokenInfo with JWT=false.
func InspectToken(token string) TokenInfo {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}
	}

	info := TokenInfo{
		JWT:     true,
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}
