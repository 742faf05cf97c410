package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
)

// SessionClaims binds a token to one (user, session) pair. Revoking the
// session invalidates every copy of the token even before expiry.
type SessionClaims struct {
	UID       int    `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenManager issues and resolves the opaque session tokens the route
// layer carries. Signing mechanics stay inside this package.
type TokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

func (m *TokenManager) Issue(uID int, sessionID string) (string, error) {
	claims := SessionClaims{
		UID:       uID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Resolve checks the signature and returns the embedded pair. Whether the
// session is still active is the caller's concern; a malformed or expired
// token is always Unauthenticated.
func (m *TokenManager) Resolve(tokenStr string) (uID int, sessionID string, err error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", domain.Unauthenticatedf("invalid token")
	}
	return claims.UID, claims.SessionID, nil
}
