package auth

import (
	"fmt"
	"time"

	"mediaforge/models"

	"github.com/golang-jwt/jwt/v5"
)

// TokenManager signs and validates access tokens. Tokens carry the subject
// username, the numeric user id, and an expiry; nothing else. Validation is
// stateless: the token itself is the source of truth within its window.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

func NewTokenManager(secret, algorithm string, ttl time.Duration) (*TokenManager, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm: %s", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm: %s", algorithm)
	}

	return &TokenManager{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
	}, nil
}

type accessClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"id"`
}

// Sign creates an access token for the given user. Expiry is fixed at
// issuance; there is no renewal or revocation.
func (m *TokenManager) Sign(username string, userID int64) (string, error) {
	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(m.method, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Parse validates a token and extracts the Principal.
func (m *TokenManager) Parse(tokenString string) (models.Principal, error) {
	if tokenString == "" {
		return models.Principal{}, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return models.Principal{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return models.Principal{}, fmt.Errorf("invalid token claims")
	}

	if claims.Subject == "" || claims.UserID == 0 {
		return models.Principal{}, fmt.Errorf("token missing subject or id")
	}

	return models.Principal{Username: claims.Subject, ID: claims.UserID}, nil
}
