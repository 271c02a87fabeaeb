package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// OperatorClaims is the payload of operator access tokens.
type OperatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AccessToken is a signed token with its expiry.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// NewAccessToken signs an HS256 token for the operator.
func NewAccessToken(secret string, userID uuid.UUID, role string, ttl time.Duration, now time.Time) (AccessToken, error) {
	exp := now.Add(ttl).UTC()
	claims := OperatorClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now.UTC()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}
	return AccessToken{Token: signed, ExpiresAt: exp}, nil
}

// ParseAccessToken verifies the signature and checks expiry against now. It returns the operator id and role.
func ParseAccessToken(secret, raw string, now time.Time) (uuid.UUID, string, error) {
	var claims OperatorClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return uuid.Nil, "", err
	}
	if !tok.Valid {
		return uuid.Nil, "", errors.New("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid subject %q: %w", claims.Subject, err)
	}
	return userID, claims.Role, nil
}
