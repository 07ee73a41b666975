// Package session carries the authenticated store context. Every
// store-scoped operation receives it explicitly; the store id is the
// sole partition key for customers, transactions, logs and settings.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"fiado/internal/core"
)

// Session identifies an authenticated user operating on one store.
type Session struct {
	UserID    string
	StoreID   string
	StoreName string
	LoginAt   time.Time
}

var (
	ErrNoSession    = errors.New("no session in context")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the JWT payload for a session token.
type Claims struct {
	StoreID   string `json:"storeId"`
	StoreName string `json:"storeName"`
	jwt.RegisteredClaims
}

// TokenTTL is how long an issued session token stays valid.
const TokenTTL = 24 * time.Hour

// Issue signs a session token for the given user and store.
func Issue(secret []byte, s Session, now time.Time) (string, error) {
	claims := Claims{
		StoreID:   s.StoreID,
		StoreName: s.StoreName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and reconstructs the session it carries.
func Parse(secret []byte, tokenString string) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.StoreID == "" {
		return Session{}, ErrInvalidToken
	}
	s := Session{
		UserID:    claims.Subject,
		StoreID:   claims.StoreID,
		StoreName: claims.StoreName,
	}
	if claims.IssuedAt != nil {
		s.LoginAt = claims.IssuedAt.Time
	}
	return s, nil
}

type ctxKey struct{}

// NewContext attaches a session to ctx.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext extracts the session placed by NewContext.
func FromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok {
		return Session{}, ErrNoSession
	}
	if s.StoreID == "" {
		return Session{}, core.ErrNoStoreContext
	}
	return s, nil
}
