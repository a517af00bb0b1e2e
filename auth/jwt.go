package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserHeader carries the acting user when token auth is disabled.
const UserHeader = "X-User-Id"

var ErrUnauthenticated = errors.New("unauthenticated")

type JWT struct{ secret []byte }

func NewJWT(secret string) *JWT { return &JWT{secret: []byte(secret)} }

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Sign issues an HS256 token for userID valid for ttl.
func (j *JWT) Sign(userID string, ttl time.Duration) (string, error) {
	claims := Claims{UserID: userID, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// Parse validates token and returns its claims.
func (j *JWT) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if c, ok := parsed.Claims.(*Claims); ok && parsed.Valid && c.UserID != "" {
		return c, nil
	}
	return nil, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
}

type contextKey struct{}

// WithUser stores the acting user on ctx.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserFrom returns the acting user stored by Middleware.
func UserFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(contextKey{}).(string)
	return userID, ok && userID != ""
}

// Authenticator resolves the acting user of a request. With a nil JWT the
// X-User-Id header is trusted, which is only meant for local runs.
type Authenticator struct {
	JWT *JWT
}

// Resolve returns the acting user of r.
func (a *Authenticator) Resolve(r *http.Request) (string, error) {
	if a.JWT == nil {
		if userID := strings.TrimSpace(r.Header.Get(UserHeader)); userID != "" {
			return userID, nil
		}
		return "", fmt.Errorf("%w: missing %s header", ErrUnauthenticated, UserHeader)
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}
	claims, err := a.JWT.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// Middleware rejects requests without an acting user.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.Resolve(r)
		if err != nil {
			log.Printf("🔒 Rejected %s %s: %v", r.Method, r.URL.Path, err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthenticated"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}
