package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	AuthenticatedUserContextKey = ContextKey("authenticatedUser")
)

// Roles carried in session tokens. RoleScanner marks internal callers
// (the eligibility scanner) allowed to draft on behalf of other users.
const (
	RoleUser    = "user"
	RoleScanner = "scanner"
	RoleAdmin   = "admin"
)

// AuthenticatedUser holds information about the authenticated caller.
type AuthenticatedUser struct {
	ID   uuid.UUID
	Role string
}

// CanActFor reports whether the caller may draft on behalf of userID.
func (u AuthenticatedUser) CanActFor(userID uuid.UUID) bool {
	return u.ID == userID || u.Role == RoleScanner || u.Role == RoleAdmin
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// TriggerAuthMiddleware authenticates scheduler trigger calls with a
// shared bearer secret. Any other credential is rejected.
func TriggerAuthMiddleware(triggerSecret string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(r.Context(), "Trigger call without bearer credential")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(triggerSecret)) != 1 {
				logger.WarnContext(r.Context(), "Trigger call with invalid shared secret")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionAuthMiddleware authenticates UI calls with a user session JWT
// (HS256) and injects the caller into the request context.
func SessionAuthMiddleware(jwtSecret string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(r.Context(), "Session call without bearer token")
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				logger.WarnContext(r.Context(), "Session token validation failed", "error", err)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				logger.WarnContext(r.Context(), "Session token missing subject")
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				logger.WarnContext(r.Context(), "Session token subject is not a user ID", "sub", sub)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			role := RoleUser
			if v, ok := claims["role"].(string); ok && v != "" {
				role = v
			}

			authUser := AuthenticatedUser{ID: userID, Role: role}
			ctx := context.WithValue(r.Context(), AuthenticatedUserContextKey, authUser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
