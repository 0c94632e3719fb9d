// Package middleware holds the HTTP wrappers shared by every route.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrNotAdmin     = errors.New("admin role required")
)

// Claims is the token payload accepted by the admin routes.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// SubjectFromContext returns the authenticated token subject.
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// IssueAdminToken signs an HS256 admin token, for tooling and tests.
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseAdmin(secret, header string) (*Claims, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Role != RoleAdmin {
		return nil, ErrNotAdmin
	}
	return claims, nil
}

// AdminAuth rejects requests without a valid admin bearer token. An empty
// secret disables the guarded routes entirely.
func AdminAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeError(w, http.StatusServiceUnavailable, "admin access not configured")
				return
			}
			claims, err := parseAdmin(secret, r.Header.Get("Authorization"))
			if errors.Is(err, ErrNotAdmin) {
				writeError(w, http.StatusForbidden, err.Error())
				return
			}
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKey{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
