package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	// DoctorKey holds the authenticated doctor ID in the request context.
	DoctorKey contextKey = "doctor"
)

// JWTAuth validates a Bearer token signed with HS256 and stores the doctor ID
// from the subject claim in the request context. Health and probe endpoints
// are left open.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	keyFunc := func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbePath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if raw == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(raw, keyFunc,
				jwt.WithValidMethods([]string{"HS256"}),
			)
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			doctor, err := token.Claims.GetSubject()
			if err != nil || doctor == "" {
				http.Error(w, "token has no subject", http.StatusUnauthorized)
				return
			}
			if err := ValidateDoctorID(doctor); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			ctx := context.WithValue(r.Context(), DoctorKey, doctor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetDoctorFromContext extracts the authenticated doctor ID.
func GetDoctorFromContext(ctx context.Context) string {
	if doctor, ok := ctx.Value(DoctorKey).(string); ok {
		return doctor
	}
	return ""
}

func isProbePath(path string) bool {
	switch path {
	case "/health", "/ready", "/live":
		return true
	}
	return false
}
