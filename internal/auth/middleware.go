package auth

import (
	"net/http"
	"strings"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// TokenVerifier turns a bearer token into a User.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*User, error)
}

type Middleware struct {
	verifier TokenVerifier
}

func NewMiddleware(verifier TokenVerifier) *Middleware {
	return &Middleware{
		verifier: verifier,
	}
}

func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get(authorizationHeader)
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			if cookie, err := r.Cookie(AccessTokenCookieName); err == nil && cookie.Value != "" {
				authHeader = bearerPrefix + cookie.Value
			} else {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
		}

		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		user, err := m.verifier.VerifyToken(tokenString)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
