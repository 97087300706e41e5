package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type claimsKey struct{}

// Middleware enforces a "Bearer <token>" Authorization header, validates
// the JWT, and stores the parsed claims on the request context for
// handlers to read via GetRequestClaims. This is the bearer-token check
// spec.md §6 requires for dashboard CRUD and the release/rollback
// endpoints.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := s.GetUserClaims(token)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	prefix := "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimPrefix(header, prefix)
	if token == "" {
		return "", false
	}

	return token, true
}

func (s *Service) GetRequestClaims(r *http.Request) (*UserClaims, error) {
	value := r.Context().Value(claimsKey{})

	if value == nil {
		return nil, errors.New("request missing user claim")
	}

	return value.(*UserClaims), nil
}
