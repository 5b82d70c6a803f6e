package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type contextKey struct{}

var addressKey contextKey

// AddressFromContext returns the authenticated wallet address stored by the
// middleware.
func AddressFromContext(ctx context.Context) (string, bool) {
	address, ok := ctx.Value(addressKey).(string)
	return address, ok
}

// ContextWithAddress stores an authenticated wallet address. Used by the
// middleware and by handler tests.
func ContextWithAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, addressKey, address)
}

// Middleware guards a route with bearer-token authentication. Requests
// without a valid token get a 401 JSON error.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeUnauthorized(w, "Unauthorized")
			return
		}

		address, err := s.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.logger.Debug("Token verification failed", zap.Error(err))
			writeUnauthorized(w, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithAddress(r.Context(), address)))
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
