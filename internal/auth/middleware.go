package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
	"github.com/odyssey-erp/interco/internal/shared"
)

// Middleware authenticates API keys presented as "Authorization: Bearer
// <token>" or "X-API-Key: <token>" and stores the principal in context.
func Middleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "an API key is required")
				return
			}
			principal, err := service.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, shared.ErrInvalidAPIKey) {
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid API key")
					return
				}
				httpx.Fail(w, r, logger, "authenticate api key", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}
