package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dmoura/carteira/internal/handlers/render"
	"github.com/dmoura/carteira/internal/handlers/resellerctx"
	"github.com/dmoura/carteira/internal/models"
)

type authService interface {
	Authenticate(ctx context.Context, access string) (models.Reseller, error)
}

// AuthMiddleware authenticates requests by the Bearer access token and
// stores the reseller in the request context.
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || access == "" {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			reseller, err := as.Authenticate(r.Context(), access)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := resellerctx.NewContext(r.Context(), reseller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WebhookAuthMiddleware guards the payment confirmation endpoint with a
// static shared token known to the payment collaborator.
func WebhookAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Webhook-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
