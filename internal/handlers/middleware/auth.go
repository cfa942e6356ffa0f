package middleware

import (
	"net/http"
	"slices"

	"github.com/marikmarie/collectovault/internal/handlers/actorctx"
	"github.com/marikmarie/collectovault/internal/handlers/render"
	"github.com/marikmarie/collectovault/internal/models"
)

type sessionManager interface {
	Authenticate(r *http.Request) (models.Actor, error)
}

// AuthMiddleware resolves the request's bearer token to an actor and puts
// it into the context
func AuthMiddleware(sm sessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := sm.Authenticate(r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := actorctx.New(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects actors whose role is not listed
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := actorctx.FromContext(r.Context())
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !slices.Contains(roles, actor.Role) {
				render.ServiceError(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
