package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"reviewhub/internal/perm"
)

// ContextKey is the type for request-context keys set by the middleware.
type ContextKey string

// ActorKey holds the *perm.Actor for the authenticated caller.
const ActorKey ContextKey = "actor"

// actorFrom recovers the actor from the request context; nil for anonymous
// requests.
func actorFrom(ctx context.Context) *perm.Actor {
	a, _ := ctx.Value(ActorKey).(*perm.Actor)
	return a
}

// Authenticate resolves an Authorization header into an actor when one is
// present. Requests without a header pass through anonymously; a header that
// is present but invalid is rejected so callers never operate under a
// half-broken identity.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			h.logger.WarnContext(r.Context(), "Invalid Authorization header format")
			h.respondError(w, r, http.StatusUnauthorized, "invalid Authorization header format")
			return
		}

		claims, err := h.tokenManager.Validate(parts[1])
		if err != nil {
			h.logger.WarnContext(r.Context(), "Invalid or expired token", slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		actor := &perm.Actor{UserID: claims.UserID, Role: claims.Role}
		ctx := context.WithValue(r.Context(), ActorKey, actor)
		h.logger.DebugContext(ctx, "Token validated",
			slog.String("userID", actor.UserID), slog.String("role", actor.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous requests. It sits behind Authenticate on
// subrouters whose every route needs an identity.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actorFrom(r.Context()) == nil {
			h.respondError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
