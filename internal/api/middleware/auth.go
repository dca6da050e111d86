package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/eventhall/server/internal/api/apierror"
	"github.com/eventhall/server/internal/auth"
	"github.com/eventhall/server/internal/config"
	"github.com/eventhall/server/internal/domain/users"
)

const (
	identityKey contextKey = "identity"
	userKey     contextKey = "user"
)

// IdentityFromContext returns the verified identity, if any.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(auth.Identity)
	return identity, ok
}

// UserFromContext returns the resolved user, if any.
func UserFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(userKey).(*users.User)
	return user, ok
}

// ContextWithIdentity returns a context carrying the verified
// identity.
func ContextWithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// ContextWithUser returns a context carrying the resolved user.
func ContextWithUser(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// Authenticate verifies the bearer token and stores the identity in
// the request context. When the caller already has a user record it is
// resolved and stored alongside; first-time callers reach the sync
// endpoint with identity only.
//
// A configured dev token bypasses verification and resolves the
// configured dev email instead. Config loading rejects the dev token
// in production.
func Authenticate(verifier auth.TokenVerifier, usersService *users.Service, cfg config.AuthConfig, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", err, env)
				return
			}

			ctx := r.Context()

			if cfg.DevToken != "" && token == cfg.DevToken {
				user, err := usersService.GetByEmail(ctx, cfg.DevEmail)
				if err != nil {
					apierror.Write(w, r, http.StatusUnauthorized, "Dev user not found", err, env)
					return
				}
				identity := auth.Identity{
					SubjectID: user.SubjectID,
					Email:     user.Email,
					Name:      user.FullName,
				}
				ctx = ContextWithIdentity(ctx, identity)
				ctx = ContextWithUser(ctx, user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			identity, err := verifier.Verify(ctx, token)
			if err != nil {
				apierror.Write(w, r, http.StatusUnauthorized, "Invalid or expired token", err, env)
				return
			}
			ctx = ContextWithIdentity(ctx, identity)

			user, err := usersService.GetBySubjectID(ctx, identity.SubjectID)
			if err != nil && !errors.Is(err, users.ErrNotFound) {
				apierror.Write(w, r, http.StatusInternalServerError, "Failed to resolve user", err, env)
				return
			}
			if user != nil {
				ctx = ContextWithUser(ctx, user)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests whose identity has no user record yet.
// Runs after Authenticate.
func RequireUser(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFromContext(r.Context()); !ok {
				apierror.Write(w, r, http.StatusUnauthorized, "User not found, sync first", auth.ErrInvalidToken, env)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route to the given roles. Runs after
// Authenticate.
func RequireRole(env string, allowed ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				apierror.Write(w, r, http.StatusUnauthorized, "User not found, sync first", auth.ErrInvalidToken, env)
				return
			}
			if !auth.HasRole(user.Role, allowed...) {
				apierror.Write(w, r, http.StatusForbidden, "Insufficient permissions", nil, env)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
