package tenant

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/fleetkit/pkg/tenantid"
)

// Resolver produces the caller identity for a request. It is supplied
// by the authentication layer (session lookup, JWT claims, API key —
// whatever that layer uses); this package only carries the result.
// An empty Identity with nil error means the request is anonymous.
type Resolver func(r *http.Request) (Identity, error)

// ErrorHandler renders identity resolution failures.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tenantid.ErrInvalidID):
		http.Error(w, "Invalid tenant identifier", http.StatusBadRequest)
	case errors.Is(err, ErrNoIdentity):
		http.Error(w, "Authentication required", http.StatusUnauthorized)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Middleware resolves the caller identity once per request and stores
// it in the request context. Requests the resolver cannot identify pass
// through without an identity; protect tenant-scoped routes with
// RequireIdentity.
func Middleware(resolve Resolver, errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolve(r)
			if err != nil {
				errorHandler(w, r, errors.Join(ErrResolveFailed, err))
				return
			}
			if identity == (Identity{}) {
				next.ServeHTTP(w, r)
				return
			}
			if !identity.Valid() {
				errorHandler(w, r, tenantid.ErrInvalidID)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireIdentity rejects requests that reach it without a resolved
// identity in context.
func RequireIdentity(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoIdentity)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
