package httpserver

import (
	"context"
	"net/http"
	"strings"

	"cx-tradecore/internal/auth"
	"cx-tradecore/internal/httputil"
)

type ctxKey int

const userIDKey ctxKey = iota

// userHandler is an endpoint that operates on the authenticated user's own
// data. The id is the JWT subject; handlers never read it from the request
// body or query.
type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// WithAuth validates the bearer token and stashes its subject on the request
// context for withUser endpoints downstream.
func WithAuth(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			userID, err := svc.ParseToken(token)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

// withUser adapts a userHandler to http.HandlerFunc. It only runs behind
// WithAuth; a missing context id means the route was wired outside the
// authed group.
func withUser(fn userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserID(r)
		if !ok {
			unauthorized(w, "unauthorized")
			return
		}
		fn(w, r, userID)
	}
}

func UserID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(userIDKey).(string)
	return id, ok
}

// InternalAuth guards operator endpoints with the shared internal token. An
// empty configured token closes the surface entirely.
func InternalAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.Header.Get("X-Internal-Token") != token {
				unauthorized(w, "invalid internal token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: msg})
}
