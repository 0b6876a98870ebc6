// Package api implements the folio admin REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/f2023065371-lang/fazal-portfolio/internal/session"
)

type ctxKey int

const (
	workspaceKey ctxKey = iota
	tokenKey
)

// SessionMiddleware resolves the Bearer token to a workspace and rejects
// the request with 401 when there is none. EventSource clients cannot set
// headers, so GET requests may pass the token as ?access_token= instead.
func SessionMiddleware(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			ws, err := sessions.Lookup(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			ctx := context.WithValue(r.Context(), workspaceKey, ws)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// workspaceFrom returns the workspace stored by SessionMiddleware.
func workspaceFrom(ctx context.Context) *session.Workspace {
	ws, _ := ctx.Value(workspaceKey).(*session.Workspace)
	return ws
}

func tokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey).(string)
	return tok
}
