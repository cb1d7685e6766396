package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tabsplit/tabsplit/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// TableIDKey is the context key holding the verified table id.
const TableIDKey contextKey = "table_id"

// GetTableID extracts the verified table id from the context. Empty when
// the request carried no valid session.
func GetTableID(ctx context.Context) string {
	tableID, _ := ctx.Value(TableIDKey).(string)
	return tableID
}

// RequireTableSession validates the bearer session token and adds the
// verified table id to the request context. Requests without a valid token
// are rejected with 401.
func RequireTableSession(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, auth.ErrMissingToken)
				return
			}
			claims, err := sessions.Validate(token)
			if err != nil {
				unauthorized(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), TableIDKey, claims.TableID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
