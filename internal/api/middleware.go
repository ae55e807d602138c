package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ignite/domain-manager/internal/pkg/httputil"
)

type contextKey string

const teamIDKey contextKey = "team_id"

// teamContext extracts the caller's team from the X-Team-ID header set by
// the upstream gateway after authentication.
func teamContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Team-ID")
		if raw == "" {
			httputil.Error(w, http.StatusUnauthorized, "missing_team", "X-Team-ID header required")
			return
		}
		teamID, err := uuid.Parse(raw)
		if err != nil {
			httputil.Error(w, http.StatusUnauthorized, "invalid_team", "X-Team-ID must be a UUID")
			return
		}
		ctx := context.WithValue(r.Context(), teamIDKey, teamID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func teamFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(teamIDKey).(uuid.UUID)
	return id
}
