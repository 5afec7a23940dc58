package handlers

import (
	"net/http"
	"strings"

	"github.com/example/media-catalog/internal/platform/api"
	"github.com/example/media-catalog/internal/platform/auth"
	"github.com/example/media-catalog/internal/platform/httpserver"
)

func userIDOrEmpty(r *http.Request) string {
	uid, _ := auth.UserIDFromContext(r.Context())
	return strings.TrimSpace(uid)
}

// requireUserID resolves the authenticated user or writes a 401.
func requireUserID(w http.ResponseWriter, r *http.Request, rid string) (string, bool) {
	uid := userIDOrEmpty(r)
	if uid == "" {
		api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
		return "", false
	}
	return uid, true
}

// Me handles GET /v1/me
func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := requireUserID(w, r, rid)
		if !ok {
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]string{"user_id": uid})
	}
}
