package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireAdmin ensures the user's Telegram ID is on the fixed admin
// allow-list. Everyone else gets 403 regardless of any other field.
func RequireAdmin(adminIDs []int64, logger *zap.Logger) func(http.Handler) http.Handler {
	allowed := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		allowed[id] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				logger.Warn("User not found in context")
				respondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if _, ok := allowed[user.ID]; !ok {
				logger.Warn("Non-admin user attempted to access admin endpoint",
					zap.Int64("user_id", user.ID),
				)
				respondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
