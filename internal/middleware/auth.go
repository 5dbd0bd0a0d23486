package middleware

import (
	"context"
	"errors"
	"net/http"

	"telenonym/internal/domain"
	"telenonym/internal/telegram"

	"go.uber.org/zap"
)

type contextKey string

const (
	UserKey contextKey = "telegram_user"
)

// InitDataHeader carries the Mini App init data on every request.
const InitDataHeader = "X-Telegram-Init-Data"

// TelegramAuthMiddleware validates Mini App init data and places the user
// identity in the request context. When the host bridge is unavailable and
// the server runs in development, a synthetic test identity is used instead
// of failing hard.
func TelegramAuthMiddleware(bridge *telegram.Bridge, isDevelopment bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := bridge.ParseInitData(r.Header.Get(InitDataHeader))
			if err != nil {
				if isDevelopment {
					logger.Debug("Host bridge unavailable, using test identity", zap.Error(err))
					user = telegram.TestUser()
				} else {
					if errors.Is(err, telegram.ErrMissingInitData) {
						respondWithError(w, http.StatusUnauthorized, "missing init data")
					} else {
						logger.Debug("Init data validation failed", zap.Error(err))
						respondWithError(w, http.StatusUnauthorized, "invalid init data")
					}
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserKey, user)

			logger.Debug("User authenticated",
				zap.Int64("user_id", user.ID),
				zap.String("username", user.Username),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser extracts the Telegram user from request context
func GetUser(ctx context.Context) (*domain.TelegramUser, bool) {
	user, ok := ctx.Value(UserKey).(*domain.TelegramUser)
	return user, ok
}
