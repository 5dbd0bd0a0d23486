package transport

import (
	"net/http"

	"telenonym/internal/middleware"
	"telenonym/internal/notify"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Profile is the identity view returned to the Mini App
type Profile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
	IsAdmin   bool   `json:"is_admin"`
}

// ProfileHandler serves the authenticated user's profile and notifications
type ProfileHandler struct {
	adminIDs map[int64]struct{}
	sink     notify.Sink
	logger   *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(adminIDs []int64, sink notify.Sink, logger *zap.Logger) *ProfileHandler {
	allowed := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		allowed[id] = struct{}{}
	}
	return &ProfileHandler{
		adminIDs: allowed,
		sink:     sink,
		logger:   logger,
	}
}

// RegisterRoutes registers profile and notification routes
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/me", h.GetProfile)
	r.Get("/api/notifications", h.DrainNotifications)
}

// GetProfile returns the Telegram identity with its admin flag
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	_, isAdmin := h.adminIDs[user.ID]

	middleware.RespondWithJSON(w, http.StatusOK, Profile{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		PhotoURL:  user.PhotoURL,
		IsAdmin:   isAdmin,
	})
}

// DrainNotifications returns and clears the user's queued notifications
func (h *ProfileHandler) DrainNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.sink.Drain(user.ID))
}
