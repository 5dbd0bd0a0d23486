package transport

import (
	"errors"
	"net/http"
	"strconv"

	"telenonym/internal/middleware"
	"telenonym/internal/payment"
	"telenonym/internal/repository"
	"telenonym/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateSessionRequest starts a checkout for a product
type CreateSessionRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// SelectCurrencyRequest picks the payment currency
type SelectCurrencyRequest struct {
	Currency string `json:"currency" validate:"required,oneof=BTC ETH USDT SOLANA LITECOIN XMR"`
}

// PaymentHandler handles HTTP requests for the payment session flow
type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// RegisterRoutes registers all payment routes
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/payment/session", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/", h.GetSession)
		r.Delete("/", h.ResetSession)
		r.Post("/currency", h.SelectCurrency)
		r.Post("/confirm", h.ConfirmPaid)
		r.Get("/qr", h.QRCode)
	})
}

// CreateSession opens a payment session for a product
func (h *PaymentHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateSessionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.paymentService.CreateSession(r.Context(), user.ID, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to create payment session", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create payment session")
		return
	}

	h.logger.Info("Payment session created",
		zap.Int64("user_id", user.ID),
		zap.String("product_id", req.ProductID),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, snap)
}

// SelectCurrency sets the payment currency and computes the quote
func (h *PaymentHandler) SelectCurrency(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SelectCurrencyRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.paymentService.SelectCurrency(r.Context(), user.ID, payment.Currency(req.Currency))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrSessionNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "no active payment session")
		case errors.Is(err, payment.ErrUnsupportedCurrency):
			middleware.RespondWithError(w, http.StatusBadRequest, "unsupported currency")
		default:
			h.logger.Error("Failed to select currency", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to select currency")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, snap)
}

// ConfirmPaid starts the verification countdown
func (h *PaymentHandler) ConfirmPaid(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	snap, err := h.paymentService.ConfirmPaid(r.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrSessionNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "no active payment session")
		case errors.Is(err, payment.ErrNoCurrencySelected):
			middleware.RespondWithError(w, http.StatusConflict, "please select a cryptocurrency first")
		case errors.Is(err, payment.ErrCountdownActive):
			middleware.RespondWithError(w, http.StatusConflict, "verification already in progress")
		case errors.Is(err, payment.ErrSessionResolved):
			middleware.RespondWithError(w, http.StatusConflict, "verification finished, select a currency to retry")
		default:
			h.logger.Error("Failed to confirm payment", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to confirm payment")
		}
		return
	}

	h.logger.Info("Payment countdown started", zap.Int64("user_id", user.ID))
	middleware.RespondWithJSON(w, http.StatusOK, snap)
}

// GetSession returns the current session state
func (h *PaymentHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	snap, err := h.paymentService.GetSession(user.ID)
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "no active payment session")
			return
		}
		h.logger.Error("Failed to get payment session", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get payment session")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, snap)
}

// ResetSession cancels the session back to idle
func (h *PaymentHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	snap, err := h.paymentService.ResetSession(user.ID)
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "no active payment session")
			return
		}
		h.logger.Error("Failed to reset payment session", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to reset payment session")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, snap)
}

// QRCode renders the active quote's wallet URI as a PNG
func (h *PaymentHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	png, err := h.paymentService.QRCode(user.ID, size)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrSessionNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "no active payment session")
		case errors.Is(err, payment.ErrNoCurrencySelected):
			middleware.RespondWithError(w, http.StatusConflict, "please select a cryptocurrency first")
		default:
			h.logger.Error("Failed to render QR code", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to render QR code")
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
