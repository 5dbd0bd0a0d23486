package transport

import (
	"errors"
	"net/http"

	"telenonym/internal/domain"
	"telenonym/internal/middleware"
	"telenonym/internal/repository"
	"telenonym/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler handles HTTP requests for catalog browsing
type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/", h.ListSection)
		r.Get("/search", h.Search)
		r.Get("/{productID}", h.GetProduct)
	})
}

// ListSection returns one catalog section's items, or the full catalog when
// no section is given
func (h *CatalogHandler) ListSection(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section")
	if section == "" {
		products, err := h.catalogService.Search(r.Context(), "")
		if err != nil {
			h.logger.Error("Failed to list catalog", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list catalog")
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, products)
		return
	}

	products, err := h.catalogService.ListSection(r.Context(), domain.Category(section))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCategory) {
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown catalog section")
			return
		}
		h.logger.Error("Failed to list catalog section", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list catalog")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Search returns catalog items matching the query
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	products, err := h.catalogService.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to search catalog", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to search catalog")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// GetProduct returns a single catalog item
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	product, err := h.catalogService.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}
