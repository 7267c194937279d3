package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lexacademy/checkout/internal/catalog"
	"github.com/lexacademy/checkout/internal/repository"
	"github.com/lexacademy/checkout/internal/service"
)

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// ListProducts handles GET /api/products. ?type=book|course|exam narrows the list.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	kind := catalog.ParseKind(r.URL.Query().Get("type"))
	if kind == "" && r.URL.Query().Get("type") != "" {
		WriteError(w, http.StatusBadRequest, "Unknown product type", h.logger)
		return
	}

	products, err := h.service.ListProducts(r.Context(), kind)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, products, h.logger)
}

// GetProduct handles GET /api/products/{productId}
// - 200: product found
// - 400: blank ID
// - 404: product not found
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(chi.URLParam(r, "productId"))

	if productID == "" {
		h.logger.Warn("product ID is required")
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.logger)
		return
	}

	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			h.logger.Info("product not found", "productId", productID)
			WriteError(w, http.StatusNotFound, "Product not found", h.logger)
			return
		}

		h.logger.Error("failed to get product", "productId", productID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, product, h.logger)
}
