package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lexacademy/checkout/internal/middleware"
	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/service"
)

// CartHandler serves the caller's cart
type CartHandler struct {
	carts *service.CartService
	log   *slog.Logger
}

func NewCartHandler(carts *service.CartService, log *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

// AddItemRequest is the body of POST /api/cart/items
type AddItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartResponse lists the cart's entries
type CartResponse struct {
	UserID string             `json:"userId"`
	Items  []models.CartEntry `json:"items"`
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	items, err := h.carts.Read(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to read cart", "user_id", userID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, h.response(userID, items), h.log)
}

// AddItem handles POST /api/cart/items. Quantity defaults to 1.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log.Warn("failed to decode cart request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	userID := middleware.UserID(r.Context())
	items, err := h.carts.AddItem(r.Context(), userID, strings.TrimSpace(req.ProductID), req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			WriteError(w, http.StatusBadRequest, "Quantity out of range", h.log)
		case errors.Is(err, service.ErrInvalidProduct):
			WriteError(w, http.StatusBadRequest, "Invalid product", h.log)
		default:
			h.log.Error("failed to add cart item", "user_id", userID, "product_id", req.ProductID, "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	WriteJSON(w, http.StatusOK, h.response(userID, items), h.log)
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	if err := h.carts.Clear(r.Context(), userID); err != nil {
		h.log.Error("failed to clear cart", "user_id", userID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) response(userID string, items []models.CartEntry) CartResponse {
	if items == nil {
		items = []models.CartEntry{}
	}
	return CartResponse{UserID: h.carts.Owner(userID), Items: items}
}
