package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lexacademy/checkout/internal/middleware"
	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/repository"
	"github.com/lexacademy/checkout/internal/service"
	"github.com/lexacademy/checkout/internal/status"
)

// OrderHandler serves the order-persistence API
type OrderHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// CreateOrder handles POST /api/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest

	if err := decodeJSON(w, r, &req); err != nil {
		h.log.Error("failed to decode order request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingUser):
			WriteError(w, http.StatusBadRequest, "userId is required", h.log)
		case errors.Is(err, service.ErrEmptyOrder):
			WriteError(w, http.StatusBadRequest, "Order must contain at least one item", h.log)
		case errors.Is(err, service.ErrInvalidQuantity):
			WriteError(w, http.StatusBadRequest, "Quantity out of range", h.log)
		case errors.Is(err, service.ErrInvalidPrice):
			WriteError(w, http.StatusBadRequest, "Unit price out of range", h.log)
		case errors.Is(err, service.ErrInvalidStatus):
			WriteError(w, http.StatusBadRequest, "Unknown order status", h.log)
		case errors.Is(err, service.ErrTestModeTag):
			WriteError(w, http.StatusBadRequest, "TEST_MODE payment requires isTestMode", h.log)
		case errors.Is(err, service.ErrTotalMismatch):
			WriteError(w, http.StatusUnprocessableEntity, "totalAmount does not match items", h.log)
		default:
			h.log.Error("failed to create order", "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	WriteJSON(w, http.StatusCreated, order, h.log)
	h.log.Info("order created successfully",
		"order_id", order.ID,
		"items_count", len(order.Items),
		"total", order.TotalAmount,
		"test_mode", order.IsTestMode,
	)
}

// GetOrder handles GET /api/orders/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			WriteError(w, http.StatusNotFound, "Order not found", h.log)
			return
		}
		h.log.Error("failed to get order", "order_id", orderID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, order, h.log)
}

// ListUserOrders handles GET /api/users/{userId}/orders
func (h *OrderHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	orders, err := h.orderService.ListOrders(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to list orders", "user_id", userID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	WriteJSON(w, http.StatusOK, orders, h.log)
}

// OrderReader is the order query API behind the status and history pages
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, userID string) ([]models.Order, error)
}

// CustomerOrderHandler serves the caller's own orders: the progress track
// for one order and the order history.
type CustomerOrderHandler struct {
	orders     OrderReader
	demoUserID string
	log        *slog.Logger
}

func NewCustomerOrderHandler(orders OrderReader, demoUserID string, log *slog.Logger) *CustomerOrderHandler {
	return &CustomerOrderHandler{orders: orders, demoUserID: demoUserID, log: log}
}

// OrderStatusResponse is the body of GET /api/orders/{orderId}/status
type OrderStatusResponse struct {
	OrderID    string          `json:"orderId"`
	IsTestMode bool            `json:"isTestMode,omitempty"`
	Progress   status.Progress `json:"progress"`
}

// GetStatus handles GET /api/orders/{orderId}/status
func (h *CustomerOrderHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			WriteError(w, http.StatusNotFound, "Order not found", h.log)
			return
		}
		h.log.Error("failed to read order status", "order_id", orderID, "error", err)
		WriteError(w, http.StatusBadGateway, "Order status unavailable", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, OrderStatusResponse{
		OrderID:    order.ID,
		IsTestMode: order.IsTestMode,
		Progress:   status.Track(order.Status),
	}, h.log)
}

// ListMine handles GET /api/orders. Anonymous callers see the demo user's orders.
func (h *CustomerOrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		userID = h.demoUserID
	}

	orders, err := h.orders.ListOrders(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to read order history", "user_id", userID, "error", err)
		WriteError(w, http.StatusBadGateway, "Order history unavailable", h.log)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	WriteJSON(w, http.StatusOK, orders, h.log)
}
