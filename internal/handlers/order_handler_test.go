package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/lexacademy/checkout/internal/middleware"
	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/repository"
	"github.com/lexacademy/checkout/internal/service"
	"github.com/lexacademy/checkout/pkg/logger"
)

func newOrderRouter() http.Handler {
	log := logger.New("error")
	orderService := service.NewOrderService(repository.NewInMemoryOrderRepository(100), log)
	handler := NewOrderHandler(orderService, log)

	r := chi.NewRouter()
	r.Post("/api/orders", handler.CreateOrder)
	r.Get("/api/orders/{orderId}", handler.GetOrder)
	r.Get("/api/users/{userId}/orders", handler.ListUserOrders)
	return r
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	router := newOrderRouter()

	book := models.LineItem{ID: "b-101", Title: "หนังสือกฎหมายอาญา", UnitPrice: 350, Quantity: 2, Kind: models.KindBook}

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		checkResponse  func(*testing.T, *models.Order)
	}{
		{
			name: "successful order",
			requestBody: models.CreateOrderRequest{
				UserID:        "u-1",
				Items:         []models.LineItem{book},
				TotalAmount:   700,
				ShippingInfo:  &models.ShippingInfo{Name: "A", Phone: "1", Address: "B"},
				PaymentMethod: models.PaymentBankTransfer,
				SlipURL:       "https://placehold.co/slip",
				Status:        models.OrderPaid,
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, order *models.Order) {
				if order.ID == "" {
					t.Error("order ID is empty")
				}
				if len(order.Items) != 1 {
					t.Errorf("expected 1 item, got %d", len(order.Items))
				}
				if order.TotalAmount != 700 {
					t.Errorf("expected total 700, got %d", order.TotalAmount)
				}
				if order.ShippingInfo == nil {
					t.Error("shipping info was dropped")
				}
			},
		},
		{
			name: "digital order without shipping",
			requestBody: models.CreateOrderRequest{
				UserID:      "u-1",
				Items:       []models.LineItem{{ID: "c-201", UnitPrice: 1500, Quantity: 1, Kind: models.KindCourse}},
				TotalAmount: 1500,
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, order *models.Order) {
				if order.ShippingInfo != nil {
					t.Errorf("expected no shipping info, got %+v", order.ShippingInfo)
				}
				if order.Status != models.OrderPaid {
					t.Errorf("expected default status PAID, got %s", order.Status)
				}
			},
		},
		{
			name: "empty order",
			requestBody: models.CreateOrderRequest{
				UserID: "u-1",
				Items:  []models.LineItem{},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid quantity",
			requestBody: models.CreateOrderRequest{
				UserID: "u-1",
				Items:  []models.LineItem{{ID: "b-101", UnitPrice: 350, Quantity: 0}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing user",
			requestBody: models.CreateOrderRequest{
				Items:       []models.LineItem{book},
				TotalAmount: 700,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "total mismatch",
			requestBody: models.CreateOrderRequest{
				UserID:      "u-1",
				Items:       []models.LineItem{book},
				TotalAmount: 1,
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			var err error

			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatalf("failed to marshal request: %v", err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.checkResponse != nil {
				var order models.Order
				if err := json.NewDecoder(w.Body).Decode(&order); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				tt.checkResponse(t, &order)
			}
		})
	}
}

func TestOrderHandler_GetAndList(t *testing.T) {
	router := newOrderRouter()

	body := `{"userId":"u-9","items":[{"id":"e-301","title":"ข้อสอบจำลอง","unitPrice":490,"quantity":1}],"totalAmount":490,"idempotencyKey":"k-1"}`

	var created models.Order
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader([]byte(body)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", w.Code)
		}
		if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+created.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/orders/missing", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users/u-9/orders", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var orders []models.Order
	if err := json.NewDecoder(w.Body).Decode(&orders); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("expected the duplicate to collapse into 1 order, got %d", len(orders))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users/nobody/orders", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := bytes.TrimSpace(w.Body.Bytes()); string(got) != "[]" {
		t.Errorf("expected empty JSON array, got %s", got)
	}
}

type stubReader struct {
	order  *models.Order
	orders map[string][]models.Order
	err    error
}

func (s stubReader) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.order, s.err
}

func (s stubReader) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders[userID], s.err
}

func TestCustomerOrderHandler_GetStatus(t *testing.T) {
	tests := []struct {
		name           string
		reader         stubReader
		expectedStatus int
		wantStage      int
		wantCancelled  bool
	}{
		{
			name:           "shipping order",
			reader:         stubReader{order: &models.Order{ID: "o-1", Status: models.OrderShipping}},
			expectedStatus: http.StatusOK,
			wantStage:      2,
		},
		{
			name:           "cancelled order",
			reader:         stubReader{order: &models.Order{ID: "o-1", Status: models.OrderCancelled}},
			expectedStatus: http.StatusOK,
			wantStage:      -1,
			wantCancelled:  true,
		},
		{
			name:           "unknown order",
			reader:         stubReader{err: repository.ErrOrderNotFound},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "order api down",
			reader:         stubReader{err: errors.New("connection refused")},
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCustomerOrderHandler(tt.reader, "guest-demo-user", logger.New("error"))
			r := chi.NewRouter()
			r.Get("/api/orders/{orderId}/status", h.GetStatus)

			req := httptest.NewRequest(http.MethodGet, "/api/orders/o-1/status", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if w.Code != http.StatusOK {
				return
			}

			var resp OrderStatusResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Progress.Stage != tt.wantStage {
				t.Errorf("expected stage %d, got %d", tt.wantStage, resp.Progress.Stage)
			}
			if resp.Progress.Cancelled != tt.wantCancelled {
				t.Errorf("expected cancelled %v, got %v", tt.wantCancelled, resp.Progress.Cancelled)
			}
			if len(resp.Progress.Steps) != 4 {
				t.Errorf("expected 4 steps, got %d", len(resp.Progress.Steps))
			}
		})
	}
}

func TestCustomerOrderHandler_ListMine(t *testing.T) {
	reader := stubReader{orders: map[string][]models.Order{
		"u-1":             {{ID: "o-2", UserID: "u-1"}, {ID: "o-1", UserID: "u-1"}},
		"guest-demo-user": {{ID: "o-9", UserID: "guest-demo-user"}},
	}}

	tests := []struct {
		name           string
		reader         stubReader
		userID         string
		expectedStatus int
		wantIDs        []string
	}{
		{
			name:           "caller's own orders",
			reader:         reader,
			userID:         "u-1",
			expectedStatus: http.StatusOK,
			wantIDs:        []string{"o-2", "o-1"},
		},
		{
			name:           "anonymous caller sees demo orders",
			reader:         reader,
			expectedStatus: http.StatusOK,
			wantIDs:        []string{"o-9"},
		},
		{
			name:           "no orders is an empty list",
			reader:         reader,
			userID:         "u-2",
			expectedStatus: http.StatusOK,
			wantIDs:        []string{},
		},
		{
			name:           "order api down",
			reader:         stubReader{err: errors.New("connection refused")},
			userID:         "u-1",
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCustomerOrderHandler(tt.reader, "guest-demo-user", logger.New("error"))
			r := chi.NewRouter()
			r.Use(middleware.Identity)
			r.Get("/api/orders", h.ListMine)

			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tt.userID != "" {
				req.Header.Set(middleware.HeaderUserID, tt.userID)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if w.Code != http.StatusOK {
				return
			}

			var got []models.Order
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			ids := []string{}
			for _, o := range got {
				ids = append(ids, o.ID)
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("expected orders %v, got %v", tt.wantIDs, ids)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Errorf("expected orders %v, got %v", tt.wantIDs, ids)
					break
				}
			}
		})
	}
}

func TestCustomerOrderHandler_ListMineUsesOrderService(t *testing.T) {
	orderService := service.NewOrderService(repository.NewInMemoryOrderRepository(100), logger.New("error"))
	_, err := orderService.CreateOrder(context.Background(), models.CreateOrderRequest{
		UserID:      "u-1",
		Items:       []models.LineItem{{ID: "c-201", UnitPrice: 1500, Quantity: 1}},
		TotalAmount: 1500,
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	h := NewCustomerOrderHandler(orderService, "guest-demo-user", logger.New("error"))
	r := chi.NewRouter()
	r.Use(middleware.Identity)
	r.Get("/api/orders", h.ListMine)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set(middleware.HeaderUserID, "u-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var got []models.Order
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 || got[0].TotalAmount != 1500 {
		t.Errorf("unexpected history: %+v", got)
	}
}
