package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/pricing"
	"github.com/lexacademy/checkout/internal/repository"
	"github.com/lexacademy/checkout/pkg/logger"
)

func TestOrderService_CreateOrder(t *testing.T) {
	orderService := NewOrderService(repository.NewInMemoryOrderRepository(100), logger.New("error"))

	book := models.LineItem{ID: "b-101", Title: "หนังสือกฎหมายอาญา", UnitPrice: 350, Quantity: 2, Kind: models.KindBook}
	course := models.LineItem{ID: "c-201", Title: "คอร์สกฎหมายแพ่ง", UnitPrice: 1500, Quantity: 1, Kind: models.KindCourse}

	tests := []struct {
		name    string
		req     models.CreateOrderRequest
		wantErr error
	}{
		{
			name: "valid order with single item",
			req: models.CreateOrderRequest{
				UserID:      "u-1",
				Items:       []models.LineItem{book},
				TotalAmount: 700,
			},
			wantErr: nil,
		},
		{
			name: "valid order with multiple items",
			req: models.CreateOrderRequest{
				UserID:      "u-1",
				Items:       []models.LineItem{book, course},
				TotalAmount: 2200,
				Status:      models.OrderPaid,
			},
			wantErr: nil,
		},
		{
			name: "free order",
			req: models.CreateOrderRequest{
				UserID:      "u-1",
				Items:       []models.LineItem{{ID: "x", UnitPrice: 0, Quantity: 1}},
				TotalAmount: 0,
			},
			wantErr: nil,
		},
		{
			name: "missing user",
			req: models.CreateOrderRequest{
				Items:       []models.LineItem{book},
				TotalAmount: 700,
			},
			wantErr: ErrMissingUser,
		},
		{
			name: "empty order",
			req: models.CreateOrderRequest{
				UserID: "u-1",
				Items:  []models.LineItem{},
			},
			wantErr: ErrEmptyOrder,
		},
		{
			name: "invalid quantity - zero",
			req: models.CreateOrderRequest{
				UserID: "u-1",
				Items:  []models.LineItem{{ID: "b-101", UnitPrice: 350, Quantity: 0}},
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "invalid price - negative",
			req: models.CreateOrderRequest{
				UserID: "u-1",
				Items:  []models.LineItem{{ID: "b-101", UnitPrice: -1, Quantity: 1}},
			},
			wantErr: ErrInvalidPrice,
		},
		{
			name: "invalid price - beyond int64 baht",
			req: models.CreateOrderRequest{
				UserID:      "u-1",
				Items:       []models.LineItem{{ID: "b-101", UnitPrice: 1e19, Quantity: 1}},
				TotalAmount: math.MaxInt64,
			},
			wantErr: ErrInvalidPrice,
		},
		{
			name: "invalid quantity - above line maximum",
			req: models.CreateOrderRequest{
				UserID: "u-1",
				Items:  []models.LineItem{{ID: "b-101", UnitPrice: 350, Quantity: pricing.MaxQuantity + 1}},
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "test payment without test flag",
			req: models.CreateOrderRequest{
				UserID:        "u-1",
				Items:         []models.LineItem{book},
				TotalAmount:   700,
				PaymentMethod: models.PaymentTestMode,
			},
			wantErr: ErrTestModeTag,
		},
		{
			name: "test payment with test flag",
			req: models.CreateOrderRequest{
				UserID:        "u-1",
				Items:         []models.LineItem{book},
				TotalAmount:   700,
				PaymentMethod: models.PaymentTestMode,
				IsTestMode:    true,
			},
			wantErr: nil,
		},
		{
			name: "unknown status",
			req: models.CreateOrderRequest{
				UserID:      "u-1",
				Items:       []models.LineItem{book},
				TotalAmount: 700,
				Status:      "REFUNDED",
			},
			wantErr: ErrInvalidStatus,
		},
		{
			name: "total does not match items",
			req: models.CreateOrderRequest{
				UserID:      "u-1",
				Items:       []models.LineItem{book},
				TotalAmount: 350,
			},
			wantErr: ErrTotalMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := orderService.CreateOrder(context.Background(), tt.req)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateOrder() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr == nil {
				if order == nil {
					t.Fatal("CreateOrder() returned nil order")
				}
				if order.ID == "" {
					t.Error("CreateOrder() order ID is empty")
				}
				if order.Status != models.OrderPaid {
					t.Errorf("CreateOrder() status = %s, want PAID", order.Status)
				}
				if order.TotalAmount != tt.req.TotalAmount {
					t.Errorf("CreateOrder() total = %d, want %d", order.TotalAmount, tt.req.TotalAmount)
				}
			}
		})
	}
}

func TestOrderService_CreateOrderIdempotent(t *testing.T) {
	orderService := NewOrderService(repository.NewInMemoryOrderRepository(100), logger.New("error"))

	req := models.CreateOrderRequest{
		UserID:         "u-1",
		Items:          []models.LineItem{{ID: "c-201", UnitPrice: 1500, Quantity: 1}},
		TotalAmount:    1500,
		IdempotencyKey: "key-1",
	}

	first, err := orderService.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("first CreateOrder() error = %v", err)
	}
	second, err := orderService.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("second CreateOrder() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("duplicate submission created a second order: %s != %s", first.ID, second.ID)
	}

	orders, err := orderService.ListOrders(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("ListOrders() returned %d orders, want 1", len(orders))
	}
}

func TestOrderService_GetOrder(t *testing.T) {
	orderService := NewOrderService(repository.NewInMemoryOrderRepository(100), logger.New("error"))

	created, err := orderService.CreateOrder(context.Background(), models.CreateOrderRequest{
		UserID:      "u-1",
		Items:       []models.LineItem{{ID: "e-301", UnitPrice: 490, Quantity: 1}},
		TotalAmount: 490,
		IsTestMode:  true,
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	got, err := orderService.GetOrder(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}
	if !got.IsTestMode {
		t.Error("GetOrder() lost the test-mode tag")
	}

	_, err = orderService.GetOrder(context.Background(), "missing")
	if !errors.Is(err, repository.ErrOrderNotFound) {
		t.Errorf("GetOrder() error = %v, want ErrOrderNotFound", err)
	}
}
