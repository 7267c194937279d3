package models

import "time"

// LineItem is one purchasable unit in an order
type LineItem struct {
	ID        string      `json:"id" bson:"id"`
	Title     string      `json:"title" bson:"title"`
	UnitPrice float64     `json:"unitPrice" bson:"unitPrice"`
	Quantity  int         `json:"quantity" bson:"quantity"`
	CoverURL  string      `json:"coverUrl,omitempty" bson:"coverUrl,omitempty"`
	Kind      ProductKind `json:"kind,omitempty" bson:"kind,omitempty"`
	IsDigital *bool       `json:"isDigital,omitempty" bson:"isDigital,omitempty"`
}

// ShippingInfo is the delivery address collected for physical goods
type ShippingInfo struct {
	Name    string `json:"name" bson:"name"`
	Phone   string `json:"phone" bson:"phone"`
	Address string `json:"address" bson:"address"`
}

// PaymentMethod is an open string so new methods can be added without a schema change
type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentTestMode     PaymentMethod = "TEST_MODE"
)

// OrderStatus is advanced by back-office tooling; this service only reads it
// after creation.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipping  OrderStatus = "SHIPPING"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) String() string {
	return string(s)
}

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderShipping, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// CreateOrderRequest is the order-creation payload sent to the order API
type CreateOrderRequest struct {
	UserID         string        `json:"userId"`
	Items          []LineItem    `json:"items"`
	TotalAmount    int64         `json:"totalAmount"`
	ShippingInfo   *ShippingInfo `json:"shippingInfo"`
	PaymentMethod  PaymentMethod `json:"paymentMethod"`
	SlipURL        string        `json:"slipUrl"`
	Status         OrderStatus   `json:"status"`
	IsTestMode     bool          `json:"isTestMode,omitempty"`
	IdempotencyKey string        `json:"idempotencyKey,omitempty"`
}

// Order is a persisted order record
type Order struct {
	ID             string        `json:"id" bson:"_id"`
	UserID         string        `json:"userId" bson:"userId"`
	Items          []LineItem    `json:"items" bson:"items"`
	TotalAmount    int64         `json:"totalAmount" bson:"totalAmount"`
	ShippingInfo   *ShippingInfo `json:"shippingInfo" bson:"shippingInfo"`
	PaymentMethod  PaymentMethod `json:"paymentMethod" bson:"paymentMethod"`
	SlipURL        string        `json:"slipUrl" bson:"slipUrl"`
	Status         OrderStatus   `json:"status" bson:"status"`
	IsTestMode     bool          `json:"isTestMode,omitempty" bson:"isTestMode,omitempty"`
	IdempotencyKey string        `json:"idempotencyKey,omitempty" bson:"idempotencyKey,omitempty"`
	CreatedAt      time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt" bson:"updatedAt"`
}
