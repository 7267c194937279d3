package models

import "time"

// CartEntry is a product held in a user's cart
type CartEntry struct {
	ProductID string      `json:"productId"`
	Title     string      `json:"title"`
	Price     float64     `json:"price"`
	Quantity  int         `json:"quantity"`
	CoverURL  string      `json:"coverUrl,omitempty"`
	Kind      ProductKind `json:"kind,omitempty"`
	IsDigital *bool       `json:"isDigital,omitempty"`
	AddedAt   time.Time   `json:"addedAt"`
}

// Cart is the set of entries owned by one user
type Cart struct {
	UserID    string      `json:"userId"`
	Items     []CartEntry `json:"items"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// DirectPurchase carries the raw "buy now" deep-link parameters.
// Price stays a string until the resolver coerces it.
type DirectPurchase struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
	Cover string `json:"cover,omitempty"`
	Type  string `json:"type,omitempty"`
}

// CheckoutSource records where a checkout's line items came from
type CheckoutSource string

const (
	SourceCart   CheckoutSource = "CART"
	SourceDirect CheckoutSource = "DIRECT"
)
