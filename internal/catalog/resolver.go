package catalog

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/pricing"
)

// ErrNoItems means neither the deep link nor the cart produced anything to
// check out. Callers redirect away instead of rendering a checkout.
var ErrNoItems = errors.New("nothing to check out")

// ProductLookup is the slice of the catalog the resolver needs
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

// Resolver turns a cart or a direct-purchase link into line items
type Resolver struct {
	products ProductLookup
}

// NewResolver creates a resolver. products may be nil, in which case digital
// flags come only from the cart entries themselves.
func NewResolver(products ProductLookup) *Resolver {
	return &Resolver{products: products}
}

// ParseDirectPurchase extracts a "buy now" reference from query parameters.
// It returns nil when no product id is present.
func ParseDirectPurchase(q url.Values) *models.DirectPurchase {
	id := strings.TrimSpace(q.Get("id"))
	if id == "" {
		return nil
	}
	return &models.DirectPurchase{
		ID:    id,
		Title: q.Get("title"),
		Price: q.Get("price"),
		Cover: q.Get("cover"),
		Type:  q.Get("type"),
	}
}

// Resolve returns the line items for a checkout. A direct purchase always
// wins over the cart; the two are never merged.
func (r *Resolver) Resolve(ctx context.Context, cart []models.CartEntry, direct *models.DirectPurchase) ([]models.LineItem, models.CheckoutSource, error) {
	if direct != nil {
		item := models.LineItem{
			ID:        direct.ID,
			Title:     direct.Title,
			UnitPrice: CoercePrice(direct.Price),
			Quantity:  1,
			CoverURL:  direct.Cover,
			Kind:      ParseKind(direct.Type),
		}
		item.IsDigital = r.digitalFlag(ctx, item.ID, nil)
		return []models.LineItem{item}, models.SourceDirect, nil
	}

	if len(cart) == 0 {
		return nil, "", ErrNoItems
	}

	items := make([]models.LineItem, 0, len(cart))
	for _, entry := range cart {
		qty := entry.Quantity
		if qty < 1 {
			qty = 1
		}
		price := entry.Price
		if !validPrice(price) {
			price = 0
		}
		items = append(items, models.LineItem{
			ID:        entry.ProductID,
			Title:     entry.Title,
			UnitPrice: price,
			Quantity:  qty,
			CoverURL:  entry.CoverURL,
			Kind:      entry.Kind,
			IsDigital: r.digitalFlag(ctx, entry.ProductID, entry.IsDigital),
		})
	}

	return items, models.SourceCart, nil
}

// digitalFlag prefers a flag already on the entry, then the catalog record.
// Lookup failures leave the flag unset so the classifier falls through.
func (r *Resolver) digitalFlag(ctx context.Context, id string, own *bool) *bool {
	if own != nil {
		return own
	}
	if r.products == nil || id == "" {
		return nil
	}
	p, err := r.products.GetByID(ctx, id)
	if err != nil || p == nil {
		return nil
	}
	return p.IsDigital
}

// CoercePrice parses a deep-link price. Missing, malformed, negative,
// non-finite or implausibly large values become 0.
func CoercePrice(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !validPrice(v) {
		return 0
	}
	return v
}

func validPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= pricing.MaxUnitPrice
}

// ParseKind maps a deep-link type parameter onto a product kind.
func ParseKind(raw string) models.ProductKind {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(models.KindBook):
		return models.KindBook
	case string(models.KindCourse):
		return models.KindCourse
	case string(models.KindExam):
		return models.KindExam
	}
	return ""
}
