package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/lexacademy/checkout/internal/models"
)

const (
	// ShippingFree is shown when a delivery address is required; delivery costs nothing.
	ShippingFree = "free"
	// ShippingNotApplicable is shown for all-digital orders.
	ShippingNotApplicable = "-"
)

// Bounds on a single line. Anything above them is not a real catalog price
// and would push totals past what an int64 baht amount can hold.
const (
	MaxUnitPrice = 1_000_000
	MaxQuantity  = 10_000
)

var (
	maxBaht = decimal.NewFromInt(math.MaxInt64)
	minBaht = decimal.NewFromInt(math.MinInt64)
)

// Adjuster modifies a computed total. None is installed by default.
type Adjuster interface {
	Adjust(items []models.LineItem, total decimal.Decimal) decimal.Decimal
}

// Line is one priced row of the order summary
type Line struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	Subtotal  int64   `json:"subtotal"`
}

// Summary is the read-only price breakdown shown beside the checkout form
type Summary struct {
	Lines         []Line `json:"lines"`
	Subtotal      int64  `json:"subtotal"`
	ShippingFee   int64  `json:"shippingFee"`
	ShippingLabel string `json:"shippingLabel"`
	Total         int64  `json:"total"`
}

// Calculator sums line items in whole baht
type Calculator struct {
	adjuster Adjuster
}

// NewCalculator creates a calculator. adjuster may be nil.
func NewCalculator(adjuster Adjuster) *Calculator {
	return &Calculator{adjuster: adjuster}
}

// Total returns Σ unitPrice × quantity rounded to whole baht.
func (c *Calculator) Total(items []models.LineItem) int64 {
	sum := exactSum(items)
	if c.adjuster != nil {
		sum = c.adjuster.Adjust(items, sum)
	}
	return toBaht(sum)
}

// Summarize builds the per-line and overall breakdown.
func (c *Calculator) Summarize(items []models.LineItem, requiresShipping bool) Summary {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{
			ID:        item.ID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  toBaht(lineAmount(item)),
		})
	}

	return Summary{
		Lines:         lines,
		Subtotal:      toBaht(exactSum(items)),
		ShippingFee:   0,
		ShippingLabel: ShippingLabel(requiresShipping),
		Total:         c.Total(items),
	}
}

// Total is a convenience wrapper around a calculator with no adjuster.
func Total(items []models.LineItem) int64 {
	return NewCalculator(nil).Total(items)
}

// ShippingLabel renders the shipping line of the summary.
func ShippingLabel(requiresShipping bool) string {
	if requiresShipping {
		return ShippingFree
	}
	return ShippingNotApplicable
}

func lineAmount(item models.LineItem) decimal.Decimal {
	return decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func exactSum(items []models.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(lineAmount(item))
	}
	return sum
}

// toBaht rounds to whole baht, saturating instead of wrapping when the
// amount does not fit in an int64.
func toBaht(d decimal.Decimal) int64 {
	r := d.Round(0)
	switch {
	case r.GreaterThan(maxBaht):
		return math.MaxInt64
	case r.LessThan(minBaht):
		return math.MinInt64
	}
	return r.IntPart()
}
