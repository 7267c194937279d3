package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/lexacademy/checkout/internal/catalog"
	"github.com/lexacademy/checkout/internal/checkout"
	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/pricing"
	"github.com/lexacademy/checkout/internal/proof"
	"github.com/lexacademy/checkout/internal/repository"
	"github.com/lexacademy/checkout/internal/shipping"
)

// SubmissionFailedMessage is the only detail a user sees when order creation fails.
const SubmissionFailedMessage = "ไม่สามารถสั่งซื้อได้ กรุณาลองใหม่อีกครั้ง"

var (
	ErrSubmissionFailed     = errors.New("order submission failed")
	ErrTestModeDisabled     = errors.New("test mode is disabled")
	ErrConfirmationRequired = errors.New("test mode submission requires confirmation")
)

// testShipping is sent for every test-mode order.
var testShipping = models.ShippingInfo{
	Name:    "[TEST] ผู้ทดสอบระบบ",
	Phone:   "0000000000",
	Address: "[TEST] ไม่ต้องจัดส่ง",
}

// OrderCreator is the order-creation endpoint
type OrderCreator interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
}

// CartClearer is the part of the cart the workflow reads and clears
type CartClearer interface {
	Read(ctx context.Context, userID string) ([]models.CartEntry, error)
	Clear(ctx context.Context, userID string) error
}

// CheckoutOptions carries the checkout settings from configuration
type CheckoutOptions struct {
	TestModeEnabled    bool
	ProofMaxBytes      int64
	DemoUserID         string
	PlaceholderSlipURL string
}

// CheckoutService runs checkout sessions from resolution to order creation
type CheckoutService struct {
	resolver   *catalog.Resolver
	classifier *shipping.Classifier
	calculator *pricing.Calculator
	sessions   repository.SessionStore
	carts      CartClearer
	orders     OrderCreator
	proofs     proof.Store
	opts       CheckoutOptions
	log        *slog.Logger
}

func NewCheckoutService(
	resolver *catalog.Resolver,
	classifier *shipping.Classifier,
	calculator *pricing.Calculator,
	sessions repository.SessionStore,
	carts CartClearer,
	orders OrderCreator,
	proofs proof.Store,
	opts CheckoutOptions,
	log *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		resolver:   resolver,
		classifier: classifier,
		calculator: calculator,
		sessions:   sessions,
		carts:      carts,
		orders:     orders,
		proofs:     proofs,
		opts:       opts,
		log:        log,
	}
}

// TestModeEnabled reports whether the test-mode submission path is available
func (s *CheckoutService) TestModeEnabled() bool {
	return s.opts.TestModeEnabled
}

// ProofMaxBytes is the payment slip size ceiling
func (s *CheckoutService) ProofMaxBytes() int64 {
	return s.opts.ProofMaxBytes
}

// Start opens a checkout. The cart is only read when there is no direct
// purchase. catalog.ErrNoItems means the caller should navigate away.
func (s *CheckoutService) Start(ctx context.Context, userID string, direct *models.DirectPurchase) (*checkout.Draft, error) {
	var cart []models.CartEntry
	if direct == nil {
		entries, err := s.carts.Read(ctx, identityOrDemo(userID, s.opts.DemoUserID))
		if err != nil {
			return nil, fmt.Errorf("read cart: %w", err)
		}
		cart = entries
	}

	items, source, err := s.resolver.Resolve(ctx, cart, direct)
	if err != nil {
		return nil, err
	}

	requiresShipping := s.classifier.RequiresShipping(items)
	summary := s.calculator.Summarize(items, requiresShipping)

	d := checkout.NewDraft(userID, items, source, requiresShipping, summary)
	if err := s.sessions.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save checkout: %w", err)
	}

	s.log.Info("checkout started",
		"checkout_id", d.ID,
		"source", source,
		"items", len(items),
		"requires_shipping", requiresShipping,
		"total", summary.Total,
	)
	return d, nil
}

func (s *CheckoutService) Get(ctx context.Context, id string) (*checkout.Draft, error) {
	return s.sessions.Get(ctx, id)
}

func (s *CheckoutService) UpdateShipping(ctx context.Context, id string, info models.ShippingInfo) (*checkout.Draft, error) {
	return s.sessions.Update(ctx, id, func(d *checkout.Draft) error {
		return d.SetShippingInfo(info)
	})
}

func (s *CheckoutService) SetPaymentMethod(ctx context.Context, id string, m models.PaymentMethod) (*checkout.Draft, error) {
	return s.sessions.Update(ctx, id, func(d *checkout.Draft) error {
		return d.SetPaymentMethod(m)
	})
}

// AttachProof reads the slip and attaches it. On rejection the previously
// attached slip stays in place.
func (s *CheckoutService) AttachProof(ctx context.Context, id, filename string, r io.Reader) (*checkout.Draft, error) {
	if _, err := s.sessions.Get(ctx, id); err != nil {
		return nil, err
	}

	f, err := proof.Read(filename, r, s.opts.ProofMaxBytes)
	if err != nil {
		return nil, err
	}

	return s.sessions.Update(ctx, id, func(d *checkout.Draft) error {
		return d.AttachProof(f, s.opts.ProofMaxBytes)
	})
}

// Submit creates an order from the draft. ModeTest skips the shipping and
// slip guards and must be enabled in configuration and confirmed by the
// caller. On failure the draft is back in EDITING with its contents intact
// and ErrSubmissionFailed is returned.
//
// The order call runs on ctx; if the caller goes away the request is
// abandoned and the draft takes the failure path.
func (s *CheckoutService) Submit(ctx context.Context, id string, mode checkout.SubmissionMode, confirmed bool) (*checkout.Draft, error) {
	if mode == checkout.ModeTest {
		if !s.opts.TestModeEnabled {
			return nil, ErrTestModeDisabled
		}
		if !confirmed {
			return nil, ErrConfirmationRequired
		}
	}

	d, err := s.sessions.Update(ctx, id, func(d *checkout.Draft) error {
		return d.BeginSubmit(mode)
	})
	if err != nil {
		return d, err
	}

	// State transitions after this point must land even if ctx is cancelled.
	bg := context.WithoutCancel(ctx)

	order, err := s.placeOrder(ctx, d, mode)
	if err != nil {
		s.log.Error("order submission failed",
			"checkout_id", id,
			"mode", mode,
			"error", err,
		)
		failed, uerr := s.sessions.Update(bg, id, func(d *checkout.Draft) error {
			if err := d.Fail(SubmissionFailedMessage); err != nil {
				return err
			}
			return d.Resume()
		})
		if uerr != nil {
			return nil, fmt.Errorf("reset checkout after failure: %w", uerr)
		}
		return failed, ErrSubmissionFailed
	}

	done, err := s.sessions.Update(bg, id, func(d *checkout.Draft) error {
		return d.Succeed(order.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("record submitted order %s: %w", order.ID, err)
	}

	if done.Source == models.SourceCart {
		owner := identityOrDemo(done.UserID, s.opts.DemoUserID)
		if err := s.carts.Clear(bg, owner); err != nil {
			s.log.Warn("failed to clear cart after order", "order_id", order.ID, "user_id", owner, "error", err)
		}
	}

	s.log.Info("order submitted",
		"checkout_id", id,
		"order_id", order.ID,
		"mode", mode,
		"total", done.Summary.Total,
	)
	return done, nil
}

func (s *CheckoutService) placeOrder(ctx context.Context, d *checkout.Draft, mode checkout.SubmissionMode) (*models.Order, error) {
	req, err := s.buildRequest(ctx, d, mode)
	if err != nil {
		return nil, err
	}
	return s.orders.CreateOrder(ctx, req)
}

func (s *CheckoutService) buildRequest(ctx context.Context, d *checkout.Draft, mode checkout.SubmissionMode) (models.CreateOrderRequest, error) {
	slipURL := s.opts.PlaceholderSlipURL
	if d.Proof != nil {
		url, err := s.proofs.Upload(ctx, d.Proof)
		if err != nil {
			return models.CreateOrderRequest{}, fmt.Errorf("upload slip: %w", err)
		}
		slipURL = url
	}

	req := models.CreateOrderRequest{
		UserID:         identityOrDemo(d.UserID, s.opts.DemoUserID),
		Items:          d.Items,
		TotalAmount:    d.Summary.Total,
		ShippingInfo:   d.ShippingForOrder(),
		PaymentMethod:  d.PaymentMethod,
		SlipURL:        slipURL,
		Status:         models.OrderPaid,
		IdempotencyKey: d.IdempotencyKey,
	}

	if mode == checkout.ModeTest {
		info := testShipping
		req.ShippingInfo = &info
		req.PaymentMethod = models.PaymentTestMode
		req.IsTestMode = true
	}

	return req, nil
}
