// Package checkout holds the per-session checkout draft and the rules that
// decide when it may be submitted.
package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/pricing"
	"github.com/lexacademy/checkout/internal/proof"
)

// SubmissionState is where a draft is in its submit lifecycle
type SubmissionState string

const (
	StateEditing    SubmissionState = "EDITING"
	StateSubmitting SubmissionState = "SUBMITTING"
	StateSucceeded  SubmissionState = "SUCCEEDED"
	StateFailed     SubmissionState = "FAILED"
)

// SubmissionMode selects which guards run on submit
type SubmissionMode string

const (
	ModeNormal SubmissionMode = "NORMAL"
	// ModeTest skips the shipping and proof guards. It must be gated by
	// configuration and explicit confirmation before reaching the draft.
	ModeTest SubmissionMode = "TEST"
)

var (
	ErrShippingIncomplete = errors.New("shipping information is incomplete")
	ErrProofMissing       = errors.New("payment slip is required")
	ErrNotEditable        = errors.New("checkout can no longer be edited")
	ErrSubmissionInFlight = errors.New("submission already in progress")
	ErrAlreadySubmitted   = errors.New("checkout already submitted")
	ErrNotSubmitting      = errors.New("no submission in progress")
	ErrReservedMethod     = errors.New("payment method is reserved for test submissions")
)

// ValidationError names the fields that blocked submission
type ValidationError struct {
	Err    error
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Draft is the mutable state of one checkout session. It is not safe for
// concurrent use; the session store serializes access.
type Draft struct {
	ID               string                `json:"id"`
	UserID           string                `json:"userId,omitempty"`
	Source           models.CheckoutSource `json:"source"`
	Items            []models.LineItem     `json:"items"`
	RequiresShipping bool                  `json:"requiresShipping"`
	Summary          pricing.Summary       `json:"summary"`
	ShippingInfo     *models.ShippingInfo  `json:"shippingInfo"`
	PaymentMethod    models.PaymentMethod  `json:"paymentMethod"`
	Proof            *proof.File           `json:"proof,omitempty"`
	State            SubmissionState       `json:"submissionState"`
	IdempotencyKey   string                `json:"idempotencyKey"`
	LastError        string                `json:"lastError,omitempty"`
	OrderID          string                `json:"orderId,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// NewDraft starts an editable draft with bank transfer selected.
func NewDraft(userID string, items []models.LineItem, source models.CheckoutSource, requiresShipping bool, summary pricing.Summary) *Draft {
	now := time.Now().UTC()
	return &Draft{
		ID:               uuid.New().String(),
		UserID:           userID,
		Source:           source,
		Items:            items,
		RequiresShipping: requiresShipping,
		Summary:          summary,
		PaymentMethod:    models.PaymentBankTransfer,
		State:            StateEditing,
		IdempotencyKey:   uuid.New().String(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// SetShippingInfo replaces the shipping fields. Values are stored as typed;
// trimming only happens when validating.
func (d *Draft) SetShippingInfo(info models.ShippingInfo) error {
	if d.State != StateEditing {
		return ErrNotEditable
	}
	d.ShippingInfo = &info
	d.touch()
	return nil
}

// SetPaymentMethod selects the payment method. Empty keeps the current one.
// TEST_MODE only reaches an order through the test submission path.
func (d *Draft) SetPaymentMethod(m models.PaymentMethod) error {
	if d.State != StateEditing {
		return ErrNotEditable
	}
	if m == models.PaymentTestMode {
		return ErrReservedMethod
	}
	if m != "" {
		d.PaymentMethod = m
	}
	d.touch()
	return nil
}

// AttachProof sets the payment slip. A file over maxBytes is rejected and
// the previously attached slip is kept.
func (d *Draft) AttachProof(f *proof.File, maxBytes int64) error {
	if d.State != StateEditing {
		return ErrNotEditable
	}
	if f == nil || f.Size == 0 {
		return proof.ErrEmpty
	}
	if f.Size > maxBytes {
		return proof.ErrTooLarge
	}
	d.Proof = f
	d.LastError = ""
	d.touch()
	return nil
}

// Validate runs the submit guards in fixed order and reports only the first
// failure: shipping fields, then payment slip.
func (d *Draft) Validate() error {
	if d.RequiresShipping {
		if missing := missingShippingFields(d.ShippingInfo); len(missing) > 0 {
			return &ValidationError{Err: ErrShippingIncomplete, Fields: missing}
		}
	}
	if d.Proof == nil {
		return &ValidationError{Err: ErrProofMissing, Fields: []string{"proof"}}
	}
	return nil
}

// BeginSubmit moves EDITING to SUBMITTING. In normal mode the guards must
// pass; a failing guard leaves the draft in EDITING.
func (d *Draft) BeginSubmit(mode SubmissionMode) error {
	switch d.State {
	case StateSubmitting:
		return ErrSubmissionInFlight
	case StateSucceeded:
		return ErrAlreadySubmitted
	case StateFailed:
		return ErrNotEditable
	}

	if mode != ModeTest {
		if err := d.Validate(); err != nil {
			return err
		}
	}

	d.State = StateSubmitting
	d.LastError = ""
	d.touch()
	return nil
}

// Succeed records the created order and closes the draft.
func (d *Draft) Succeed(orderID string) error {
	if d.State != StateSubmitting {
		return ErrNotSubmitting
	}
	d.State = StateSucceeded
	d.OrderID = orderID
	d.touch()
	return nil
}

// Fail marks the submission attempt as failed. Form contents are untouched.
func (d *Draft) Fail(message string) error {
	if d.State != StateSubmitting {
		return ErrNotSubmitting
	}
	d.State = StateFailed
	d.LastError = message
	d.touch()
	return nil
}

// Resume returns a failed draft to EDITING so the user can retry.
func (d *Draft) Resume() error {
	if d.State != StateFailed {
		return ErrNotEditable
	}
	d.State = StateEditing
	d.touch()
	return nil
}

// ShippingForOrder returns the shipping info to persist: nil when nothing
// needs delivering, otherwise a trimmed copy.
func (d *Draft) ShippingForOrder() *models.ShippingInfo {
	if !d.RequiresShipping || d.ShippingInfo == nil {
		return nil
	}
	return &models.ShippingInfo{
		Name:    strings.TrimSpace(d.ShippingInfo.Name),
		Phone:   strings.TrimSpace(d.ShippingInfo.Phone),
		Address: strings.TrimSpace(d.ShippingInfo.Address),
	}
}

// Clone returns a copy safe to hand out of the session store.
func (d *Draft) Clone() *Draft {
	c := *d
	c.Items = append([]models.LineItem(nil), d.Items...)
	c.Summary.Lines = append([]pricing.Line(nil), d.Summary.Lines...)
	if d.ShippingInfo != nil {
		info := *d.ShippingInfo
		c.ShippingInfo = &info
	}
	if d.Proof != nil {
		p := *d.Proof
		c.Proof = &p
	}
	return &c
}

func (d *Draft) touch() {
	d.UpdatedAt = time.Now().UTC()
}

func missingShippingFields(info *models.ShippingInfo) []string {
	if info == nil {
		return []string{"name", "phone", "address"}
	}
	var missing []string
	if strings.TrimSpace(info.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(info.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(info.Address) == "" {
		missing = append(missing, "address")
	}
	return missing
}
