package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lexacademy/checkout/internal/catalog"
	"github.com/lexacademy/checkout/internal/checkout"
	"github.com/lexacademy/checkout/internal/middleware"
	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/proof"
	"github.com/lexacademy/checkout/internal/repository"
	"github.com/lexacademy/checkout/internal/service"
)

const (
	slipField = "slip"
	// multipartOverhead covers boundaries and part headers around the slip.
	multipartOverhead = 64 << 10
)

// User-facing messages. Only one is shown at a time.
const (
	msgShippingIncomplete = "กรุณากรอกชื่อ เบอร์โทร และที่อยู่จัดส่งให้ครบถ้วน"
	msgProofMissing       = "กรุณาแนบสลิปการโอนเงิน"
	msgProofTooLarge      = "ไฟล์สลิปมีขนาดเกินกำหนด"
	msgProofUnsupported   = "รองรับเฉพาะไฟล์รูปภาพหรือ PDF"
	msgNothingToCheckout  = "ไม่มีสินค้าในตะกร้า"
	msgInFlight           = "กำลังดำเนินการสั่งซื้อ"
	msgAlreadySubmitted   = "รายการนี้สั่งซื้อเรียบร้อยแล้ว"
	msgConfirmTestMode    = "ต้องยืนยันการสั่งซื้อในโหมดทดสอบ"
)

// CheckoutHandler exposes checkout sessions over HTTP
type CheckoutHandler struct {
	checkouts *service.CheckoutService
	log       *slog.Logger
}

func NewCheckoutHandler(checkouts *service.CheckoutService, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkouts: checkouts, log: log}
}

// CheckoutView is a draft as shown to the client
type CheckoutView struct {
	*checkout.Draft
	TestModeAvailable bool `json:"testModeAvailable"`
}

type paymentMethodRequest struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

type testSubmitRequest struct {
	Confirm bool `json:"confirm"`
}

// Start handles POST /api/checkout. Deep-link parameters (id, title, price,
// cover, type) come from the query string; without them the cart is used.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	direct := catalog.ParseDirectPurchase(r.URL.Query())

	d, err := h.checkouts.Start(r.Context(), middleware.UserID(r.Context()), direct)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, h.view(d), h.log)
}

// Get handles GET /api/checkout/{checkoutId}
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.checkouts.Get(r.Context(), chi.URLParam(r, "checkoutId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.view(d), h.log)
}

// UpdateShipping handles PUT /api/checkout/{checkoutId}/shipping
func (h *CheckoutHandler) UpdateShipping(w http.ResponseWriter, r *http.Request) {
	var info models.ShippingInfo
	if err := decodeJSON(w, r, &info); err != nil {
		h.log.Warn("failed to decode shipping info", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	d, err := h.checkouts.UpdateShipping(r.Context(), chi.URLParam(r, "checkoutId"), info)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.view(d), h.log)
}

// SetPaymentMethod handles PUT /api/checkout/{checkoutId}/payment-method
func (h *CheckoutHandler) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log.Warn("failed to decode payment method", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	d, err := h.checkouts.SetPaymentMethod(r.Context(), chi.URLParam(r, "checkoutId"), req.PaymentMethod)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.view(d), h.log)
}

// UploadProof handles POST /api/checkout/{checkoutId}/proof with the slip in
// multipart field "slip".
func (h *CheckoutHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.checkouts.ProofMaxBytes()+multipartOverhead)

	file, header, err := r.FormFile(slipField)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.writeError(w, r, proof.ErrTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			h.writeError(w, r, &checkout.ValidationError{Err: checkout.ErrProofMissing, Fields: []string{"proof"}})
		default:
			h.log.Warn("failed to parse slip upload", "error", err)
			WriteError(w, http.StatusBadRequest, "Invalid multipart body", h.log)
		}
		return
	}
	defer file.Close()

	d, err := h.checkouts.AttachProof(r.Context(), chi.URLParam(r, "checkoutId"), header.Filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.view(d), h.log)
}

// Submit handles POST /api/checkout/{checkoutId}/submit
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, checkout.ModeNormal, false)
}

// SubmitTest handles POST /api/checkout/{checkoutId}/submit-test. The body
// must be {"confirm": true}.
func (h *CheckoutHandler) SubmitTest(w http.ResponseWriter, r *http.Request) {
	var req testSubmitRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}
	h.submit(w, r, checkout.ModeTest, req.Confirm)
}

func (h *CheckoutHandler) submit(w http.ResponseWriter, r *http.Request, mode checkout.SubmissionMode, confirmed bool) {
	d, err := h.checkouts.Submit(r.Context(), chi.URLParam(r, "checkoutId"), mode, confirmed)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, h.view(d), h.log)
}

func (h *CheckoutHandler) view(d *checkout.Draft) CheckoutView {
	return CheckoutView{Draft: d, TestModeAvailable: h.checkouts.TestModeEnabled()}
}

// writeError maps workflow errors onto status codes. Validation errors carry
// the offending fields; a checkout with nothing in it redirects to the cart.
func (h *CheckoutHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *checkout.ValidationError

	switch {
	case errors.Is(err, repository.ErrDraftNotFound):
		WriteError(w, http.StatusNotFound, "Checkout not found", h.log)
	case errors.Is(err, catalog.ErrNoItems):
		WriteJSON(w, http.StatusConflict, ErrorResponse{Error: msgNothingToCheckout, Redirect: "/cart"}, h.log)
	case errors.As(err, &verr):
		msg := msgProofMissing
		if errors.Is(verr, checkout.ErrShippingIncomplete) {
			msg = msgShippingIncomplete
		}
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: msg, Fields: verr.Fields}, h.log)
	case errors.Is(err, proof.ErrTooLarge):
		WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: msgProofTooLarge, Fields: []string{"proof"}}, h.log)
	case errors.Is(err, proof.ErrEmpty):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: msgProofMissing, Fields: []string{"proof"}}, h.log)
	case errors.Is(err, proof.ErrUnsupported):
		WriteJSON(w, http.StatusUnsupportedMediaType, ErrorResponse{Error: msgProofUnsupported, Fields: []string{"proof"}}, h.log)
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		WriteError(w, http.StatusConflict, msgInFlight, h.log)
	case errors.Is(err, checkout.ErrAlreadySubmitted):
		WriteError(w, http.StatusConflict, msgAlreadySubmitted, h.log)
	case errors.Is(err, checkout.ErrNotEditable):
		WriteError(w, http.StatusConflict, "Checkout can no longer be edited", h.log)
	case errors.Is(err, checkout.ErrReservedMethod):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "Unsupported payment method", Fields: []string{"paymentMethod"}}, h.log)
	case errors.Is(err, service.ErrSubmissionFailed):
		WriteError(w, http.StatusBadGateway, service.SubmissionFailedMessage, h.log)
	case errors.Is(err, service.ErrTestModeDisabled):
		WriteError(w, http.StatusNotFound, "Not found", h.log)
	case errors.Is(err, service.ErrConfirmationRequired):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: msgConfirmTestMode, Fields: []string{"confirm"}}, h.log)
	default:
		h.log.Error("checkout request failed",
			"checkout_id", chi.URLParam(r, "checkoutId"),
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
	}
}
