package handlers

import (
	"net/http"
	"strconv"

	"github.com/chris/money-movement/pkg/builder"
	"github.com/chris/money-movement/pkg/gate"
	"github.com/chris/money-movement/pkg/models"
	"github.com/chris/money-movement/pkg/policy"
	"github.com/chris/money-movement/pkg/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const defaultReceiptLimit = 20

// transferForm is the body of the compose endpoints.
type transferForm struct {
	Channel string            `json:"channel"`
	Fields  map[string]string `json:"fields"`
}

func (f transferForm) form() (*builder.Form, error) {
	form, err := builder.NewForm(models.TransferChannel(f.Channel))
	if err != nil {
		return nil, err
	}
	for field, value := range f.Fields {
		if err := form.Set(field, value); err != nil {
			return nil, err
		}
	}
	return form, nil
}

type receiptResponse struct {
	Receipt models.Receipt `json:"receipt"`
	Message string         `json:"message,omitempty"`
}

// QuoteTransfer previews the fee and total of the form as typed so far.
func (h *ApiHandler) QuoteTransfer(w http.ResponseWriter, r *http.Request) {
	var body transferForm
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	form, err := body.form()
	if err != nil {
		writeError(w, err)
		return
	}
	quote, err := form.Quote()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// CreateTransfer validates the form and opens a confirmation for it.
func (h *ApiHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var body transferForm
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	form, err := body.form()
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := form.Build()
	if err != nil {
		writeError(w, err)
		return
	}
	quote, err := policy.Quote(req.Channel(), req.Common().Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	pending := models.NewTransferConfirmation(req, quote)
	review, err := h.deps.Gates.Open(id, pending, h.deps.Transfers.Continuation(caller(r)))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// GetConfirmation returns the review of the session's open confirmation.
func (h *ApiHandler) GetConfirmation(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	review, ok := h.deps.Gates.Review(id)
	if !ok {
		writeError(w, gate.ErrNoGate)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

type confirmRequest struct {
	PIN string `json:"pin"`
}

// Confirm verifies the PIN and submits whatever the session's gate holds.
// A submission that reached the remote service and failed still returns 200
// with a failed receipt.
func (h *ApiHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var body confirmRequest
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}

	receipt, err := h.deps.Gates.Confirm(remoteContext(r), id, body.PIN)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := receiptResponse{Receipt: receipt}
	if receipt.Failed() {
		resp.Message = models.MsgTransferFailed
		if receipt.Type == models.ReceiptSwap {
			resp.Message = models.MsgSwapFailed
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// CancelConfirmation discards the session's open confirmation.
func (h *ApiHandler) CancelConfirmation(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := h.deps.Gates.Cancel(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListReceipts returns the caller's stored receipts, newest first.
func (h *ApiHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	if h.deps.Receipts == nil {
		writeJSON(w, http.StatusOK, []models.Receipt{})
		return
	}
	limit := int32(defaultReceiptLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n <= 0 {
			writeError(w, errBadBody)
			return
		}
		limit = int32(n)
	}

	receipts, err := h.deps.Receipts.ListReceipts(r.Context(), caller(r).Owner, limit)
	if err != nil {
		h.logger.Error("failed to list receipts", zap.Error(err))
		writeError(w, err)
		return
	}
	if receipts == nil {
		receipts = []models.Receipt{}
	}
	writeJSON(w, http.StatusOK, receipts)
}

// GetReceipt returns one stored receipt of the caller.
func (h *ApiHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	if h.deps.Receipts == nil {
		writeError(w, storage.ErrReceiptNotFound)
		return
	}
	receipt, err := h.deps.Receipts.GetReceipt(r.Context(), caller(r).Owner, chi.URLParam(r, "referenceId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
