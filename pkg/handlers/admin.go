package handlers

import (
	"errors"
	"net/http"

	"github.com/chris/money-movement/pkg/admin"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errNoPanel = errors.New("admin panel is not enabled")

type approveRequest struct {
	Notes string `json:"notes"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// ListPendingTransfers reloads and returns the transfers awaiting a decision.
func (h *ApiHandler) ListPendingTransfers(w http.ResponseWriter, r *http.Request) {
	if h.deps.Panel == nil {
		writeError(w, errNoPanel)
		return
	}
	if err := h.deps.Panel.Refresh(remoteContext(r)); err != nil {
		h.logger.Warn("failed to refresh admin panel", zap.Error(err))
		writeError(w, err)
		return
	}
	items := h.deps.Panel.Items()
	if items == nil {
		items = []admin.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// ApproveTransfer completes a pending or processing transfer.
func (h *ApiHandler) ApproveTransfer(w http.ResponseWriter, r *http.Request) {
	if h.deps.Panel == nil {
		writeError(w, errNoPanel)
		return
	}
	var body approveRequest
	if r.ContentLength != 0 {
		if err := decode(r, &body); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := h.deps.Panel.Approve(remoteContext(r), chi.URLParam(r, "id"), body.Notes); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RejectTransfer rejects a transfer; the reason is required.
func (h *ApiHandler) RejectTransfer(w http.ResponseWriter, r *http.Request) {
	if h.deps.Panel == nil {
		writeError(w, errNoPanel)
		return
	}
	var body rejectRequest
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.deps.Panel.Reject(remoteContext(r), chi.URLParam(r, "id"), body.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
