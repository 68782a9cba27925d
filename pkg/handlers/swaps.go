package handlers

import (
	"net/http"
	"time"

	"github.com/chris/money-movement/pkg/models"
	"github.com/chris/money-movement/pkg/swap"
	"github.com/shopspring/decimal"
)

type rateResponse struct {
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

type swapForm struct {
	SwapType   string `json:"swap_type"`
	AmountFrom string `json:"amount_from"`
}

// OpenComposer starts exchange-rate polling for the session. Opening an
// already open composer is a no-op.
func (h *ApiHandler) OpenComposer(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	s := h.touchLocked(id)
	if s.composer != nil {
		h.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	composer := swap.NewComposer(h.deps.Remote, h.deps.PollInterval, h.logger)
	if err := composer.Open(detachedContext(r)); err != nil {
		h.mu.Unlock()
		writeError(w, err)
		return
	}
	s.composer = composer
	h.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
}

// GetRate returns the latest rate seen by the session's composer.
func (h *ApiHandler) GetRate(w http.ResponseWriter, r *http.Request) {
	_, composer, ok := h.composer(w, r)
	if !ok {
		return
	}
	rate, ok := composer.Rate()
	if !ok {
		writeError(w, swap.ErrNoRate)
		return
	}
	writeJSON(w, http.StatusOK, rateResponse{ExchangeRate: rate.Value, FetchedAt: rate.FetchedAt})
}

// CloseComposer stops polling. Responses still in flight are dropped.
func (h *ApiHandler) CloseComposer(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	h.mu.Lock()
	var composer *swap.Composer
	if s, ok := h.sessions[id]; ok {
		composer, s.composer = s.composer, nil
	}
	h.mu.Unlock()

	if composer == nil {
		writeError(w, errNoComposer)
		return
	}
	composer.Close()
	w.WriteHeader(http.StatusNoContent)
}

// CreateSwap builds a swap at the latest rate and opens a confirmation.
func (h *ApiHandler) CreateSwap(w http.ResponseWriter, r *http.Request) {
	id, composer, ok := h.composer(w, r)
	if !ok {
		return
	}
	var body swapForm
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	req, err := composer.Compose(body.SwapType, body.AmountFrom)
	if err != nil {
		writeError(w, err)
		return
	}

	pending := models.NewSwapConfirmation(req)
	review, err := h.deps.Gates.Open(id, pending, h.deps.Swaps.Continuation(caller(r)))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ApiHandler) composer(w http.ResponseWriter, r *http.Request) (string, *swap.Composer, bool) {
	id, ok := sessionID(w, r)
	if !ok {
		return "", nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[id]; ok && s.composer != nil {
		s.lastSeen = h.now()
		return id, s.composer, true
	}
	writeError(w, errNoComposer)
	return "", nil, false
}

