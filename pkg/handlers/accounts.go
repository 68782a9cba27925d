package handlers

import (
	"errors"
	"net/http"

	"github.com/chris/money-movement/pkg/models"
	"github.com/chris/money-movement/pkg/views"
	"go.uber.org/zap"
)

// viewsFor returns the session's views, opening them on first use. Cue
// driven re-fetches keep them current afterwards.
func (h *ApiHandler) viewsFor(r *http.Request, id string) (*views.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.touchLocked(id)
	if s.views == nil {
		vs, err := views.OpenSession(detachedContext(r), h.deps.Remote, h.deps.Subscriber, h.logger)
		if err != nil {
			return nil, err
		}
		s.views = vs
	}
	return s.views, nil
}

// current returns the snapshot, fetching when nothing is loaded or when the
// caller asked for a refresh. A fetch overtaken by a cue-driven one falls
// back to whatever is loaded by then.
func current[T any](r *http.Request, snapshot func() (T, bool), refresh func() (T, error)) (T, error) {
	if r.URL.Query().Get("refresh") != "true" {
		if v, ok := snapshot(); ok {
			return v, nil
		}
	}
	v, err := refresh()
	if errors.Is(err, views.ErrSuperseded) {
		if loaded, ok := snapshot(); ok {
			return loaded, nil
		}
	}
	return v, err
}

// GetBalance returns the caller's balance as last fetched.
func (h *ApiHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	vs, err := h.viewsFor(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx := remoteContext(r)
	balance, err := current(r, vs.Balance.Snapshot, func() (models.Balance, error) { return vs.Balance.Refresh(ctx) })
	if err != nil {
		h.logger.Warn("failed to load balance", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// ListTransactions returns the caller's transactions as last fetched.
func (h *ApiHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	vs, err := h.viewsFor(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx := remoteContext(r)
	txs, err := current(r, vs.Transactions.Snapshot, func() ([]models.Transaction, error) { return vs.Transactions.Refresh(ctx) })
	if err != nil {
		h.logger.Warn("failed to load transactions", zap.Error(err))
		writeError(w, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}
