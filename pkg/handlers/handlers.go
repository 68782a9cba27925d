// Package handlers exposes the money-movement flows over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chris/money-movement/pkg/admin"
	"github.com/chris/money-movement/pkg/api"
	"github.com/chris/money-movement/pkg/builder"
	"github.com/chris/money-movement/pkg/bus"
	"github.com/chris/money-movement/pkg/gate"
	"github.com/chris/money-movement/pkg/lifecycle"
	"github.com/chris/money-movement/pkg/models"
	"github.com/chris/money-movement/pkg/policy"
	"github.com/chris/money-movement/pkg/storage"
	"github.com/chris/money-movement/pkg/swap"
	"github.com/chris/money-movement/pkg/views"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	HeaderSession   = "X-Session-ID"
	HeaderUserEmail = "X-User-Email"
)

// defaultSessionIdleTimeout applies when Deps.SessionIdleTimeout is zero.
const defaultSessionIdleTimeout = 15 * time.Minute

var (
	errNoComposer = errors.New("swap composer is not open")
	errBadBody    = errors.New("invalid request body")
)

// Remote is what the views and the swap composer read from the remote
// service.
type Remote interface {
	views.BalanceSource
	views.TransactionSource
	swap.RateSource
}

// Deps are the components the handlers drive. Receipts and Panel may be nil.
type Deps struct {
	Gates        *gate.Registry
	Transfers    *lifecycle.Client
	Swaps        *swap.Engine
	Receipts     storage.ReceiptReader
	Panel        *admin.Panel
	Remote       Remote
	Subscriber   bus.Subscriber
	PollInterval time.Duration
	// SessionIdleTimeout closes a session's composer and views after this
	// long without a request that uses them.
	SessionIdleTimeout time.Duration
	Logger             *zap.Logger
}

// session holds what one user has open between requests.
type session struct {
	composer *swap.Composer
	views    *views.Session
	lastSeen time.Time
}

// ApiHandler serves the view API.
type ApiHandler struct {
	deps   Deps
	logger *zap.Logger
	idle   time.Duration

	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]*session

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewApiHandler creates a new ApiHandler and starts the idle session sweeper.
// Close stops it.
func NewApiHandler(deps Deps) *ApiHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	idle := deps.SessionIdleTimeout
	if idle <= 0 {
		idle = defaultSessionIdleTimeout
	}
	h := &ApiHandler{
		deps:     deps,
		logger:   logger.Named("handlers"),
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go h.sweepLoop(idle / 2)
	return h
}

// Routes returns the API router.
func (h *ApiHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/transfers/quote", h.QuoteTransfer)
	r.Post("/transfers", h.CreateTransfer)

	r.Get("/confirmations", h.GetConfirmation)
	r.Post("/confirmations", h.Confirm)
	r.Delete("/confirmations", h.CancelConfirmation)

	r.Get("/receipts", h.ListReceipts)
	r.Get("/receipts/{referenceId}", h.GetReceipt)

	r.Get("/balance", h.GetBalance)
	r.Get("/transactions", h.ListTransactions)
	r.Delete("/session", h.CloseSession)

	r.Route("/admin/transfers", func(r chi.Router) {
		r.Get("/", h.ListPendingTransfers)
		r.Post("/{id}/approve", h.ApproveTransfer)
		r.Post("/{id}/reject", h.RejectTransfer)
	})

	r.Post("/swap/composer", h.OpenComposer)
	r.Get("/swap/composer", h.GetRate)
	r.Delete("/swap/composer", h.CloseComposer)
	r.Post("/swaps", h.CreateSwap)

	return r
}

// Close stops the sweeper and releases every open session.
func (h *ApiHandler) Close() {
	h.closeOnce.Do(func() {
		close(h.stop)
		<-h.done
	})

	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

// CloseSession drops the caller's composer, views and open confirmation.
func (h *ApiHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	h.mu.Lock()
	s := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if s != nil {
		s.close()
	}
	_ = h.deps.Gates.Cancel(id)
	w.WriteHeader(http.StatusNoContent)
}

// touchLocked returns the session for id, creating it if needed, and marks
// it used. Callers hold h.mu.
func (h *ApiHandler) touchLocked(id string) *session {
	s, ok := h.sessions[id]
	if !ok {
		s = &session{}
		h.sessions[id] = s
	}
	s.lastSeen = h.now()
	return s
}

func (h *ApiHandler) sweepLoop(every time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

// sweep closes sessions idle for longer than the idle timeout and returns
// how many it closed.
func (h *ApiHandler) sweep() int {
	h.mu.Lock()
	cutoff := h.now().Add(-h.idle)
	stale := make(map[string]*session)
	for id, s := range h.sessions {
		if s.lastSeen.Before(cutoff) {
			stale[id] = s
			delete(h.sessions, id)
		}
	}
	h.mu.Unlock()

	for id, s := range stale {
		s.close()
		h.logger.Info("closed idle session", zap.String("session_id", id))
	}
	return len(stale)
}

func (s *session) close() {
	if s.composer != nil {
		s.composer.Close()
	}
	if s.views != nil {
		s.views.Close()
	}
}

// remoteContext carries the caller's token into remote calls.
func remoteContext(r *http.Request) context.Context {
	return api.WithToken(r.Context(), r.Header.Get("Authorization"))
}

// detachedContext is remoteContext for work that outlives the request.
func detachedContext(r *http.Request) context.Context {
	return api.WithToken(context.Background(), r.Header.Get("Authorization"))
}

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(HeaderSession))
	if id == "" {
		writeError(w, gate.ErrNoSession)
		return "", false
	}
	return id, true
}

func caller(r *http.Request) lifecycle.Caller {
	email := strings.TrimSpace(r.Header.Get(HeaderUserEmail))
	owner := email
	if owner == "" {
		owner = strings.TrimSpace(r.Header.Get(HeaderSession))
	}
	return lifecycle.Caller{Owner: owner, Email: email}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadBody
	}
	return nil
}

type errorResponse struct {
	Message string                   `json:"message"`
	Errors  []models.ValidationError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to a status code. Messages never carry remote
// error text.
func writeError(w http.ResponseWriter, err error) {
	var (
		verrs models.ValidationErrors
		verr  models.ValidationError
		adj   *models.AdjudicationError
		rerr  *api.Error
	)
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: "validation failed", Errors: verrs})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: "validation failed", Errors: []models.ValidationError{verr}})
	case errors.Is(err, admin.ErrReasonRequired):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Message: "validation failed",
			Errors:  []models.ValidationError{{Field: "reason", Message: err.Error()}},
		})
	case errors.Is(err, policy.ErrAmountExceedsLimit), errors.Is(err, policy.ErrNegativeAmount):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Message: "validation failed",
			Errors:  []models.ValidationError{{Field: builder.FieldAmount, Message: err.Error()}},
		})
	case errors.Is(err, builder.ErrUnknownChannel), errors.Is(err, builder.ErrFieldNotAllowed),
		errors.Is(err, policy.ErrUnknownChannel):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: err.Error()})
	case errors.Is(err, models.ErrAuthorization):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: models.MsgPINFailed})
	case errors.As(err, &adj):
		writeJSON(w, http.StatusBadGateway, errorResponse{Message: models.MsgAdjudicationFailed})
	case errors.Is(err, gate.ErrGateOpen), errors.Is(err, gate.ErrBusy), errors.Is(err, gate.ErrCancelled),
		errors.Is(err, admin.ErrInFlight), errors.Is(err, admin.ErrNotActionable),
		errors.Is(err, lifecycle.ErrIllegalTransition):
		writeJSON(w, http.StatusConflict, errorResponse{Message: err.Error()})
	case errors.Is(err, gate.ErrNoGate), errors.Is(err, storage.ErrReceiptNotFound), errors.Is(err, errNoComposer),
		errors.Is(err, errNoPanel):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.Is(err, gate.ErrNoSession), errors.Is(err, errBadBody):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.As(err, &rerr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Message: "remote service request failed"})
	case errors.Is(err, swap.ErrNoRate):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}
