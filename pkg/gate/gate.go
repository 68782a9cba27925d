// Package gate implements the confirmation step between composing a money
// movement and submitting it. A session holds at most one open gate; the
// submission continuation runs only after the PIN has been verified.
package gate

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"github.com/chris/money-movement/pkg/models"
	"go.uber.org/zap"
)

var (
	// ErrGateOpen is returned when a session already has an unresolved gate.
	ErrGateOpen = errors.New("a confirmation is already open for this session")
	// ErrNoGate is returned when a session has nothing to confirm or cancel.
	ErrNoGate = errors.New("no open confirmation for this session")
	// ErrBusy is returned while a PIN for the same gate is being verified.
	ErrBusy = errors.New("confirmation is already being verified")
	// ErrCancelled is returned when the gate was cancelled while its PIN was
	// in flight. The verification result is dropped.
	ErrCancelled = errors.New("confirmation was cancelled")
	// ErrNoSession is returned for an empty session id.
	ErrNoSession = errors.New("session id is required")
)

var pinFormat = regexp.MustCompile(`^\d{4,6}$`)

// Verifier checks a transaction PIN with the remote service.
type Verifier interface {
	VerifyPIN(ctx context.Context, code string) (bool, error)
}

// Continuation performs the submission once the PIN is verified.
type Continuation func(ctx context.Context, pending models.PendingConfirmation) (models.Receipt, error)

type state int

const (
	stateOpen state = iota
	stateVerifying
	stateCancelled
	stateDone
)

type gate struct {
	pending models.PendingConfirmation
	next    Continuation
	state   state
}

// Registry tracks the open gate of every session.
type Registry struct {
	verifier Verifier
	limiter  AttemptLimiter
	logger   *zap.Logger

	mu    sync.Mutex
	gates map[string]*gate
}

// NewRegistry creates a Registry. limiter may be nil.
func NewRegistry(verifier Verifier, limiter AttemptLimiter, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		verifier: verifier,
		limiter:  limiter,
		logger:   logger.Named("gate"),
		gates:    make(map[string]*gate),
	}
}

// Open shows pending for review. It fails with ErrGateOpen while the session
// still has an unresolved gate.
func (r *Registry) Open(session string, pending models.PendingConfirmation, next Continuation) (models.Review, error) {
	if session == "" {
		return models.Review{}, ErrNoSession
	}
	if next == nil {
		return models.Review{}, errors.New("continuation is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.gates[session]; ok {
		return models.Review{}, ErrGateOpen
	}
	r.gates[session] = &gate{pending: pending, next: next}
	r.logger.Debug("confirmation opened",
		zap.String("session", session),
		zap.String("confirmation_id", pending.ID),
		zap.String("kind", string(pending.Kind)),
	)
	return pending.Review(), nil
}

// Review returns what the open gate of session shows.
func (r *Registry) Review(session string) (models.Review, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gates[session]
	if !ok {
		return models.Review{}, false
	}
	return g.pending.Review(), true
}

// Confirm verifies pin and, on success, closes the gate and runs its
// continuation. A failed verification leaves the gate open and returns
// models.ErrAuthorization whatever the cause.
func (r *Registry) Confirm(ctx context.Context, session, pin string) (models.Receipt, error) {
	r.mu.Lock()
	g, ok := r.gates[session]
	if !ok {
		r.mu.Unlock()
		return models.Receipt{}, ErrNoGate
	}
	if g.state == stateVerifying {
		r.mu.Unlock()
		return models.Receipt{}, ErrBusy
	}
	g.state = stateVerifying
	r.mu.Unlock()

	verified := r.verify(ctx, session, pin)

	r.mu.Lock()
	if g.state == stateCancelled {
		r.mu.Unlock()
		r.logger.Info("dropping verification result for cancelled confirmation",
			zap.String("session", session),
			zap.String("confirmation_id", g.pending.ID),
		)
		return models.Receipt{}, ErrCancelled
	}
	if !verified {
		g.state = stateOpen
		r.mu.Unlock()
		return models.Receipt{}, models.ErrAuthorization
	}
	g.state = stateDone
	delete(r.gates, session)
	r.mu.Unlock()

	return g.next(ctx, g.pending)
}

// Cancel discards the open gate of session. No remote call is made.
func (r *Registry) Cancel(session string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gates[session]
	if !ok {
		return ErrNoGate
	}
	g.state = stateCancelled
	delete(r.gates, session)
	r.logger.Debug("confirmation cancelled",
		zap.String("session", session),
		zap.String("confirmation_id", g.pending.ID),
	)
	return nil
}

func (r *Registry) verify(ctx context.Context, session, pin string) bool {
	if r.limiter != nil {
		blocked, err := r.limiter.Blocked(ctx, session)
		if err != nil {
			r.logger.Warn("attempt limiter unavailable", zap.Error(err))
		} else if blocked {
			r.logger.Info("pin attempts exhausted", zap.String("session", session))
			return false
		}
	}

	if !pinFormat.MatchString(pin) {
		r.recordFailure(ctx, session)
		return false
	}

	ok, err := r.verifier.VerifyPIN(ctx, pin)
	if err != nil || !ok {
		if err != nil {
			r.logger.Info("pin verification failed", zap.String("session", session), zap.Error(err))
		}
		r.recordFailure(ctx, session)
		return false
	}

	if r.limiter != nil {
		if err := r.limiter.Reset(ctx, session); err != nil {
			r.logger.Warn("failed to reset pin attempts", zap.Error(err))
		}
	}
	return true
}

func (r *Registry) recordFailure(ctx context.Context, session string) {
	if r.limiter == nil {
		return
	}
	if err := r.limiter.RecordFailure(ctx, session); err != nil {
		r.logger.Warn("failed to record pin attempt", zap.Error(err))
	}
}
