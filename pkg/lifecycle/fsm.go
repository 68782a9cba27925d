// Package lifecycle holds the transfer state machine and the client that
// submits confirmed transfers and turns the outcome into a Receipt.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chris/money-movement/pkg/models"
)

// ErrIllegalTransition is returned for a transition the table does not allow.
var ErrIllegalTransition = errors.New("illegal lifecycle transition")

// transitions lists every legal move. Terminal states have no entry.
var transitions = map[models.TransferStatus][]models.TransferStatus{
	models.StatusPending: {
		models.StatusProcessing,
		models.StatusCompleted,
		models.StatusRejected,
		models.StatusFailed,
	},
	models.StatusProcessing: {
		models.StatusCompleted,
		models.StatusRejected,
		models.StatusFailed,
	},
}

// ValidateTransition fails unless from -> to is in the transition table.
func ValidateTransition(from, to models.TransferStatus) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// InitialStatus interprets the status the remote service reported when a
// transfer was accepted. Only pending, processing and completed are valid
// entry states; anything else means the attempt did not go through.
func InitialStatus(raw string) (models.TransferStatus, bool) {
	status, ok := models.ParseStatus(raw)
	if !ok {
		return "", false
	}
	switch status {
	case models.StatusPending, models.StatusProcessing, models.StatusCompleted:
		return status, true
	}
	return "", false
}

// Lifecycle tracks one transfer.
type Lifecycle struct {
	ID      string
	Channel models.TransferChannel

	mu      sync.Mutex
	status  models.TransferStatus
	history []models.TransferStatus
}

// New starts a lifecycle in status.
func New(id string, channel models.TransferChannel, status models.TransferStatus) *Lifecycle {
	return &Lifecycle{
		ID:      id,
		Channel: channel,
		status:  status,
		history: []models.TransferStatus{status},
	}
}

// Status returns the current state.
func (l *Lifecycle) Status() models.TransferStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// History returns every state visited, oldest first.
func (l *Lifecycle) History() []models.TransferStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.TransferStatus(nil), l.history...)
}

// Transition moves to next if the table allows it.
func (l *Lifecycle) Transition(next models.TransferStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := ValidateTransition(l.status, next); err != nil {
		return err
	}
	l.status = next
	l.history = append(l.history, next)
	return nil
}
