package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/chris/money-movement/pkg/api"
	"github.com/chris/money-movement/pkg/bus"
	"github.com/chris/money-movement/pkg/lifecycle"
	"github.com/chris/money-movement/pkg/mapping"
	"github.com/chris/money-movement/pkg/models"
	"go.uber.org/zap"
)

var (
	// ErrReasonRequired is returned when a rejection has no reason.
	ErrReasonRequired = errors.New("a reason is required to reject a transfer")
	// ErrNotActionable is returned for a transfer that is not in the
	// actionable list, either unknown or already decided.
	ErrNotActionable = errors.New("transfer is not awaiting a decision")
	// ErrInFlight is returned while another action on the same row is running.
	ErrInFlight = errors.New("an action on this transfer is already in progress")
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Remote is the subset of the remote service used by the panel.
type Remote interface {
	ListAdminTransfers(ctx context.Context, statuses ...string) ([]api.AdminTransfer, error)
	ApproveTransfer(ctx context.Context, id string, notes string) (*api.MessageResponse, error)
	RejectTransfer(ctx context.Context, id string, reason string) (*api.MessageResponse, error)
}

// Item is one row of the panel.
type Item struct {
	models.PendingTransfer
	InFlight bool `json:"in_flight"`
}

type row struct {
	transfer models.PendingTransfer
	lc       *lifecycle.Lifecycle
	inFlight bool
}

// decision is a row the panel adjudicated. seq orders it against refreshes.
type decision struct {
	lc  *lifecycle.Lifecycle
	seq uint64
}

// Panel lists transfers awaiting a decision and applies approve/reject.
// Each row accepts exactly one action at a time; a decided row leaves the
// list and stays out of it even if a list fetched before the decision
// still shows it.
type Panel struct {
	remote    Remote
	publisher bus.Publisher
	logger    *zap.Logger

	mu      sync.Mutex
	rows    map[string]*row
	decided map[string]decision
	seq     uint64
	applied uint64
}

// NewPanel creates an empty panel. Call Refresh to load it.
func NewPanel(remote Remote, publisher bus.Publisher, logger *zap.Logger) *Panel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Panel{
		remote:    remote,
		publisher: publisher,
		logger:    logger.Named("admin"),
		rows:      make(map[string]*row),
		decided:   make(map[string]decision),
	}
}

// Refresh reloads the actionable list. Rows with an action in flight keep
// their busy flag. A refresh that finishes after a newer one is discarded.
func (p *Panel) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.seq++
	start := p.seq
	p.mu.Unlock()

	list, err := p.remote.ListAdminTransfers(ctx,
		string(models.StatusPending),
		string(models.StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("failed to list pending transfers: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if start < p.applied {
		p.logger.Debug("dropping stale transfer list", zap.Uint64("seq", start), zap.Uint64("applied", p.applied))
		return nil
	}
	p.applied = start

	listed := make(map[string]bool, len(list))
	next := make(map[string]*row, len(list))
	for _, raw := range list {
		t, ok := mapping.ToPendingTransfer(raw)
		if !ok || !t.Status.Actionable() {
			p.logger.Debug("skipping transfer row", zap.String("id", raw.ID.String()), zap.String("status", raw.Status))
			continue
		}
		listed[t.ID] = true
		if d, ok := p.decided[t.ID]; ok {
			p.logger.Debug("skipping decided transfer",
				zap.String("id", t.ID),
				zap.String("status", string(d.lc.Status())),
			)
			continue
		}
		n := &row{transfer: t, lc: lifecycle.New(t.ID, t.Channel, t.Status)}
		if cur, ok := p.rows[t.ID]; ok && cur.inFlight {
			n.lc = cur.lc
			n.inFlight = true
		}
		next[t.ID] = n
	}

	// A list requested after a decision no longer needs the local record
	// once the remote service has stopped listing the transfer.
	for id, d := range p.decided {
		if d.seq < start && !listed[id] {
			delete(p.decided, id)
		}
	}
	p.rows = next
	return nil
}

// Items returns the actionable rows, oldest first.
func (p *Panel) Items() []Item {
	p.mu.Lock()
	items := make([]Item, 0, len(p.rows))
	for _, r := range p.rows {
		items = append(items, Item{PendingTransfer: r.transfer, InFlight: r.inFlight})
	}
	p.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

// Approve completes the transfer. notes are attached for audit only.
func (p *Panel) Approve(ctx context.Context, id, notes string) error {
	return p.act(id, ActionApprove, models.StatusCompleted, func() error {
		_, err := p.remote.ApproveTransfer(ctx, id, strings.TrimSpace(notes))
		return err
	})
}

// Reject rejects the transfer; the remote service refunds the sender. An
// empty reason is refused without any remote call.
func (p *Panel) Reject(ctx context.Context, id, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	return p.act(id, ActionReject, models.StatusRejected, func() error {
		_, err := p.remote.RejectTransfer(ctx, id, reason)
		return err
	})
}

func (p *Panel) act(id, action string, to models.TransferStatus, call func() error) error {
	p.mu.Lock()
	r, ok := p.rows[id]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotActionable, id)
	}
	if r.inFlight {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInFlight, id)
	}
	if err := lifecycle.ValidateTransition(r.lc.Status(), to); err != nil {
		p.mu.Unlock()
		return err
	}
	r.inFlight = true
	lc := r.lc
	p.mu.Unlock()

	err := call()

	p.mu.Lock()
	if err != nil {
		if cur, ok := p.rows[id]; ok {
			cur.inFlight = false
		}
		p.mu.Unlock()
		p.logger.Warn("adjudication refused",
			zap.String("transfer_id", id),
			zap.String("action", action),
			zap.Error(err),
		)
		return &models.AdjudicationError{TransferID: id, Action: action, Err: err}
	}
	if terr := lc.Transition(to); terr != nil {
		p.logger.Error("local lifecycle out of step", zap.String("transfer_id", id), zap.Error(terr))
	}
	p.seq++
	p.decided[id] = decision{lc: lc, seq: p.seq}
	delete(p.rows, id)
	p.mu.Unlock()

	p.logger.Info("transfer adjudicated",
		zap.String("transfer_id", id),
		zap.String("action", action),
		zap.Strings("history", statusNames(lc.History())),
	)
	p.announce(bus.TopicTransferUpdated, bus.TopicBalanceUpdated)
	return nil
}

// Decided reports the local lifecycle of a transfer adjudicated by this
// panel, if it is still remembered.
func (p *Panel) Decided(id string) (*lifecycle.Lifecycle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.decided[id]
	return d.lc, ok
}

func statusNames(history []models.TransferStatus) []string {
	out := make([]string, len(history))
	for i, s := range history {
		out[i] = string(s)
	}
	return out
}

func (p *Panel) announce(topics ...bus.Topic) {
	if p.publisher == nil {
		return
	}
	for _, t := range topics {
		if err := p.publisher.Publish(t); err != nil {
			p.logger.Warn("failed to publish cue", zap.String("topic", string(t)), zap.Error(err))
		}
	}
}
