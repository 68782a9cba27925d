package views

import (
	"context"

	"github.com/chris/money-movement/pkg/api"
	"github.com/chris/money-movement/pkg/bus"
	"github.com/chris/money-movement/pkg/mapping"
	"github.com/chris/money-movement/pkg/models"
	"go.uber.org/zap"
)

// Topics each view re-fetches on.
var (
	BalanceTopics = []bus.Topic{
		bus.TopicBalanceUpdated,
		bus.TopicTransferUpdated,
		bus.TopicBitcoinTransactionUpdated,
		bus.TopicCheckDepositUpdated,
	}
	TransactionTopics = []bus.Topic{
		bus.TopicTransferUpdated,
		bus.TopicBitcoinTransactionUpdated,
	}
)

// BalanceSource fetches the account balance.
type BalanceSource interface {
	GetBalance(ctx context.Context) (*api.BalanceResponse, error)
}

// TransactionSource fetches the transaction list.
type TransactionSource interface {
	ListTransactions(ctx context.Context) ([]api.TransactionResponse, error)
}

// BalanceView shows the balance as last fetched. It is never adjusted
// locally; every change arrives through a re-fetch.
type BalanceView struct {
	p *projection[models.Balance]
}

// NewBalanceView subscribes to balance cues. ctx carries the caller's token
// for cue-driven fetches and bounds the view's lifetime.
func NewBalanceView(ctx context.Context, source BalanceSource, subscriber bus.Subscriber, logger *zap.Logger) (*BalanceView, error) {
	var p *projection[models.Balance]
	p = newProjection(ctx, "balance_view", func(ctx context.Context) (models.Balance, error) {
		resp, err := source.GetBalance(ctx)
		if err != nil {
			return models.Balance{}, err
		}
		return mapping.ToBalance(resp, p.now()), nil
	}, logger)
	if err := p.subscribe(subscriber, BalanceTopics); err != nil {
		return nil, err
	}
	return &BalanceView{p: p}, nil
}

// Refresh fetches the balance now.
func (v *BalanceView) Refresh(ctx context.Context) (models.Balance, error) { return v.p.refresh(ctx) }

// Snapshot returns the last fetched balance.
func (v *BalanceView) Snapshot() (models.Balance, bool) { return v.p.snapshot() }

// Generation counts refreshes started so far.
func (v *BalanceView) Generation() uint64 { return v.p.generation() }

// Close unsubscribes and drops any response still in flight.
func (v *BalanceView) Close() { v.p.close() }

// TransactionsView shows the transaction list as last fetched.
type TransactionsView struct {
	p *projection[[]models.Transaction]
}

// NewTransactionsView subscribes to transaction cues.
func NewTransactionsView(ctx context.Context, source TransactionSource, subscriber bus.Subscriber, logger *zap.Logger) (*TransactionsView, error) {
	p := newProjection(ctx, "transactions_view", func(ctx context.Context) ([]models.Transaction, error) {
		rows, err := source.ListTransactions(ctx)
		if err != nil {
			return nil, err
		}
		return mapping.ToTransactions(rows), nil
	}, logger)
	if err := p.subscribe(subscriber, TransactionTopics); err != nil {
		return nil, err
	}
	return &TransactionsView{p: p}, nil
}

func (v *TransactionsView) Refresh(ctx context.Context) ([]models.Transaction, error) {
	return v.p.refresh(ctx)
}

func (v *TransactionsView) Snapshot() ([]models.Transaction, bool) { return v.p.snapshot() }

func (v *TransactionsView) Generation() uint64 { return v.p.generation() }

func (v *TransactionsView) Close() { v.p.close() }

// Session groups the views one user has open.
type Session struct {
	Balance      *BalanceView
	Transactions *TransactionsView
}

// OpenSession opens both views over the same remote client.
func OpenSession(ctx context.Context, client interface {
	BalanceSource
	TransactionSource
}, subscriber bus.Subscriber, logger *zap.Logger) (*Session, error) {
	balance, err := NewBalanceView(ctx, client, subscriber, logger)
	if err != nil {
		return nil, err
	}
	txs, err := NewTransactionsView(ctx, client, subscriber, logger)
	if err != nil {
		balance.Close()
		return nil, err
	}
	return &Session{Balance: balance, Transactions: txs}, nil
}

// Close closes every view of the session.
func (s *Session) Close() {
	s.Balance.Close()
	s.Transactions.Close()
}
