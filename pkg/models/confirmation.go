package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfirmationKind tells which flow a PendingConfirmation belongs to.
type ConfirmationKind string

const (
	KindTransfer ConfirmationKind = "transfer"
	KindSwap     ConfirmationKind = "swap"
)

// PendingConfirmation bridges "form submitted" and "PIN verified". It only
// lives inside a confirmation gate and is never sent anywhere.
type PendingConfirmation struct {
	ID        string
	Kind      ConfirmationKind
	Transfer  TransferRequest
	Quote     FeeQuote
	Swap      *SwapRequest
	CreatedAt time.Time
}

// NewTransferConfirmation wraps a built transfer and its quote.
func NewTransferConfirmation(req TransferRequest, quote FeeQuote) PendingConfirmation {
	return PendingConfirmation{
		ID:        uuid.NewString(),
		Kind:      KindTransfer,
		Transfer:  req,
		Quote:     quote,
		CreatedAt: time.Now(),
	}
}

// NewSwapConfirmation wraps a built swap.
func NewSwapConfirmation(req SwapRequest) PendingConfirmation {
	return PendingConfirmation{
		ID:        uuid.NewString(),
		Kind:      KindSwap,
		Swap:      &req,
		CreatedAt: time.Now(),
	}
}

// Review is what the user sees before entering the PIN.
type Review struct {
	ConfirmationID string           `json:"confirmation_id"`
	Kind           ConfirmationKind `json:"kind"`
	Channel        string           `json:"channel"`
	Amount         decimal.Decimal  `json:"amount"`
	Fee            decimal.Decimal  `json:"fee"`
	Total          decimal.Decimal  `json:"total"`
	Currency       string           `json:"currency"`
	Recipient      string           `json:"recipient"`
	Processing     string           `json:"processing_time,omitempty"`
}

// Review summarises the pending operation for the confirmation screen.
func (p PendingConfirmation) Review() Review {
	if p.Kind == KindSwap && p.Swap != nil {
		return Review{
			ConfirmationID: p.ID,
			Kind:           p.Kind,
			Channel:        string(p.Swap.Type),
			Amount:         p.Swap.AmountFrom,
			Fee:            decimal.Zero,
			Total:          p.Swap.AmountFrom,
			Currency:       p.Swap.Type.FromCurrency(),
			Recipient:      p.Swap.Type.ToCurrency() + " balance",
		}
	}

	r := Review{
		ConfirmationID: p.ID,
		Kind:           p.Kind,
		Fee:            p.Quote.Fee,
		Total:          p.Quote.TotalAmount,
		Currency:       CurrencyUSD,
		Processing:     p.Quote.ProcessingTimeLabel,
	}
	if p.Transfer != nil {
		r.Channel = string(p.Transfer.Channel())
		r.Amount = p.Transfer.Common().Amount
		r.Recipient = p.Transfer.Recipient()
	}
	return r
}
