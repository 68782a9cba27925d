package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransferChannel is the discriminant of a TransferRequest. It decides the
// required fields, the amount ceiling and the fee formula.
type TransferChannel string

const (
	ChannelInternal          TransferChannel = "internal"
	ChannelACH               TransferChannel = "ach"
	ChannelWireDomestic      TransferChannel = "wire_domestic"
	ChannelWireInternational TransferChannel = "wire_international"
)

// Channels lists every supported channel in display order.
var Channels = []TransferChannel{
	ChannelInternal,
	ChannelACH,
	ChannelWireDomestic,
	ChannelWireInternational,
}

// Valid reports whether c is one of the supported channels.
func (c TransferChannel) Valid() bool {
	switch c {
	case ChannelInternal, ChannelACH, ChannelWireDomestic, ChannelWireInternational:
		return true
	}
	return false
}

// ParseChannel converts a raw channel name into a TransferChannel.
func ParseChannel(raw string) (TransferChannel, error) {
	c := TransferChannel(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown transfer channel %q", raw)
	}
	return c, nil
}

// TransferStatus defines the possible states of a transfer lifecycle.
type TransferStatus string

const (
	StatusPending    TransferStatus = "pending"
	StatusProcessing TransferStatus = "processing"
	StatusCompleted  TransferStatus = "completed"
	StatusRejected   TransferStatus = "rejected"
	StatusFailed     TransferStatus = "failed"
)

// Terminal reports whether no transition may leave s.
func (s TransferStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusFailed
}

// Actionable reports whether an administrator may still approve or reject a
// transfer in state s.
func (s TransferStatus) Actionable() bool {
	return s == StatusPending || s == StatusProcessing
}

// ParseStatus normalises a status reported by the remote service. The second
// return value is false for anything outside the lifecycle vocabulary.
func ParseStatus(raw string) (TransferStatus, bool) {
	s := TransferStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusRejected, StatusFailed:
		return s, true
	}
	return "", false
}

// FeeQuote is derived from policy on every amount change and never stored.
type FeeQuote struct {
	Channel                  TransferChannel `json:"channel"`
	Amount                   decimal.Decimal `json:"amount"`
	Fee                      decimal.Decimal `json:"fee"`
	TotalAmount              decimal.Decimal `json:"total_amount"`
	ProcessingTimeLabel      string          `json:"processing_time"`
	EstimatedCompletionLabel string          `json:"estimated_completion"`
}

// PendingTransfer is a transfer awaiting an administrator decision.
type PendingTransfer struct {
	ID            string          `json:"id"`
	SenderEmail   string          `json:"sender_email"`
	RecipientName string          `json:"recipient_name"`
	Channel       TransferChannel `json:"transfer_type"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	Status        TransferStatus  `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Balance is a snapshot of the account balance as last reported by the
// remote service.
type Balance struct {
	Amount    decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Transaction is one row of the account transaction list.
type Transaction struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
