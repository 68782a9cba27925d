package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptType tells which flow produced a receipt.
type ReceiptType string

const (
	ReceiptTransfer ReceiptType = "transfer"
	ReceiptSwap     ReceiptType = "swap"
)

// Receipt is the display-only record of one submission attempt. It is built
// once right after the outcome is observed and is never modified; a new
// attempt produces a new Receipt.
type Receipt struct {
	Type            ReceiptType      `json:"type"`
	Status          TransferStatus   `json:"status"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	Sender          string           `json:"sender"`
	Recipient       string           `json:"recipient"`
	TransferType    string           `json:"transfer_type"`
	Date            time.Time        `json:"date"`
	ReferenceID     string           `json:"reference_id"`
	NetworkFee      *decimal.Decimal `json:"network_fee,omitempty"`
	TransactionHash string           `json:"transaction_hash,omitempty"`
}

// Failed reports whether the receipt records an unsuccessful attempt.
func (r Receipt) Failed() bool {
	return r.Status == StatusFailed
}
