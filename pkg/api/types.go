package api

import (
	"encoding/json"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// TransferBody is the request body of one of the channel-specific transfer
// operations. The concrete type decides the endpoint.
type TransferBody interface {
	path() string
}

// InternalTransferBody is sent to POST transfer/internal.
type InternalTransferBody struct {
	RecipientEmail    openapi_types.Email `json:"recipient_email"`
	Amount            json.Number         `json:"amount"`
	Description       string              `json:"description"`
	SaveRecipient     bool                `json:"save_recipient,omitempty"`
	RecipientNickname string              `json:"recipient_nickname,omitempty"`
}

// ACHTransferBody is sent to POST transfer/ach.
type ACHTransferBody struct {
	RecipientName     string      `json:"recipient_name"`
	RoutingNumber     string      `json:"routing_number"`
	AccountNumber     string      `json:"account_number"`
	BankName          string      `json:"bank_name"`
	AccountType       string      `json:"account_type"`
	Amount            json.Number `json:"amount"`
	Description       string      `json:"description"`
	SaveRecipient     bool        `json:"save_recipient,omitempty"`
	RecipientNickname string      `json:"recipient_nickname,omitempty"`
}

// DomesticWireBody is sent to POST transfer/wire-domestic.
type DomesticWireBody struct {
	RecipientName     string      `json:"recipient_name"`
	RoutingNumber     string      `json:"routing_number"`
	AccountNumber     string      `json:"account_number"`
	BankName          string      `json:"bank_name"`
	Reference         string      `json:"reference,omitempty"`
	Amount            json.Number `json:"amount"`
	Description       string      `json:"description"`
	SaveRecipient     bool        `json:"save_recipient,omitempty"`
	RecipientNickname string      `json:"recipient_nickname,omitempty"`
}

// InternationalWireBody is sent to POST transfer/wire-international.
type InternationalWireBody struct {
	RecipientName       string      `json:"recipient_name"`
	RecipientAddress    string      `json:"recipient_address"`
	RecipientCity       string      `json:"recipient_city"`
	RecipientCountry    string      `json:"recipient_country"`
	RecipientPostalCode string      `json:"recipient_postal_code,omitempty"`
	AccountNumber       string      `json:"account_number"`
	SwiftCode           string      `json:"swift_code"`
	IBAN                string      `json:"iban,omitempty"`
	BankName            string      `json:"bank_name"`
	BankAddress         string      `json:"bank_address"`
	Purpose             string      `json:"purpose"`
	Amount              json.Number `json:"amount"`
	Description         string      `json:"description"`
	SaveRecipient       bool        `json:"save_recipient,omitempty"`
	RecipientNickname   string      `json:"recipient_nickname,omitempty"`
}

func (InternalTransferBody) path() string  { return "transfer/internal" }
func (ACHTransferBody) path() string       { return "transfer/ach" }
func (DomesticWireBody) path() string      { return "transfer/wire-domestic" }
func (InternationalWireBody) path() string { return "transfer/wire-international" }

// TransferResponse is returned by every transfer operation.
type TransferResponse struct {
	Status          string `json:"status"`
	ReferenceNumber string `json:"reference_number"`
}

// PINVerifyRequest is sent to POST transfer-pin/verify.
type PINVerifyRequest struct {
	Code string `json:"code"`
}

// PINVerifyResponse is returned by POST transfer-pin/verify.
type PINVerifyResponse struct {
	OK bool `json:"ok"`
}

// ApproveRequest is sent to POST admin/transfers/{id}/approve.
type ApproveRequest struct {
	Notes string `json:"notes,omitempty"`
}

// RejectRequest is sent to POST admin/transfers/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// MessageResponse is returned by the admin operations.
type MessageResponse struct {
	Message string `json:"message"`
}

// AdminTransfer is one row of GET admin/transfers.
type AdminTransfer struct {
	ID            openapi_types.UUID `json:"id"`
	SenderEmail   string             `json:"sender_email"`
	TransferType  string             `json:"transfer_type"`
	RecipientName string             `json:"recipient_name"`
	Amount        decimal.Decimal    `json:"amount"`
	Fee           decimal.Decimal    `json:"fee"`
	Status        string             `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ExchangeRateResponse is returned by GET bitcoin/exchange-rate. The rate is
// USD per BTC.
type ExchangeRateResponse struct {
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
}

// SwapBody is sent to POST bitcoin/swap.
type SwapBody struct {
	SwapType     string      `json:"swap_type"`
	AmountFrom   json.Number `json:"amount_from"`
	AmountTo     json.Number `json:"amount_to"`
	ExchangeRate json.Number `json:"exchange_rate"`
}

// SwapResponse is returned by POST bitcoin/swap.
type SwapResponse struct {
	ID              string           `json:"id"`
	Status          string           `json:"status,omitempty"`
	TransactionHash string           `json:"transaction_hash,omitempty"`
	NetworkFee      *decimal.Decimal `json:"network_fee,omitempty"`
}

// BalanceResponse is returned by GET account/balance.
type BalanceResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// TransactionResponse is one row of GET transactions.
type TransactionResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
