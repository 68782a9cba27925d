package models

import (
	"github.com/shopspring/decimal"
)

// AccountType is the kind of destination account for ACH transfers.
type AccountType string

const (
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
)

// CommonFields are shared by every transfer channel.
type CommonFields struct {
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	SaveRecipient     bool            `json:"save_recipient,omitempty"`
	RecipientNickname string          `json:"recipient_nickname,omitempty"`
}

// TransferRequest is a channel-tagged union. The concrete type is fixed by the
// channel; only the builder in pkg/builder produces values of it.
type TransferRequest interface {
	Channel() TransferChannel
	Common() CommonFields
	// Recipient is a human-readable label used on review screens and receipts.
	Recipient() string
	isTransferRequest()
}

// InternalTransfer moves money to another account holder of the same bank.
type InternalTransfer struct {
	CommonFields
	RecipientEmail string `json:"recipient_email"`
}

func (InternalTransfer) Channel() TransferChannel { return ChannelInternal }
func (t InternalTransfer) Common() CommonFields  { return t.CommonFields }
func (t InternalTransfer) Recipient() string     { return t.RecipientEmail }
func (InternalTransfer) isTransferRequest()      {}

// ACHTransfer is a domestic ACH transfer.
type ACHTransfer struct {
	CommonFields
	RecipientName string      `json:"recipient_name"`
	RoutingNumber string      `json:"routing_number"`
	AccountNumber string      `json:"account_number"`
	BankName      string      `json:"bank_name"`
	AccountType   AccountType `json:"account_type"`
}

func (ACHTransfer) Channel() TransferChannel { return ChannelACH }
func (t ACHTransfer) Common() CommonFields  { return t.CommonFields }
func (t ACHTransfer) Recipient() string     { return t.RecipientName }
func (ACHTransfer) isTransferRequest()      {}

// DomesticWireTransfer is a same-day domestic wire.
type DomesticWireTransfer struct {
	CommonFields
	RecipientName string `json:"recipient_name"`
	RoutingNumber string `json:"routing_number"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	Reference     string `json:"reference,omitempty"`
}

func (DomesticWireTransfer) Channel() TransferChannel { return ChannelWireDomestic }
func (t DomesticWireTransfer) Common() CommonFields  { return t.CommonFields }
func (t DomesticWireTransfer) Recipient() string     { return t.RecipientName }
func (DomesticWireTransfer) isTransferRequest()      {}

// Address is the postal address of an international wire beneficiary.
type Address struct {
	Street     string `json:"recipient_address"`
	City       string `json:"recipient_city"`
	Country    string `json:"recipient_country"`
	PostalCode string `json:"recipient_postal_code,omitempty"`
}

// InternationalWireTransfer is a SWIFT wire to a foreign bank.
type InternationalWireTransfer struct {
	CommonFields
	RecipientName    string  `json:"recipient_name"`
	RecipientAddress Address `json:"recipient_address"`
	AccountNumber    string  `json:"account_number"`
	SwiftCode        string  `json:"swift_code"`
	IBAN             string  `json:"iban,omitempty"`
	BankName         string  `json:"bank_name"`
	BankAddress      string  `json:"bank_address"`
	Purpose          string  `json:"purpose"`
}

func (InternationalWireTransfer) Channel() TransferChannel { return ChannelWireInternational }
func (t InternationalWireTransfer) Common() CommonFields  { return t.CommonFields }
func (t InternationalWireTransfer) Recipient() string     { return t.RecipientName }
func (InternationalWireTransfer) isTransferRequest()      {}
