package mapping

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chris/money-movement/pkg/api"
	"github.com/chris/money-movement/pkg/models"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// Decimal places used on the wire per currency.
const (
	FiatPlaces    = 2
	BitcoinPlaces = 8
)

func fiat(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(FiatPlaces))
}

// Places is the number of decimal places used for currency on the wire.
func Places(currency string) int32 {
	if currency == models.CurrencyBTC {
		return BitcoinPlaces
	}
	return FiatPlaces
}

// ToTransferBody converts a built request into the body of its channel's
// remote operation.
func ToTransferBody(req models.TransferRequest) (api.TransferBody, error) {
	switch r := req.(type) {
	case models.InternalTransfer:
		return api.InternalTransferBody{
			RecipientEmail:    openapi_types.Email(r.RecipientEmail),
			Amount:            fiat(r.Amount),
			Description:       r.Description,
			SaveRecipient:     r.SaveRecipient,
			RecipientNickname: r.RecipientNickname,
		}, nil
	case models.ACHTransfer:
		return api.ACHTransferBody{
			RecipientName:     r.RecipientName,
			RoutingNumber:     r.RoutingNumber,
			AccountNumber:     r.AccountNumber,
			BankName:          r.BankName,
			AccountType:       string(r.AccountType),
			Amount:            fiat(r.Amount),
			Description:       r.Description,
			SaveRecipient:     r.SaveRecipient,
			RecipientNickname: r.RecipientNickname,
		}, nil
	case models.DomesticWireTransfer:
		return api.DomesticWireBody{
			RecipientName:     r.RecipientName,
			RoutingNumber:     r.RoutingNumber,
			AccountNumber:     r.AccountNumber,
			BankName:          r.BankName,
			Reference:         r.Reference,
			Amount:            fiat(r.Amount),
			Description:       r.Description,
			SaveRecipient:     r.SaveRecipient,
			RecipientNickname: r.RecipientNickname,
		}, nil
	case models.InternationalWireTransfer:
		return api.InternationalWireBody{
			RecipientName:       r.RecipientName,
			RecipientAddress:    r.RecipientAddress.Street,
			RecipientCity:       r.RecipientAddress.City,
			RecipientCountry:    r.RecipientAddress.Country,
			RecipientPostalCode: r.RecipientAddress.PostalCode,
			AccountNumber:       r.AccountNumber,
			SwiftCode:           r.SwiftCode,
			IBAN:                r.IBAN,
			BankName:            r.BankName,
			BankAddress:         r.BankAddress,
			Purpose:             r.Purpose,
			Amount:              fiat(r.Amount),
			Description:         r.Description,
			SaveRecipient:       r.SaveRecipient,
			RecipientNickname:   r.RecipientNickname,
		}, nil
	}
	return nil, fmt.Errorf("unsupported transfer request %T", req)
}

// ToSwapBody converts a swap into the body of POST bitcoin/swap.
func ToSwapBody(req models.SwapRequest) api.SwapBody {
	return api.SwapBody{
		SwapType:     string(req.Type),
		AmountFrom:   json.Number(req.AmountFrom.StringFixed(Places(req.Type.FromCurrency()))),
		AmountTo:     json.Number(req.AmountTo.StringFixed(Places(req.Type.ToCurrency()))),
		ExchangeRate: fiat(req.ExchangeRate),
	}
}

// ToPendingTransfer converts an admin row. Rows with a status or channel
// outside the known vocabulary are reported as not ok.
func ToPendingTransfer(row api.AdminTransfer) (models.PendingTransfer, bool) {
	status, ok := models.ParseStatus(row.Status)
	if !ok {
		return models.PendingTransfer{}, false
	}
	channel, err := models.ParseChannel(strings.ReplaceAll(row.TransferType, "-", "_"))
	if err != nil {
		return models.PendingTransfer{}, false
	}
	return models.PendingTransfer{
		ID:            row.ID.String(),
		SenderEmail:   row.SenderEmail,
		RecipientName: row.RecipientName,
		Channel:       channel,
		Amount:        row.Amount,
		Fee:           row.Fee,
		Status:        status,
		CreatedAt:     row.CreatedAt,
	}, true
}

// ToBalance converts a balance response observed at fetchedAt.
func ToBalance(resp *api.BalanceResponse, fetchedAt time.Time) models.Balance {
	currency := resp.Currency
	if currency == "" {
		currency = models.CurrencyUSD
	}
	return models.Balance{
		Amount:    resp.Balance,
		Currency:  currency,
		FetchedAt: fetchedAt,
	}
}

// ToTransactions converts the transaction list.
func ToTransactions(rows []api.TransactionResponse) []models.Transaction {
	out := make([]models.Transaction, len(rows))
	for i, row := range rows {
		out[i] = models.Transaction{
			ID:          row.ID,
			Type:        row.Type,
			Status:      row.Status,
			Amount:      row.Amount,
			Description: row.Description,
			CreatedAt:   row.CreatedAt,
		}
	}
	return out
}
