package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SwapType is the direction of a balance conversion. There are exactly two.
type SwapType string

const (
	SwapUSDToBTC SwapType = "usd_to_btc"
	SwapBTCToUSD SwapType = "btc_to_usd"
)

const (
	CurrencyUSD = "USD"
	CurrencyBTC = "BTC"
)

// ParseSwapType converts a raw swap direction into a SwapType.
func ParseSwapType(raw string) (SwapType, error) {
	t := SwapType(strings.ToLower(strings.TrimSpace(raw)))
	if t != SwapUSDToBTC && t != SwapBTCToUSD {
		return "", fmt.Errorf("unknown swap type %q", raw)
	}
	return t, nil
}

// FromCurrency is the currency debited by the swap.
func (t SwapType) FromCurrency() string {
	if t == SwapBTCToUSD {
		return CurrencyBTC
	}
	return CurrencyUSD
}

// ToCurrency is the currency credited by the swap.
func (t SwapType) ToCurrency() string {
	if t == SwapBTCToUSD {
		return CurrencyUSD
	}
	return CurrencyBTC
}

// SwapRequest converts between the fiat and the bitcoin balance at a quoted
// exchange rate (USD per BTC).
type SwapRequest struct {
	Type         SwapType        `json:"swap_type"`
	AmountFrom   decimal.Decimal `json:"amount_from"`
	AmountTo     decimal.Decimal `json:"amount_to"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
}
