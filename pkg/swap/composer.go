package swap

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chris/money-movement/pkg/mapping"
	"github.com/chris/money-movement/pkg/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	FieldSwapType   = "swap_type"
	FieldAmountFrom = "amount_from"
)

// ErrNoRate is returned when a swap is composed before any rate is known.
var ErrNoRate = errors.New("no exchange rate available")

// Composer backs an open swap form. It keeps a rate poller running for as
// long as it is open.
type Composer struct {
	poller *RatePoller
}

// NewComposer creates a closed composer.
func NewComposer(source RateSource, interval time.Duration, logger *zap.Logger) *Composer {
	return &Composer{poller: NewRatePoller(source, interval, logger)}
}

// Open starts rate polling.
func (c *Composer) Open(ctx context.Context) error {
	return c.poller.Start(ctx)
}

// Rate returns the latest quoted rate.
func (c *Composer) Rate() (Rate, bool) {
	return c.poller.Latest()
}

// Close stops rate polling. A composer cannot be reopened.
func (c *Composer) Close() {
	c.poller.Close()
}

// Compose builds a SwapRequest from the user's amount and the latest rate.
func (c *Composer) Compose(rawType, rawAmount string) (models.SwapRequest, error) {
	rate, ok := c.Rate()
	if !ok {
		return models.SwapRequest{}, ErrNoRate
	}
	return Build(rawType, rawAmount, rate.Value)
}

// Build converts amount_from at rate (USD per BTC). Bitcoin amounts are
// rounded to 8 places and fiat amounts to 2.
func Build(rawType, rawAmount string, rate decimal.Decimal) (models.SwapRequest, error) {
	var errs models.ValidationErrors

	swapType, err := models.ParseSwapType(rawType)
	if err != nil {
		errs = append(errs, models.ValidationError{Field: FieldSwapType, Message: "must be usd_to_btc or btc_to_usd"})
	}

	var amount decimal.Decimal
	if swapType != "" {
		amount, err = parseAmount(rawAmount, mapping.Places(swapType.FromCurrency()))
		if err != nil {
			errs = append(errs, models.ValidationError{Field: FieldAmountFrom, Message: err.Error()})
		}
	}
	if len(errs) > 0 {
		return models.SwapRequest{}, errs
	}
	if !rate.IsPositive() {
		return models.SwapRequest{}, ErrNoRate
	}

	req := models.SwapRequest{
		Type:         swapType,
		AmountFrom:   amount,
		ExchangeRate: rate,
	}
	switch swapType {
	case models.SwapUSDToBTC:
		req.AmountTo = amount.DivRound(rate, mapping.BitcoinPlaces)
	case models.SwapBTCToUSD:
		req.AmountTo = amount.Mul(rate).Round(mapping.FiatPlaces)
	}
	if !req.AmountTo.IsPositive() {
		return models.SwapRequest{}, models.ValidationErrors{{Field: FieldAmountFrom, Message: "is too small to convert"}}
	}
	return req, nil
}

func parseAmount(raw string, places int32) (decimal.Decimal, error) {
	cleaned := strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), "$")
	if cleaned == "" {
		return decimal.Decimal{}, errors.New("is required")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, errors.New("must be a number")
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, errors.New("must be greater than zero")
	}
	if !amount.Equal(amount.Round(places)) {
		return decimal.Decimal{}, errors.New("has too many decimal places")
	}
	return amount, nil
}
