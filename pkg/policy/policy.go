// Package policy holds the fee and limit rules for every transfer channel.
// The functions here are pure: they never touch the network and the same
// input always yields the same quote.
package policy

import (
	"errors"
	"fmt"

	"github.com/chris/money-movement/pkg/models"
	"github.com/shopspring/decimal"
)

// ErrAmountExceedsLimit is returned when an amount is above the channel ceiling.
var ErrAmountExceedsLimit = errors.New("amount exceeds channel limit")

// ErrNegativeAmount is returned for amounts below zero.
var ErrNegativeAmount = errors.New("amount must not be negative")

// ErrUnknownChannel is returned for a channel outside the supported set.
var ErrUnknownChannel = errors.New("unknown transfer channel")

// Rule is the fee and limit policy of one channel.
type Rule struct {
	BaseFee             decimal.Decimal
	Percentage          decimal.Decimal // fraction of the amount, 0.005 == 0.5%
	Ceiling             decimal.Decimal
	ProcessingTime      string
	EstimatedCompletion string
}

var rules = map[models.TransferChannel]Rule{
	models.ChannelInternal: {
		BaseFee:             decimal.Zero,
		Percentage:          decimal.Zero,
		Ceiling:             decimal.NewFromInt(10_000),
		ProcessingTime:      "Instant",
		EstimatedCompletion: "Immediately",
	},
	models.ChannelACH: {
		BaseFee:             decimal.RequireFromString("0.50"),
		Percentage:          decimal.Zero,
		Ceiling:             decimal.NewFromInt(50_000),
		ProcessingTime:      "1-3 business days",
		EstimatedCompletion: "Within 3 business days",
	},
	models.ChannelWireDomestic: {
		BaseFee:             decimal.NewFromInt(25),
		Percentage:          decimal.Zero,
		Ceiling:             decimal.NewFromInt(100_000),
		ProcessingTime:      "Same day",
		EstimatedCompletion: "By end of business day",
	},
	models.ChannelWireInternational: {
		BaseFee:             decimal.NewFromInt(45),
		Percentage:          decimal.RequireFromString("0.005"),
		Ceiling:             decimal.NewFromInt(250_000),
		ProcessingTime:      "1-5 business days",
		EstimatedCompletion: "Within 5 business days",
	},
}

// RuleFor returns the policy of a channel.
func RuleFor(channel models.TransferChannel) (Rule, error) {
	rule, ok := rules[channel]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	return rule, nil
}

// Ceiling returns the maximum amount accepted by a channel.
func Ceiling(channel models.TransferChannel) (decimal.Decimal, error) {
	rule, err := RuleFor(channel)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return rule.Ceiling, nil
}

// CheckLimit fails when amount is negative or above the channel ceiling.
// The remote service enforces the same limits; this is a fast local check.
func CheckLimit(channel models.TransferChannel, amount decimal.Decimal) error {
	rule, err := RuleFor(channel)
	if err != nil {
		return err
	}
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	if amount.GreaterThan(rule.Ceiling) {
		return fmt.Errorf("%w: %s maximum is %s", ErrAmountExceedsLimit, channel, rule.Ceiling.StringFixed(2))
	}
	return nil
}

// Quote computes fee = base + amount*percentage and total = amount + fee.
// A zero amount quotes a zero fee so that an empty form shows no charge.
func Quote(channel models.TransferChannel, amount decimal.Decimal) (models.FeeQuote, error) {
	if err := CheckLimit(channel, amount); err != nil {
		return models.FeeQuote{}, err
	}
	rule := rules[channel]

	fee := decimal.Zero
	if amount.IsPositive() {
		fee = rule.BaseFee.Add(amount.Mul(rule.Percentage))
	}

	return models.FeeQuote{
		Channel:                  channel,
		Amount:                   amount,
		Fee:                      fee,
		TotalAmount:              amount.Add(fee),
		ProcessingTimeLabel:      rule.ProcessingTime,
		EstimatedCompletionLabel: rule.EstimatedCompletion,
	}, nil
}
