package policy

import (
	"testing"

	"github.com/chris/money-movement/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestQuote(t *testing.T) {
	t.Run("Internal Rent", func(t *testing.T) {
		quote, err := Quote(models.ChannelInternal, dec("250.00"))

		require.NoError(t, err)
		assertDecimal(t, "0", quote.Fee)
		assertDecimal(t, "250.00", quote.TotalAmount)
		assert.Equal(t, "Instant", quote.ProcessingTimeLabel)
	})

	t.Run("International Wire Percentage", func(t *testing.T) {
		quote, err := Quote(models.ChannelWireInternational, dec("1000.00"))

		require.NoError(t, err)
		assertDecimal(t, "50.00", quote.Fee)
		assertDecimal(t, "1050.00", quote.TotalAmount)
		assert.Equal(t, "1-5 business days", quote.ProcessingTimeLabel)
	})

	t.Run("ACH Flat Fee", func(t *testing.T) {
		quote, err := Quote(models.ChannelACH, dec("500"))

		require.NoError(t, err)
		assertDecimal(t, "0.50", quote.Fee)
		assertDecimal(t, "500.50", quote.TotalAmount)
	})

	t.Run("Domestic Wire Flat Fee", func(t *testing.T) {
		quote, err := Quote(models.ChannelWireDomestic, dec("12000"))

		require.NoError(t, err)
		assertDecimal(t, "25", quote.Fee)
		assert.Equal(t, "Same day", quote.ProcessingTimeLabel)
	})

	t.Run("Zero Amount Has Zero Fee", func(t *testing.T) {
		for _, channel := range models.Channels {
			quote, err := Quote(channel, decimal.Zero)

			require.NoError(t, err)
			assert.True(t, quote.Fee.IsZero(), channel)
			assert.True(t, quote.TotalAmount.IsZero(), channel)
		}
	})

	t.Run("Total Is Amount Plus Fee", func(t *testing.T) {
		amounts := []string{"0.01", "1", "99.99", "1234.56", "9999.99"}
		for _, channel := range models.Channels {
			rule, err := RuleFor(channel)
			require.NoError(t, err)
			for _, raw := range amounts {
				amount := dec(raw)
				quote, err := Quote(channel, amount)
				require.NoError(t, err)

				assert.True(t, quote.TotalAmount.Equal(amount.Add(quote.Fee)), "%s %s", channel, raw)
				assert.True(t, quote.Fee.Equal(rule.BaseFee.Add(amount.Mul(rule.Percentage))), "%s %s", channel, raw)
			}
		}
	})

	t.Run("Negative Amount", func(t *testing.T) {
		_, err := Quote(models.ChannelACH, dec("-1"))

		assert.ErrorIs(t, err, ErrNegativeAmount)
	})

	t.Run("Unknown Channel", func(t *testing.T) {
		_, err := Quote(models.TransferChannel("crypto"), dec("1"))

		assert.ErrorIs(t, err, ErrUnknownChannel)
	})
}

func TestCheckLimit(t *testing.T) {
	ceilings := map[models.TransferChannel]string{
		models.ChannelInternal:          "10000",
		models.ChannelACH:               "50000",
		models.ChannelWireDomestic:      "100000",
		models.ChannelWireInternational: "250000",
	}

	for channel, ceiling := range ceilings {
		t.Run(string(channel), func(t *testing.T) {
			limit := dec(ceiling)

			assert.NoError(t, CheckLimit(channel, limit))
			assert.NoError(t, CheckLimit(channel, limit.Sub(dec("0.01"))))
			assert.ErrorIs(t, CheckLimit(channel, limit.Add(dec("0.01"))), ErrAmountExceedsLimit)

			_, err := Quote(channel, limit.Add(dec("0.01")))
			assert.ErrorIs(t, err, ErrAmountExceedsLimit)
		})
	}
}
