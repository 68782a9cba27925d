package swap

import (
	"context"
	"testing"
	"time"

	"github.com/chris/money-movement/pkg/models"
	"github.com/chris/money-movement/pkg/swap/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	rate := decimal.RequireFromString("65000.00")

	t.Run("USD To BTC", func(t *testing.T) {
		req, err := Build("usd_to_btc", "1,000.00", rate)

		require.NoError(t, err)
		assert.Equal(t, models.SwapUSDToBTC, req.Type)
		assert.Equal(t, "0.01538462", req.AmountTo.StringFixed(8))
		assert.True(t, rate.Equal(req.ExchangeRate))
	})

	t.Run("BTC To USD", func(t *testing.T) {
		req, err := Build("btc_to_usd", "0.01234567", rate)

		require.NoError(t, err)
		assert.Equal(t, "802.47", req.AmountTo.StringFixed(2))
	})

	t.Run("Too Many Places", func(t *testing.T) {
		_, err := Build("usd_to_btc", "10.001", rate)

		var verrs models.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.True(t, verrs.Has(FieldAmountFrom))
	})

	t.Run("Unknown Type", func(t *testing.T) {
		_, err := Build("eth_to_usd", "10", rate)

		var verrs models.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.True(t, verrs.Has(FieldSwapType))
	})

	t.Run("Dust", func(t *testing.T) {
		_, err := Build("usd_to_btc", "0.0000001", rate)

		assert.Error(t, err)
	})

	t.Run("No Rate", func(t *testing.T) {
		_, err := Build("usd_to_btc", "10", decimal.Zero)

		assert.ErrorIs(t, err, ErrNoRate)
	})
}

func TestComposer(t *testing.T) {
	t.Run("Compose Uses Latest Rate", func(t *testing.T) {
		source := mocks.NewRateSource(t)
		source.On("GetExchangeRate", mock.Anything).Return(rateResponse("50000"), nil).Once()
		c := NewComposer(source, time.Hour, nil)
		withTicker(c.poller)

		_, err := c.Compose("usd_to_btc", "100")
		assert.ErrorIs(t, err, ErrNoRate)

		require.NoError(t, c.Open(context.Background()))
		require.Eventually(t, func() bool { _, ok := c.Rate(); return ok }, time.Second, time.Millisecond)
		req, err := c.Compose("usd_to_btc", "100")
		c.Close()

		require.NoError(t, err)
		assert.Equal(t, "0.00200000", req.AmountTo.StringFixed(8))
	})
}
