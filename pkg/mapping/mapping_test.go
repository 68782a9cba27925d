package mapping

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/chris/money-movement/pkg/api"
	"github.com/chris/money-movement/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTransferBody(t *testing.T) {
	common := models.CommonFields{Amount: decimal.RequireFromString("250"), Description: "Rent"}

	t.Run("Internal", func(t *testing.T) {
		body, err := ToTransferBody(models.InternalTransfer{CommonFields: common, RecipientEmail: "alex@example.com"})

		require.NoError(t, err)
		internal, ok := body.(api.InternalTransferBody)
		require.True(t, ok)
		assert.Equal(t, json.Number("250.00"), internal.Amount)
		assert.Equal(t, "alex@example.com", string(internal.RecipientEmail))
	})

	t.Run("International Flattens Address", func(t *testing.T) {
		body, err := ToTransferBody(models.InternationalWireTransfer{
			CommonFields:  common,
			RecipientName: "Alex",
			RecipientAddress: models.Address{
				Street: "1 Rue", City: "Paris", Country: "FR", PostalCode: "75001",
			},
			SwiftCode: "BNPAFRPP",
		})

		require.NoError(t, err)
		wire := body.(api.InternationalWireBody)
		assert.Equal(t, "1 Rue", wire.RecipientAddress)
		assert.Equal(t, "Paris", wire.RecipientCity)
		assert.Equal(t, "75001", wire.RecipientPostalCode)
		assert.Equal(t, "BNPAFRPP", wire.SwiftCode)
	})

	t.Run("Every Channel Has A Body", func(t *testing.T) {
		reqs := []models.TransferRequest{
			models.InternalTransfer{CommonFields: common},
			models.ACHTransfer{CommonFields: common, AccountType: models.AccountSavings},
			models.DomesticWireTransfer{CommonFields: common},
			models.InternationalWireTransfer{CommonFields: common},
		}
		for _, req := range reqs {
			body, err := ToTransferBody(req)
			require.NoError(t, err)
			assert.NotNil(t, body)
		}
	})

	t.Run("Nil Request", func(t *testing.T) {
		_, err := ToTransferBody(nil)
		assert.Error(t, err)
	})
}

func TestToSwapBody(t *testing.T) {
	body := ToSwapBody(models.SwapRequest{
		Type:         models.SwapUSDToBTC,
		AmountFrom:   decimal.RequireFromString("100"),
		AmountTo:     decimal.RequireFromString("0.00153846"),
		ExchangeRate: decimal.RequireFromString("65000"),
	})

	assert.Equal(t, "usd_to_btc", body.SwapType)
	assert.Equal(t, json.Number("100.00"), body.AmountFrom)
	assert.Equal(t, json.Number("0.00153846"), body.AmountTo)
	assert.Equal(t, json.Number("65000.00"), body.ExchangeRate)
}

func TestToPendingTransfer(t *testing.T) {
	id := uuid.New()
	row := api.AdminTransfer{
		ID:           id,
		SenderEmail:  "a@example.com",
		TransferType: "wire-domestic",
		Amount:       decimal.RequireFromString("500"),
		Status:       "PENDING",
		CreatedAt:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	got, ok := ToPendingTransfer(row)

	require.True(t, ok)
	assert.Equal(t, id.String(), got.ID)
	assert.Equal(t, models.ChannelWireDomestic, got.Channel)
	assert.Equal(t, models.StatusPending, got.Status)

	row.Status = "on_hold"
	_, ok = ToPendingTransfer(row)
	assert.False(t, ok)
}

func TestToBalance(t *testing.T) {
	now := time.Now()

	got := ToBalance(&api.BalanceResponse{Balance: decimal.RequireFromString("12.5")}, now)

	assert.Equal(t, models.CurrencyUSD, got.Currency)
	assert.Equal(t, now, got.FetchedAt)
	assert.True(t, decimal.RequireFromString("12.50").Equal(got.Amount))
}
