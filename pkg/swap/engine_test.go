package swap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chris/money-movement/pkg/api"
	"github.com/chris/money-movement/pkg/bus"
	"github.com/chris/money-movement/pkg/lifecycle"
	"github.com/chris/money-movement/pkg/models"
	"github.com/chris/money-movement/pkg/scheduler"
	"github.com/chris/money-movement/pkg/storage"
	"github.com/chris/money-movement/pkg/swap/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var caller = lifecycle.Caller{Owner: "alex", Email: "alex@example.com"}

func buyBitcoin(t *testing.T) models.SwapRequest {
	t.Helper()
	req, err := Build("usd_to_btc", "650.00", decimal.RequireFromString("65000"))
	require.NoError(t, err)
	return req
}

func TestEngineSubmit(t *testing.T) {
	t.Run("Accepted Swap Is Pending", func(t *testing.T) {
		// Arrange
		remote := mocks.NewRemote(t)
		sched := mocks.NewScheduler(t)
		fee := decimal.RequireFromString("0.00001")
		remote.On("SubmitSwap", mock.Anything, api.SwapBody{
			SwapType:     "usd_to_btc",
			AmountFrom:   "650.00",
			AmountTo:     "0.01000000",
			ExchangeRate: "65000.00",
		}).Return(&api.SwapResponse{ID: "SW1", Status: "completed", TransactionHash: "abc", NetworkFee: &fee}, nil).Once()
		sched.On("ScheduleSettlement", mock.Anything, mock.MatchedBy(func(cue scheduler.SettlementCue) bool {
			return cue.SwapID == "SW1" && len(cue.Topics) == 2
		}), 3*time.Minute).Return(nil).Once()
		b := bus.New(nil)
		var topics []bus.Topic
		_, err := b.Subscribe(func(topic bus.Topic) { topics = append(topics, topic) })
		require.NoError(t, err)
		store := storage.NewMemoryStore()
		engine := NewEngine(remote, sched, b, store, 0, nil)

		// Act
		receipt := engine.Submit(context.Background(), caller, buyBitcoin(t))

		// Assert
		assert.Equal(t, models.StatusPending, receipt.Status)
		assert.Equal(t, models.ReceiptSwap, receipt.Type)
		assert.Equal(t, "SW1", receipt.ReferenceID)
		assert.Equal(t, "USD", receipt.Currency)
		assert.Equal(t, "abc", receipt.TransactionHash)
		require.NotNil(t, receipt.NetworkFee)
		assert.Equal(t, []bus.Topic{bus.TopicBitcoinTransactionUpdated}, topics)
		_, err = store.GetReceipt(context.Background(), caller.Owner, "SW1")
		assert.NoError(t, err)
	})

	t.Run("Remote Error Is Failed Receipt", func(t *testing.T) {
		remote := mocks.NewRemote(t)
		sched := mocks.NewScheduler(t)
		remote.On("SubmitSwap", mock.Anything, mock.Anything).Return(nil, errors.New("insufficient funds")).Once()
		engine := NewEngine(remote, sched, nil, nil, time.Minute, nil)

		receipt := engine.Submit(context.Background(), caller, buyBitcoin(t))

		assert.True(t, receipt.Failed())
		assert.True(t, strings.HasPrefix(receipt.ReferenceID, "LOCAL-"))
		sched.AssertNotCalled(t, "ScheduleSettlement", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Rejected Status Is Failed", func(t *testing.T) {
		remote := mocks.NewRemote(t)
		remote.On("SubmitSwap", mock.Anything, mock.Anything).Return(&api.SwapResponse{ID: "SW2", Status: "rejected"}, nil).Once()
		engine := NewEngine(remote, mocks.NewScheduler(t), nil, nil, time.Minute, nil)

		receipt := engine.Submit(context.Background(), caller, buyBitcoin(t))

		assert.True(t, receipt.Failed())
		assert.Equal(t, "SW2", receipt.ReferenceID)
	})

	t.Run("Schedule Failure Keeps Receipt", func(t *testing.T) {
		remote := mocks.NewRemote(t)
		sched := mocks.NewScheduler(t)
		remote.On("SubmitSwap", mock.Anything, mock.Anything).Return(&api.SwapResponse{ID: "SW3"}, nil).Once()
		sched.On("ScheduleSettlement", mock.Anything, mock.Anything, time.Minute).Return(errors.New("queue down")).Once()
		engine := NewEngine(remote, sched, nil, nil, time.Minute, nil)

		receipt := engine.Submit(context.Background(), caller, buyBitcoin(t))

		assert.Equal(t, models.StatusPending, receipt.Status)
	})
}

func TestEngineContinuation(t *testing.T) {
	t.Run("Settles Through Timer", func(t *testing.T) {
		remote := mocks.NewRemote(t)
		remote.On("SubmitSwap", mock.Anything, mock.Anything).Return(&api.SwapResponse{ID: "SW4"}, nil).Once()
		b := bus.New(nil)
		settledCh := make(chan bus.Topic, 4)
		_, err := b.Subscribe(func(topic bus.Topic) { settledCh <- topic }, bus.TopicBalanceUpdated)
		require.NoError(t, err)
		timers := scheduler.NewTimerScheduler(b, nil)
		defer timers.Stop()
		engine := NewEngine(remote, timers, b, nil, 10*time.Millisecond, nil)

		receipt, err := engine.Continuation(caller)(context.Background(), models.NewSwapConfirmation(buyBitcoin(t)))

		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, receipt.Status)
		select {
		case topic := <-settledCh:
			assert.Equal(t, bus.TopicBalanceUpdated, topic)
		case <-time.After(time.Second):
			t.Fatal("no settlement cue")
		}
	})

	t.Run("Rejects Transfer Confirmation", func(t *testing.T) {
		engine := NewEngine(mocks.NewRemote(t), nil, nil, nil, 0, nil)
		pending := models.NewTransferConfirmation(models.InternalTransfer{}, models.FeeQuote{})

		_, err := engine.Continuation(caller)(context.Background(), pending)

		assert.Error(t, err)
	})
}
