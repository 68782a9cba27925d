package bus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	topics []Topic
}

func (r *recorder) handle(t Topic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, t)
}

func (r *recorder) got() []Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Topic(nil), r.topics...)
}

func TestBus(t *testing.T) {
	t.Run("Subscriber Receives Only Its Topics", func(t *testing.T) {
		// Arrange
		b := New(nil)
		rec := &recorder{}
		_, err := b.Subscribe(rec.handle, TopicTransferUpdated, TopicBalanceUpdated)
		require.NoError(t, err)

		// Act
		require.NoError(t, b.Publish(TopicTransferUpdated))
		require.NoError(t, b.Publish(TopicCardUpdated))
		require.NoError(t, b.Publish(TopicBalanceUpdated))

		// Assert
		assert.Equal(t, []Topic{TopicTransferUpdated, TopicBalanceUpdated}, rec.got())
	})

	t.Run("No Topics Means All Topics", func(t *testing.T) {
		b := New(nil)
		rec := &recorder{}
		_, err := b.Subscribe(rec.handle)
		require.NoError(t, err)

		for _, topic := range Topics {
			require.NoError(t, b.Publish(topic))
		}

		assert.Equal(t, Topics, rec.got())
	})

	t.Run("Unsubscribe Removes Only That Subscriber", func(t *testing.T) {
		b := New(nil)
		first, second := &recorder{}, &recorder{}
		sub, err := b.Subscribe(first.handle, TopicLoanUpdated)
		require.NoError(t, err)
		_, err = b.Subscribe(second.handle, TopicLoanUpdated)
		require.NoError(t, err)

		sub.Unsubscribe()
		sub.Unsubscribe()
		require.NoError(t, b.Publish(TopicLoanUpdated))

		assert.Empty(t, first.got())
		assert.Equal(t, []Topic{TopicLoanUpdated}, second.got())
	})

	t.Run("Unsubscribe Keeps Remaining Order", func(t *testing.T) {
		b := New(nil)
		var mu sync.Mutex
		var order []string
		handler := func(name string) Handler {
			return func(Topic) {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name)
			}
		}
		first, err := b.Subscribe(handler("first"), TopicTransferUpdated)
		require.NoError(t, err)
		_, err = b.Subscribe(handler("second"), TopicTransferUpdated)
		require.NoError(t, err)
		third, err := b.Subscribe(handler("third"))
		require.NoError(t, err)

		first.Unsubscribe()
		require.NoError(t, b.Publish(TopicTransferUpdated))
		third.Unsubscribe()
		require.NoError(t, b.Publish(TopicTransferUpdated))

		assert.Equal(t, []string{"second", "third", "second"}, order)
	})

	t.Run("Callbacks Live On The Event Bus", func(t *testing.T) {
		b := New(nil)
		key := string(TopicLoanUpdated)
		assert.False(t, b.events.HasCallback(key))

		sub, err := b.Subscribe(func(Topic) {}, TopicLoanUpdated)
		require.NoError(t, err)
		fwd := b.Forward(func(Topic) {})
		assert.True(t, b.events.HasCallback(key))

		sub.Unsubscribe()
		assert.True(t, b.events.HasCallback(key))
		fwd.Unsubscribe()
		assert.False(t, b.events.HasCallback(key))
	})

	t.Run("Unknown Topic", func(t *testing.T) {
		b := New(nil)

		assert.ErrorIs(t, b.Publish(Topic("everything-updated")), ErrUnknownTopic)
		assert.ErrorIs(t, b.Deliver(Topic("everything-updated")), ErrUnknownTopic)
		_, err := b.Subscribe(func(Topic) {}, Topic("nope"))
		assert.ErrorIs(t, err, ErrUnknownTopic)
	})

	t.Run("Forwarders See Local Cues Only", func(t *testing.T) {
		b := New(nil)
		local, forwarded := &recorder{}, &recorder{}
		_, err := b.Subscribe(local.handle)
		require.NoError(t, err)
		b.Forward(forwarded.handle)

		require.NoError(t, b.Publish(TopicTransferUpdated))
		require.NoError(t, b.Deliver(TopicCardUpdated))

		assert.Equal(t, []Topic{TopicTransferUpdated, TopicCardUpdated}, local.got())
		assert.Equal(t, []Topic{TopicTransferUpdated}, forwarded.got())
	})

	t.Run("Panicking Subscriber Does Not Stop Others", func(t *testing.T) {
		b := New(nil)
		rec := &recorder{}
		_, err := b.Subscribe(func(Topic) { panic("boom") }, TopicTransferUpdated)
		require.NoError(t, err)
		_, err = b.Subscribe(rec.handle, TopicTransferUpdated)
		require.NoError(t, err)

		assert.NotPanics(t, func() { _ = b.Publish(TopicTransferUpdated) })
		assert.Equal(t, []Topic{TopicTransferUpdated}, rec.got())
	})
}

func TestParseTopic(t *testing.T) {
	topic, err := ParseTopic("bitcoin-transaction-updated")
	require.NoError(t, err)
	assert.Equal(t, TopicBitcoinTransactionUpdated, topic)

	_, err = ParseTopic("transfer_updated")
	assert.ErrorIs(t, err, ErrUnknownTopic)
}
