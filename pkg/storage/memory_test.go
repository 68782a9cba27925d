package storage

import (
	"context"
	"testing"
	"time"

	"github.com/chris/money-movement/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Save And Get", func(t *testing.T) {
		store := NewMemoryStore()
		receipt := models.Receipt{ReferenceID: "IT0001234", Status: models.StatusCompleted, Date: base}

		require.NoError(t, store.SaveReceipt(ctx, "alex", receipt))
		got, err := store.GetReceipt(ctx, "alex", "IT0001234")

		require.NoError(t, err)
		assert.Equal(t, receipt, *got)
	})

	t.Run("Receipts Are Immutable", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.SaveReceipt(ctx, "alex", models.Receipt{ReferenceID: "R1", Status: models.StatusPending}))

		err := store.SaveReceipt(ctx, "alex", models.Receipt{ReferenceID: "R1", Status: models.StatusCompleted})

		assert.ErrorIs(t, err, ErrReceiptExists)
		got, _ := store.GetReceipt(ctx, "alex", "R1")
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("Not Found", func(t *testing.T) {
		_, err := NewMemoryStore().GetReceipt(ctx, "alex", "missing")

		assert.ErrorIs(t, err, ErrReceiptNotFound)
	})

	t.Run("Other Owner Cannot Read", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.SaveReceipt(ctx, "alex", models.Receipt{ReferenceID: "R1", Date: base}))

		_, err := store.GetReceipt(ctx, "bo", "R1")

		assert.ErrorIs(t, err, ErrReceiptNotFound)
	})

	t.Run("List Newest First With Limit", func(t *testing.T) {
		store := NewMemoryStore()
		for i, ref := range []string{"R1", "R2", "R3"} {
			r := models.Receipt{ReferenceID: ref, Date: base.Add(time.Duration(i) * time.Minute)}
			require.NoError(t, store.SaveReceipt(ctx, "alex", r))
		}
		require.NoError(t, store.SaveReceipt(ctx, "bo", models.Receipt{ReferenceID: "B1", Date: base}))

		got, err := store.ListReceipts(ctx, "alex", 2)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "R3", got[0].ReferenceID)
		assert.Equal(t, "R2", got[1].ReferenceID)
	})
}
