package stocktaking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftTaking(t *testing.T) (*StockTaking, uuid.UUID) {
	t.Helper()
	st, err := NewStockTaking(uuid.New(), "ST-2025-0001", uuid.New())
	require.NoError(t, err)
	itemID := uuid.New()
	require.NoError(t, st.AddItem(itemID, ledger.ItemKindProduct, "Lemonade 0.5L", "piece", decimal.NewFromInt(45)))
	return st, itemID
}

func TestStockTakingItems(t *testing.T) {
	t.Run("duplicate item rejected", func(t *testing.T) {
		st, itemID := draftTaking(t)
		assert.Error(t, st.AddItem(itemID, ledger.ItemKindProduct, "Lemonade 0.5L", "piece", decimal.NewFromInt(1)))
	})

	t.Run("negative snapshot rejected", func(t *testing.T) {
		st, _ := draftTaking(t)
		assert.Error(t, st.AddItem(uuid.New(), ledger.ItemKindIngredient, "Sugar", "kg", decimal.NewFromInt(-1)))
	})

	t.Run("items frozen after start", func(t *testing.T) {
		st, _ := draftTaking(t)
		require.NoError(t, st.Start())
		assert.Error(t, st.AddItem(uuid.New(), ledger.ItemKindIngredient, "Sugar", "kg", decimal.NewFromInt(10)))
	})
}

func TestStockTakingStart(t *testing.T) {
	t.Run("empty count cannot start", func(t *testing.T) {
		st, err := NewStockTaking(uuid.New(), "ST-2025-0002", uuid.New())
		require.NoError(t, err)
		assert.Error(t, st.Start())
	})

	t.Run("draft starts", func(t *testing.T) {
		st, _ := draftTaking(t)
		require.NoError(t, st.Start())
		assert.Equal(t, StockTakingStatusInProgress, st.Status)
		assert.NotNil(t, st.StartedAt)
	})
}

func TestStockTakingRecordCount(t *testing.T) {
	started := func(t *testing.T) (*StockTaking, uuid.UUID) {
		t.Helper()
		st, itemID := draftTaking(t)
		require.NoError(t, st.Start())
		return st, itemID
	}

	t.Run("records actual and discrepancy against snapshot", func(t *testing.T) {
		st, itemID := started(t)
		require.NoError(t, st.RecordCount(itemID, decimal.NewFromInt(44), uuid.New()))

		item := st.FindItem(itemID)
		require.NotNil(t, item)
		require.True(t, item.IsCounted())
		assert.True(t, item.ActualQuantity.Equal(decimal.NewFromInt(44)))
		assert.True(t, item.Discrepancy.Equal(decimal.NewFromInt(-1)))
	})

	t.Run("recount overwrites", func(t *testing.T) {
		st, itemID := started(t)
		require.NoError(t, st.RecordCount(itemID, decimal.NewFromInt(40), uuid.New()))
		require.NoError(t, st.RecordCount(itemID, decimal.NewFromInt(45), uuid.New()))

		item := st.FindItem(itemID)
		assert.True(t, item.ActualQuantity.Equal(decimal.NewFromInt(45)))
		assert.False(t, item.HasDiscrepancy())
	})

	t.Run("negative count rejected", func(t *testing.T) {
		st, itemID := started(t)
		assert.Error(t, st.RecordCount(itemID, decimal.NewFromInt(-1), uuid.New()))
	})

	t.Run("unknown item rejected", func(t *testing.T) {
		st, _ := started(t)
		assert.Error(t, st.RecordCount(uuid.New(), decimal.NewFromInt(1), uuid.New()))
	})

	t.Run("no recording on draft", func(t *testing.T) {
		st, itemID := draftTaking(t)
		assert.Error(t, st.RecordCount(itemID, decimal.NewFromInt(44), uuid.New()))
	})
}

func TestStockTakingComplete(t *testing.T) {
	t.Run("uncounted items do not block completion", func(t *testing.T) {
		st, itemID := draftTaking(t)
		require.NoError(t, st.AddItem(uuid.New(), ledger.ItemKindIngredient, "Sugar", "kg", decimal.NewFromInt(10)))
		require.NoError(t, st.Start())
		require.NoError(t, st.RecordCount(itemID, decimal.NewFromInt(44), uuid.New()))

		require.NoError(t, st.Complete())
		assert.Equal(t, StockTakingStatusCompleted, st.Status)
		assert.Len(t, st.UncountedItems(), 1)
		assert.Len(t, st.DiscrepancyItems(), 1)
	})

	t.Run("completes with discrepancy report", func(t *testing.T) {
		st, itemID := draftTaking(t)
		require.NoError(t, st.Start())
		require.NoError(t, st.RecordCount(itemID, decimal.NewFromInt(44), uuid.New()))

		require.NoError(t, st.Complete())
		assert.Equal(t, StockTakingStatusCompleted, st.Status)
		assert.NotNil(t, st.CompletedAt)
		assert.Len(t, st.DiscrepancyItems(), 1)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		st, itemID := draftTaking(t)
		require.NoError(t, st.Start())
		require.NoError(t, st.RecordCount(itemID, decimal.NewFromInt(45), uuid.New()))
		require.NoError(t, st.Complete())

		assert.Error(t, st.Cancel("too late"))
		assert.Error(t, st.Start())
	})
}

func TestStockTakingCancel(t *testing.T) {
	t.Run("draft can cancel", func(t *testing.T) {
		st, _ := draftTaking(t)
		require.NoError(t, st.Cancel("wrong branch"))
		assert.Equal(t, StockTakingStatusCancelled, st.Status)
	})

	t.Run("in progress can cancel", func(t *testing.T) {
		st, _ := draftTaking(t)
		require.NoError(t, st.Start())
		require.NoError(t, st.Cancel("interrupted"))
		assert.NotNil(t, st.CancelledAt)
	})
}
