package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeLot(t *testing.T, producedAt time.Time, qty, costUSD, costTJS float64) ProductLot {
	t.Helper()
	lot, err := NewProductLot(
		uuid.New(), uuid.New(), LotOriginProduction, producedAt,
		decimal.NewFromFloat(qty),
		decimal.NewFromFloat(costUSD),
		decimal.NewFromFloat(costTJS),
		decimal.NewFromFloat(10.95),
	)
	require.NoError(t, err)
	return *lot
}

func TestPlanConsumption(t *testing.T) {
	day1 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	t.Run("spans lots oldest first", func(t *testing.T) {
		old := makeLot(t, day1, 10, 2, 21.90)
		fresh := makeLot(t, day2, 20, 3, 32.85)

		// Pass newest first to prove the planner sorts
		plan, err := PlanConsumption(decimal.NewFromInt(15), []ProductLot{fresh, old})
		require.NoError(t, err)

		require.Len(t, plan.Draws, 2)
		assert.Equal(t, old.ID, plan.Draws[0].LotID)
		assert.True(t, plan.Draws[0].Quantity.Equal(decimal.NewFromInt(10)))
		assert.True(t, plan.Draws[0].FullyConsumed)
		assert.Equal(t, fresh.ID, plan.Draws[1].LotID)
		assert.True(t, plan.Draws[1].Quantity.Equal(decimal.NewFromInt(5)))
		assert.False(t, plan.Draws[1].FullyConsumed)

		assert.True(t, plan.FullyFulfilled)
		// (10*2 + 5*3) / 15 = 35/15
		assert.True(t, plan.UnitCostUSD.Equal(decimal.NewFromFloat(2.3333)), plan.UnitCostUSD.String())
		assert.True(t, plan.TotalCostUSD.Equal(decimal.NewFromInt(35)))
		assert.True(t, plan.TotalCostTJS.Equal(decimal.NewFromFloat(383.25)))
	})

	t.Run("ties broken by creation time", func(t *testing.T) {
		first := makeLot(t, day1, 5, 2, 21.90)
		second := makeLot(t, day1, 5, 3, 32.85)
		second.CreatedAt = first.CreatedAt.Add(time.Minute)

		plan, err := PlanConsumption(decimal.NewFromInt(6), []ProductLot{second, first})
		require.NoError(t, err)
		require.Len(t, plan.Draws, 2)
		assert.Equal(t, first.ID, plan.Draws[0].LotID)
	})

	t.Run("reports shortfall without error", func(t *testing.T) {
		lot := makeLot(t, day1, 4, 2, 21.90)

		plan, err := PlanConsumption(decimal.NewFromInt(10), []ProductLot{lot})
		require.NoError(t, err)
		assert.False(t, plan.FullyFulfilled)
		assert.True(t, plan.Shortfall.Equal(decimal.NewFromInt(6)))
		assert.True(t, plan.TotalQuantity.Equal(decimal.NewFromInt(4)))
	})

	t.Run("skips consumed lots", func(t *testing.T) {
		spent := makeLot(t, day1, 5, 2, 21.90)
		require.NoError(t, spent.Draw(decimal.NewFromInt(5)))
		live := makeLot(t, day2, 5, 3, 32.85)

		plan, err := PlanConsumption(decimal.NewFromInt(3), []ProductLot{spent, live})
		require.NoError(t, err)
		require.Len(t, plan.Draws, 1)
		assert.Equal(t, live.ID, plan.Draws[0].LotID)
	})

	t.Run("does not mutate input lots", func(t *testing.T) {
		lot := makeLot(t, day1, 10, 2, 21.90)
		_, err := PlanConsumption(decimal.NewFromInt(5), []ProductLot{lot})
		require.NoError(t, err)
		assert.True(t, lot.QuantityRemaining.Equal(decimal.NewFromInt(10)))
	})

	t.Run("rejects non-positive request", func(t *testing.T) {
		_, err := PlanConsumption(decimal.Zero, nil)
		assert.Error(t, err)
	})
}
