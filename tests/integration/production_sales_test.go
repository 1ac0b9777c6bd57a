package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appproduction "github.com/shirin/backend/internal/application/production"
	appsales "github.com/shirin/backend/internal/application/sales"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/production"
	"github.com/shirin/backend/internal/domain/sales"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shirin/backend/tests/testutil"
)

// Runs the whole production-to-sale chain: two batches at different
// unit costs, a sale drawing across both lots FIFO, and a partial
// return re-entering stock at the original cost basis.
func TestProductionToSaleFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	branchID := testutil.TestBranchID()
	userID := testutil.TestUserID()
	sugarID := uuid.New()
	apricotID := uuid.New()
	recipeID := env.syrupRecipe(sugarID, apricotID)

	env.receiveIngredient(t, branchID, sugarID, "100", "0.6")
	env.receiveIngredient(t, branchID, apricotID, "50", "1.2")

	// First batch: planned quantities consumed as-is.
	// 8 kg * 0.6 + 5 kg * 1.2 = 10.8 USD over 10 l.
	batch1, err := env.prod.CreateBatch(ctx, appproduction.CreateBatchRequest{
		BranchID:        branchID,
		RecipeID:        recipeID,
		PlannedQuantity: decimal.NewFromInt(10),
		CreatedBy:       userID,
	})
	require.NoError(t, err)
	assert.Equal(t, production.BatchStatusPlanned, batch1.Status)
	require.Len(t, batch1.Consumptions, 2)

	batch1, err = env.prod.StartBatch(ctx, batch1.ID, appproduction.StartBatchRequest{OperatorID: &userID})
	require.NoError(t, err)
	assertDecimal(t, "92", env.balanceOf(t, branchID, sugarID, ledger.ItemKindIngredient))
	assertDecimal(t, "45", env.balanceOf(t, branchID, apricotID, ledger.ItemKindIngredient))

	batch1, err = env.prod.CompleteBatch(ctx, batch1.ID, appproduction.CompleteBatchRequest{
		ActualQuantity: decimal.NewFromInt(10),
		OperatorID:     &userID,
	})
	require.NoError(t, err)
	assertDecimal(t, "1.08", batch1.UnitCostUSD)
	assertDecimal(t, "11.34", batch1.UnitCostTJS)
	assertDecimal(t, "1", batch1.YieldRatio)
	assertDecimal(t, "10", env.balanceOf(t, branchID, recipeID, ledger.ItemKindProduct))

	// Second batch: sugar overridden to 10 kg, lower yield, higher rate.
	// 10 * 0.6 + 5 * 1.2 = 12 USD over 8 l = 1.5 USD/l.
	env.rates.rate = decimal.NewFromInt(11)
	batch2, err := env.prod.CreateBatch(ctx, appproduction.CreateBatchRequest{
		BranchID:        branchID,
		RecipeID:        recipeID,
		PlannedQuantity: decimal.NewFromInt(10),
		CreatedBy:       userID,
	})
	require.NoError(t, err)
	batch2, err = env.prod.StartBatch(ctx, batch2.ID, appproduction.StartBatchRequest{
		ActualConsumptions: []appproduction.ActualConsumption{
			{IngredientID: sugarID, Quantity: decimal.NewFromInt(10)},
		},
		OperatorID: &userID,
	})
	require.NoError(t, err)
	batch2, err = env.prod.CompleteBatch(ctx, batch2.ID, appproduction.CompleteBatchRequest{
		ActualQuantity: decimal.NewFromInt(8),
		OperatorID:     &userID,
	})
	require.NoError(t, err)
	assertDecimal(t, "1.5", batch2.UnitCostUSD)
	assertDecimal(t, "16.5", batch2.UnitCostTJS)
	assertDecimal(t, "0.8", batch2.YieldRatio)
	assertDecimal(t, "18", env.balanceOf(t, branchID, recipeID, ledger.ItemKindProduct))

	lots, err := env.stock.ListLots(ctx, branchID, recipeID)
	require.NoError(t, err)
	require.Len(t, lots, 2)

	// Sale of 12 l drains lot 1 (10 l at 1.08) and 2 l of lot 2 (1.5):
	// weighted COGS (10.8 + 3) / 12 = 1.15 USD/l.
	sale, err := env.sales.CreateSale(ctx, appsales.CreateSaleRequest{
		BranchID:     branchID,
		CustomerName: "Bahor store",
		Items: []appsales.SaleItemRequest{
			{ProductID: recipeID, ProductName: "Apricot syrup", Unit: "l",
				Quantity: decimal.NewFromInt(12), UnitPriceTJS: decimal.NewFromInt(30)},
		},
		CreatedBy: userID,
	})
	require.NoError(t, err)
	assertDecimal(t, "360", sale.TotalTJS)

	sale, err = env.sales.Confirm(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.SaleStatusConfirmed, sale.Status)

	sale, err = env.sales.AddPayment(ctx, sale.ID, appsales.AddPaymentRequest{
		AmountTJS:  decimal.NewFromInt(200),
		Method:     "CASH",
		ReceivedBy: userID,
	})
	require.NoError(t, err)
	assertDecimal(t, "200", sale.PaidTJS)
	assertDecimal(t, "160", sale.DebtTJS)

	sale, err = env.sales.Ship(ctx, sale.ID, &userID)
	require.NoError(t, err)
	assert.Equal(t, sales.SaleStatusShipped, sale.Status)
	require.Len(t, sale.Items, 1)
	assertDecimal(t, "1.15", sale.Items[0].COGSUnitUSD)
	assertDecimal(t, "6", env.balanceOf(t, branchID, recipeID, ledger.ItemKindProduct))

	lots, err = env.stock.ListLots(ctx, branchID, recipeID)
	require.NoError(t, err)
	require.Len(t, lots, 1, "first lot should be drained")
	assertDecimal(t, "6", lots[0].QuantityRemaining)
	assertDecimal(t, "1.5", lots[0].UnitCostUSD)

	// 2 l come back resaleable, re-entering at the shipped COGS.
	ret, err := env.sales.CreateReturn(ctx, sale.ID, appsales.CreateReturnRequest{
		Items: []appsales.ReturnItemRequest{
			{ProductID: recipeID, Quantity: decimal.NewFromInt(2), ReturnToStock: true},
		},
		Reason:    "unopened crate",
		CreatedBy: userID,
	})
	require.NoError(t, err)
	assertDecimal(t, "8", env.balanceOf(t, branchID, recipeID, ledger.ItemKindProduct))

	valuation, err := env.stock.Valuation(ctx, branchID, recipeID)
	require.NoError(t, err)
	assert.Equal(t, 2, valuation.LotCount)
	assertDecimal(t, "8", valuation.Quantity)
	// 6 l at 1.5 plus 2 l at 1.15
	assertDecimal(t, "11.3", valuation.ValueUSD)

	returns, err := env.sales.ListReturnsBySale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, returns, 1)
	assert.Equal(t, ret.ID, returns[0].ID)

	env.requireConsistent(t, branchID, recipeID, ledger.ItemKindProduct)
	env.requireConsistent(t, branchID, sugarID, ledger.ItemKindIngredient)

	types := env.events.HandledTypes()
	assert.Contains(t, types, "production.batch.completed")
	assert.Contains(t, types, "sales.sale.shipped")
	assert.Contains(t, types, "sales.return.created")
}

func TestBatchLifecycleGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	branchID := testutil.TestBranchID()
	userID := testutil.TestUserID()
	sugarID := uuid.New()
	apricotID := uuid.New()
	recipeID := env.syrupRecipe(sugarID, apricotID)

	// Starting without ingredient stock aborts the whole posting
	batch, err := env.prod.CreateBatch(ctx, appproduction.CreateBatchRequest{
		BranchID:        branchID,
		RecipeID:        recipeID,
		PlannedQuantity: decimal.NewFromInt(10),
		CreatedBy:       userID,
	})
	require.NoError(t, err)

	_, err = env.prod.StartBatch(ctx, batch.ID, appproduction.StartBatchRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	got, err := env.prod.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, production.BatchStatusPlanned, got.Status, "failed start must roll back the status change")

	// Completing a batch that never started is rejected
	_, err = env.prod.CompleteBatch(ctx, batch.ID, appproduction.CompleteBatchRequest{
		ActualQuantity: decimal.NewFromInt(10),
	})
	require.Error(t, err)

	// A planned batch can still be cancelled
	cancelled, err := env.prod.CancelBatch(ctx, batch.ID, "wrong recipe")
	require.NoError(t, err)
	assert.Equal(t, production.BatchStatusCancelled, cancelled.Status)

	// And a cancelled batch is finished for good
	_, err = env.prod.StartBatch(ctx, batch.ID, appproduction.StartBatchRequest{})
	require.Error(t, err)
}

func TestSaleGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	branchID := testutil.TestBranchID()
	userID := testutil.TestUserID()
	productID := uuid.New()

	sale, err := env.sales.CreateSale(ctx, appsales.CreateSaleRequest{
		BranchID:  branchID,
		CreatedBy: userID,
		Items: []appsales.SaleItemRequest{
			{ProductID: productID, ProductName: "Syrup", Unit: "l",
				Quantity: decimal.NewFromInt(5), UnitPriceTJS: decimal.NewFromInt(30)},
		},
	})
	require.NoError(t, err)

	// Shipping a draft sale is rejected
	_, err = env.sales.Ship(ctx, sale.ID, &userID)
	require.Error(t, err)

	// Shipping a confirmed sale without product stock rolls everything back
	sale, err = env.sales.Confirm(ctx, sale.ID)
	require.NoError(t, err)
	_, err = env.sales.Ship(ctx, sale.ID, &userID)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	got, err := env.sales.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.SaleStatusConfirmed, got.Status)

	// Returns only exist against shipped sales
	_, err = env.sales.CreateReturn(ctx, sale.ID, appsales.CreateReturnRequest{
		Items:     []appsales.ReturnItemRequest{{ProductID: productID, Quantity: decimal.NewFromInt(1)}},
		CreatedBy: userID,
	})
	require.Error(t, err)
}
