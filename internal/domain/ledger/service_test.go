package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*StockBalance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StockBalance), args.Error(1)
}

func (m *MockBalanceRepository) FindByKey(ctx context.Context, branchID, itemID uuid.UUID, kind ItemKind) (*StockBalance, error) {
	args := m.Called(ctx, branchID, itemID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StockBalance), args.Error(1)
}

func (m *MockBalanceRepository) ObtainForUpdate(ctx context.Context, branchID, itemID uuid.UUID, kind ItemKind, unit string) (*StockBalance, error) {
	args := m.Called(ctx, branchID, itemID, kind, unit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StockBalance), args.Error(1)
}

func (m *MockBalanceRepository) Save(ctx context.Context, balance *StockBalance) error {
	args := m.Called(ctx, balance)
	return args.Error(0)
}

func (m *MockBalanceRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, kind ItemKind, filter shared.Filter) ([]StockBalance, error) {
	args := m.Called(ctx, branchID, kind, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]StockBalance), args.Error(1)
}

func (m *MockBalanceRepository) FindBelowMin(ctx context.Context, branchID uuid.UUID) ([]StockBalance, error) {
	args := m.Called(ctx, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]StockBalance), args.Error(1)
}

func (m *MockBalanceRepository) Count(ctx context.Context, branchID uuid.UUID, kind ItemKind, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, branchID, kind, filter)
	return args.Get(0).(int64), args.Error(1)
}

type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Append(ctx context.Context, movement *Movement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*Movement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Movement), args.Error(1)
}

func (m *MockMovementRepository) Find(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Movement), args.Error(1)
}

func (m *MockMovementRepository) Count(ctx context.Context, filter MovementFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMovementRepository) SumQuantity(ctx context.Context, branchID, itemID uuid.UUID, kind ItemKind) (decimal.Decimal, error) {
	args := m.Called(ctx, branchID, itemID, kind)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockLotRepository struct {
	mock.Mock
}

func (m *MockLotRepository) Create(ctx context.Context, lot *ProductLot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

func (m *MockLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*ProductLot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProductLot), args.Error(1)
}

func (m *MockLotRepository) FindAvailableForUpdate(ctx context.Context, branchID, productID uuid.UUID) ([]ProductLot, error) {
	args := m.Called(ctx, branchID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ProductLot), args.Error(1)
}

func (m *MockLotRepository) FindAvailable(ctx context.Context, branchID, productID uuid.UUID) ([]ProductLot, error) {
	args := m.Called(ctx, branchID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ProductLot), args.Error(1)
}

func (m *MockLotRepository) FindLatest(ctx context.Context, branchID, productID uuid.UUID) (*ProductLot, error) {
	args := m.Called(ctx, branchID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProductLot), args.Error(1)
}

func (m *MockLotRepository) Save(ctx context.Context, lot *ProductLot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

func (m *MockLotRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]ProductLot, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ProductLot), args.Error(1)
}

func newTestService() (*Service, *MockBalanceRepository, *MockMovementRepository, *MockLotRepository) {
	balances := new(MockBalanceRepository)
	movements := new(MockMovementRepository)
	lots := new(MockLotRepository)
	return NewService(balances, movements, lots), balances, movements, lots
}

func testBalance(t *testing.T, branchID, itemID uuid.UUID, kind ItemKind, qty int64) *StockBalance {
	t.Helper()
	b, err := NewStockBalance(branchID, itemID, kind, "piece")
	require.NoError(t, err)
	b.Quantity = decimal.NewFromInt(qty)
	return b
}

func TestServicePostIngredientReceipt(t *testing.T) {
	svc, balances, movements, _ := newTestService()
	ctx := context.Background()
	branchID, itemID := uuid.New(), uuid.New()

	balance := testBalance(t, branchID, itemID, ItemKindIngredient, 0)
	balances.On("ObtainForUpdate", ctx, branchID, itemID, ItemKindIngredient, "kg").Return(balance, nil)
	movements.On("Append", ctx, mock.AnythingOfType("*ledger.Movement")).Return(nil)
	balances.On("Save", ctx, balance).Return(nil)

	result, err := svc.Post(ctx, PostRequest{
		BranchID:    branchID,
		ItemID:      itemID,
		Kind:        ItemKindIngredient,
		Type:        MovementTypeReceipt,
		Quantity:    decimal.NewFromInt(100),
		Unit:        "kg",
		Reference:   Reference{Type: ReferenceTypeGoodsReceipt, ID: uuid.New()},
		UnitCostUSD: decimal.NewFromFloat(1.20),
	})

	require.NoError(t, err)
	assert.True(t, result.Balance.Quantity.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.Movement.BalanceBefore.IsZero())
	assert.True(t, result.Movement.BalanceAfter.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.Movement.UnitCostUSD.Equal(decimal.NewFromFloat(1.20)))
	assert.Nil(t, result.Plan)
	assert.Nil(t, result.Lot)
	movements.AssertExpectations(t)
	balances.AssertExpectations(t)
}

func TestServicePostProductDebitWalksLotsFIFO(t *testing.T) {
	svc, balances, movements, lots := newTestService()
	ctx := context.Background()
	branchID, productID := uuid.New(), uuid.New()

	day1 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	old := makeLot(t, day1, 10, 2, 21.90)
	fresh := makeLot(t, day1.Add(24*time.Hour), 20, 3, 32.85)

	balance := testBalance(t, branchID, productID, ItemKindProduct, 30)
	balances.On("ObtainForUpdate", ctx, branchID, productID, ItemKindProduct, "piece").Return(balance, nil)
	lots.On("FindAvailableForUpdate", ctx, branchID, productID).Return([]ProductLot{old, fresh}, nil)
	lots.On("Save", ctx, mock.AnythingOfType("*ledger.ProductLot")).Return(nil).Twice()
	movements.On("Append", ctx, mock.AnythingOfType("*ledger.Movement")).Return(nil)
	balances.On("Save", ctx, balance).Return(nil)

	result, err := svc.Post(ctx, PostRequest{
		BranchID:  branchID,
		ItemID:    productID,
		Kind:      ItemKindProduct,
		Type:      MovementTypeSaleShipment,
		Quantity:  decimal.NewFromInt(-15),
		Unit:      "piece",
		Reference: Reference{Type: ReferenceTypeSale, ID: uuid.New()},
	})

	require.NoError(t, err)
	require.NotNil(t, result.Plan)
	require.Len(t, result.Plan.Draws, 2)
	assert.Equal(t, old.ID, result.Plan.Draws[0].LotID)
	assert.True(t, result.Plan.UnitCostUSD.Equal(decimal.NewFromFloat(2.3333)))
	assert.True(t, result.Movement.UnitCostUSD.Equal(decimal.NewFromFloat(2.3333)))
	assert.True(t, result.Balance.Quantity.Equal(decimal.NewFromInt(15)))
	lots.AssertExpectations(t)
}

func TestServicePostInsufficientStock(t *testing.T) {
	svc, balances, movements, _ := newTestService()
	ctx := context.Background()
	branchID, itemID := uuid.New(), uuid.New()

	balance := testBalance(t, branchID, itemID, ItemKindIngredient, 10)
	balances.On("ObtainForUpdate", ctx, branchID, itemID, ItemKindIngredient, "kg").Return(balance, nil)

	_, err := svc.Post(ctx, PostRequest{
		BranchID:  branchID,
		ItemID:    itemID,
		Kind:      ItemKindIngredient,
		Type:      MovementTypeWriteOff,
		Quantity:  decimal.NewFromInt(-15),
		Unit:      "kg",
		Reference: Reference{Type: ReferenceTypeManual, ID: uuid.New()},
	})

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, shared.CodeInsufficientStock, domainErr.Code)
	movements.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestServicePostLotShortfallIsInconsistency(t *testing.T) {
	svc, balances, _, lots := newTestService()
	ctx := context.Background()
	branchID, productID := uuid.New(), uuid.New()

	// Balance says 30 but lots only hold 10: corrupted bookkeeping
	balance := testBalance(t, branchID, productID, ItemKindProduct, 30)
	only := makeLot(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), 10, 2, 21.90)

	balances.On("ObtainForUpdate", ctx, branchID, productID, ItemKindProduct, "piece").Return(balance, nil)
	lots.On("FindAvailableForUpdate", ctx, branchID, productID).Return([]ProductLot{only}, nil)

	_, err := svc.Post(ctx, PostRequest{
		BranchID:  branchID,
		ItemID:    productID,
		Kind:      ItemKindProduct,
		Type:      MovementTypeSaleShipment,
		Quantity:  decimal.NewFromInt(-15),
		Unit:      "piece",
		Reference: Reference{Type: ReferenceTypeSale, ID: uuid.New()},
	})

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, shared.CodeLedgerInconsistency, domainErr.Code)
}

func TestServicePostProductCreditCreatesLot(t *testing.T) {
	svc, balances, movements, lots := newTestService()
	ctx := context.Background()
	branchID, productID := uuid.New(), uuid.New()
	batchID := uuid.New()

	balance := testBalance(t, branchID, productID, ItemKindProduct, 0)
	balances.On("ObtainForUpdate", ctx, branchID, productID, ItemKindProduct, "piece").Return(balance, nil)
	lots.On("Create", ctx, mock.AnythingOfType("*ledger.ProductLot")).Return(nil)
	movements.On("Append", ctx, mock.AnythingOfType("*ledger.Movement")).Return(nil)
	balances.On("Save", ctx, balance).Return(nil)

	result, err := svc.Post(ctx, PostRequest{
		BranchID: branchID,
		ItemID:   productID,
		Kind:     ItemKindProduct,
		Type:     MovementTypeProductionOutput,
		Quantity: decimal.NewFromInt(50),
		Unit:     "piece",
		Reference: Reference{
			Type: ReferenceTypeProductionBatch,
			ID:   batchID,
		},
		Lot: &LotBasis{
			Origin:            LotOriginProduction,
			ProducedAt:        time.Now(),
			UnitCostUSD:       decimal.NewFromFloat(2.5),
			UnitCostTJS:       decimal.NewFromFloat(27.375),
			ExchangeRate:      decimal.NewFromFloat(10.95),
			ProductionBatchID: &batchID,
		},
	})

	require.NoError(t, err)
	require.NotNil(t, result.Lot)
	assert.True(t, result.Lot.QuantityRemaining.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, &batchID, result.Lot.ProductionBatchID)
	require.NotNil(t, result.Movement.LotID)
	assert.Equal(t, result.Lot.ID, *result.Movement.LotID)
	assert.True(t, result.Movement.UnitCostTJS.Equal(decimal.NewFromFloat(27.375)))
}

func TestServicePostProductCreditWithoutBasis(t *testing.T) {
	svc, balances, _, _ := newTestService()
	ctx := context.Background()
	branchID, productID := uuid.New(), uuid.New()

	balance := testBalance(t, branchID, productID, ItemKindProduct, 0)
	balances.On("ObtainForUpdate", ctx, branchID, productID, ItemKindProduct, "piece").Return(balance, nil)

	_, err := svc.Post(ctx, PostRequest{
		BranchID:  branchID,
		ItemID:    productID,
		Kind:      ItemKindProduct,
		Type:      MovementTypeSaleReturn,
		Quantity:  decimal.NewFromInt(2),
		Unit:      "piece",
		Reference: Reference{Type: ReferenceTypeSaleReturn, ID: uuid.New()},
	})

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, shared.CodeValidationFailed, domainErr.Code)
}

func TestServicePostAdjustmentCreditPricedFromLatestLot(t *testing.T) {
	svc, balances, movements, lots := newTestService()
	ctx := context.Background()
	branchID, productID := uuid.New(), uuid.New()

	balance := testBalance(t, branchID, productID, ItemKindProduct, 5)
	latest := makeLot(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), 5, 3, 32.85)

	balances.On("ObtainForUpdate", ctx, branchID, productID, ItemKindProduct, "piece").Return(balance, nil)
	lots.On("FindLatest", ctx, branchID, productID).Return(&latest, nil)
	lots.On("Create", ctx, mock.AnythingOfType("*ledger.ProductLot")).Return(nil)
	movements.On("Append", ctx, mock.AnythingOfType("*ledger.Movement")).Return(nil)
	balances.On("Save", ctx, balance).Return(nil)

	result, err := svc.Post(ctx, PostRequest{
		BranchID:  branchID,
		ItemID:    productID,
		Kind:      ItemKindProduct,
		Type:      MovementTypeAdjustment,
		Quantity:  decimal.NewFromInt(2),
		Unit:      "piece",
		Reference: Reference{Type: ReferenceTypeStockTaking, ID: uuid.New()},
	})

	require.NoError(t, err)
	require.NotNil(t, result.Lot)
	assert.Equal(t, LotOriginAdjustment, result.Lot.Origin)
	assert.True(t, result.Lot.UnitCostUSD.Equal(decimal.NewFromInt(3)))
}

func TestServiceVerifyBalance(t *testing.T) {
	svc, balances, movements, _ := newTestService()
	ctx := context.Background()
	branchID, itemID := uuid.New(), uuid.New()

	balance := testBalance(t, branchID, itemID, ItemKindIngredient, 44)
	balances.On("FindByKey", ctx, branchID, itemID, ItemKindIngredient).Return(balance, nil)

	t.Run("consistent", func(t *testing.T) {
		movements.ExpectedCalls = nil
		movements.On("SumQuantity", ctx, branchID, itemID, ItemKindIngredient).Return(decimal.NewFromInt(44), nil)

		audit, err := svc.VerifyBalance(ctx, branchID, itemID, ItemKindIngredient)
		require.NoError(t, err)
		assert.True(t, audit.Consistent)
	})

	t.Run("inconsistent", func(t *testing.T) {
		movements.ExpectedCalls = nil
		movements.On("SumQuantity", ctx, branchID, itemID, ItemKindIngredient).Return(decimal.NewFromInt(45), nil)

		audit, err := svc.VerifyBalance(ctx, branchID, itemID, ItemKindIngredient)
		require.NoError(t, err)
		assert.False(t, audit.Consistent)
		assert.True(t, audit.Recomputed.Equal(decimal.NewFromInt(45)))
	})
}
