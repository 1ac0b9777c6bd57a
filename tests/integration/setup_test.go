// Package integration exercises the full stack below the HTTP layer:
// application services, the posting engine and the GORM repositories
// against a real (in-memory SQLite) database.
package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appledger "github.com/shirin/backend/internal/application/ledger"
	appproduction "github.com/shirin/backend/internal/application/production"
	appsales "github.com/shirin/backend/internal/application/sales"
	appstocktaking "github.com/shirin/backend/internal/application/stocktaking"
	apptransfer "github.com/shirin/backend/internal/application/transfer"
	"github.com/shirin/backend/internal/domain/catalog"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/production"
	"github.com/shirin/backend/internal/domain/sales"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shirin/backend/internal/domain/stocktaking"
	"github.com/shirin/backend/internal/domain/transfer"
	"github.com/shirin/backend/internal/infrastructure/event"
	"github.com/shirin/backend/internal/infrastructure/persistence"
	"github.com/shirin/backend/tests/testutil"
)

// stubRecipeProvider serves recipe versions from memory, standing in
// for the catalog service.
type stubRecipeProvider struct {
	versions map[uuid.UUID]*catalog.RecipeVersion
}

func newStubRecipeProvider() *stubRecipeProvider {
	return &stubRecipeProvider{versions: make(map[uuid.UUID]*catalog.RecipeVersion)}
}

func (p *stubRecipeProvider) add(v *catalog.RecipeVersion) {
	p.versions[v.RecipeID] = v
}

func (p *stubRecipeProvider) GetActiveVersion(_ context.Context, recipeID uuid.UUID) (*catalog.RecipeVersion, error) {
	v, ok := p.versions[recipeID]
	if !ok {
		return nil, shared.NewNotFoundError("recipe")
	}
	return v, nil
}

func (p *stubRecipeProvider) GetVersion(_ context.Context, versionID uuid.UUID) (*catalog.RecipeVersion, error) {
	for _, v := range p.versions {
		if v.ID == versionID {
			return v, nil
		}
	}
	return nil, shared.NewNotFoundError("recipe version")
}

// stubRateProvider returns a fixed TJS-per-USD rate.
type stubRateProvider struct {
	rate decimal.Decimal
	err  error
}

func (p *stubRateProvider) Rate(context.Context, time.Time) (decimal.Decimal, error) {
	if p.err != nil {
		return decimal.Zero, p.err
	}
	return p.rate, nil
}

type testEnv struct {
	db      *gorm.DB
	stock   *appledger.StockService
	prod    *appproduction.ProductionService
	sales   *appsales.SalesService
	xfers   *apptransfer.TransferService
	takings *appstocktaking.StockTakingService
	recipes *stubRecipeProvider
	rates   *stubRateProvider
	events  *testutil.MockEventHandler
}

// newTestEnv wires the services over a fresh in-memory database. Every
// test gets its own database, named after the test so shared-cache
// connections never cross tests.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared in-memory database alive for
	// the duration of the test.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&ledger.StockBalance{},
		&ledger.Movement{},
		&ledger.ProductLot{},
		&production.ProductionBatch{},
		&production.IngredientConsumption{},
		&sales.Sale{},
		&sales.SaleItem{},
		&sales.Payment{},
		&sales.SaleReturn{},
		&sales.SaleReturnItem{},
		&transfer.Transfer{},
		&transfer.TransferItem{},
		&stocktaking.StockTaking{},
		&stocktaking.StockTakingItem{},
	))

	scope := persistence.NewGormTransactionScope(db)
	balanceRepo := persistence.NewGormBalanceRepository(db)
	movementRepo := persistence.NewGormMovementRepository(db)
	lotRepo := persistence.NewGormLotRepository(db)
	batchRepo := persistence.NewGormBatchRepository(db)
	saleRepo := persistence.NewGormSaleRepository(db)
	returnRepo := persistence.NewGormReturnRepository(db)
	transferRepo := persistence.NewGormTransferRepository(db)
	takingRepo := persistence.NewGormStockTakingRepository(db)

	recipes := newStubRecipeProvider()
	rates := &stubRateProvider{rate: decimal.RequireFromString("10.5")}

	env := &testEnv{
		db:      db,
		stock:   appledger.NewStockService(scope, balanceRepo, movementRepo, lotRepo),
		prod:    appproduction.NewProductionService(scope, batchRepo, recipes, rates),
		sales:   appsales.NewSalesService(scope, saleRepo, returnRepo),
		xfers:   apptransfer.NewTransferService(scope, transferRepo),
		takings: appstocktaking.NewStockTakingService(scope, takingRepo),
		recipes: recipes,
		rates:   rates,
		events:  testutil.NewMockEventHandler(),
	}

	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(env.events)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	env.stock.SetEventPublisher(bus)
	env.prod.SetEventPublisher(bus)
	env.sales.SetEventPublisher(bus)
	env.xfers.SetEventPublisher(bus)
	env.takings.SetEventPublisher(bus)

	return env
}

// receiveIngredient posts a supplier delivery and returns the movement.
func (env *testEnv) receiveIngredient(t *testing.T, branchID, ingredientID uuid.UUID, qty, costUSD string) *appledger.MovementResponse {
	t.Helper()

	operatorID := testutil.TestUserID()
	mv, err := env.stock.ReceiveGoods(context.Background(), appledger.GoodsReceiptRequest{
		BranchID:     branchID,
		IngredientID: ingredientID,
		Quantity:     decimal.RequireFromString(qty),
		Unit:         "kg",
		UnitCostUSD:  decimal.RequireFromString(costUSD),
		OperatorID:   &operatorID,
	})
	require.NoError(t, err)
	return mv
}

// balanceOf reads one balance, failing the test on error.
func (env *testEnv) balanceOf(t *testing.T, branchID, itemID uuid.UUID, kind ledger.ItemKind) decimal.Decimal {
	t.Helper()

	b, err := env.stock.GetBalance(context.Background(), branchID, itemID, kind)
	require.NoError(t, err)
	return b.Quantity
}

// requireConsistent asserts the materialized balance agrees with the
// movement log.
func (env *testEnv) requireConsistent(t *testing.T, branchID, itemID uuid.UUID, kind ledger.ItemKind) {
	t.Helper()

	audit, err := env.stock.AuditBalance(context.Background(), branchID, itemID, kind)
	require.NoError(t, err)
	assert.True(t, audit.Consistent,
		"balance %s vs movement sum %s", audit.Materialized, audit.Recomputed)
}

// assertDecimal compares a decimal against its expected string form.
func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual),
		append([]interface{}{fmt.Sprintf("expected %s, got %s", expected, actual)}, msgAndArgs...)...)
}

// syrupRecipe registers a ten-litre recipe with two ingredients and
// returns its recipe ID, which doubles as the product's item ID.
func (env *testEnv) syrupRecipe(sugarID, apricotID uuid.UUID) uuid.UUID {
	recipeID := uuid.New()
	env.recipes.add(&catalog.RecipeVersion{
		ID:           uuid.New(),
		RecipeID:     recipeID,
		Version:      1,
		Name:         "Apricot syrup",
		OutputVolume: decimal.NewFromInt(10),
		OutputUnit:   "l",
		Ingredients: []catalog.RecipeIngredient{
			{IngredientID: sugarID, Name: "Sugar", Quantity: decimal.NewFromInt(8), Unit: "kg", UnitCostUSD: decimal.RequireFromString("0.6")},
			{IngredientID: apricotID, Name: "Apricot", Quantity: decimal.NewFromInt(5), Unit: "kg", UnitCostUSD: decimal.RequireFromString("1.2")},
		},
	})
	return recipeID
}
