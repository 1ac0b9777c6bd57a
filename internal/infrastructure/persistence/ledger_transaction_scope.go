package persistence

import (
	"context"

	appledger "github.com/shirin/backend/internal/application/ledger"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/production"
	"github.com/shirin/backend/internal/domain/sales"
	"github.com/shirin/backend/internal/domain/stocktaking"
	"github.com/shirin/backend/internal/domain/transfer"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM
// transactions. Every repository handed to the callback is bound to the
// same transaction, so a document status change and the ledger
// movements it causes commit or roll back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories
// within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Balances returns the stock balance repository scoped to the current transaction
func (r *gormTransactionalRepositories) Balances() ledger.BalanceRepository {
	return NewGormBalanceRepository(r.tx)
}

// Movements returns the movement log repository scoped to the current transaction
func (r *gormTransactionalRepositories) Movements() ledger.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

// Lots returns the product lot repository scoped to the current transaction
func (r *gormTransactionalRepositories) Lots() ledger.LotRepository {
	return NewGormLotRepository(r.tx)
}

// Batches returns the production batch repository scoped to the current transaction
func (r *gormTransactionalRepositories) Batches() production.Repository {
	return NewGormBatchRepository(r.tx)
}

// Sales returns the sale repository scoped to the current transaction
func (r *gormTransactionalRepositories) Sales() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// Returns returns the sale return repository scoped to the current transaction
func (r *gormTransactionalRepositories) Returns() sales.ReturnRepository {
	return NewGormReturnRepository(r.tx)
}

// Transfers returns the transfer repository scoped to the current transaction
func (r *gormTransactionalRepositories) Transfers() transfer.Repository {
	return NewGormTransferRepository(r.tx)
}

// StockTakings returns the stock taking repository scoped to the current transaction
func (r *gormTransactionalRepositories) StockTakings() stocktaking.Repository {
	return NewGormStockTakingRepository(r.tx)
}

// Ledger returns the posting engine bound to the transaction's repositories
func (r *gormTransactionalRepositories) Ledger() *ledger.Service {
	return ledger.NewService(r.Balances(), r.Movements(), r.Lots())
}

// Ensure GormTransactionScope implements TransactionScope
var _ appledger.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
