package ledger

import (
	"context"

	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/production"
	"github.com/shirin/backend/internal/domain/sales"
	"github.com/shirin/backend/internal/domain/stocktaking"
	"github.com/shirin/backend/internal/domain/transfer"
)

// TransactionScope provides transactional access to the repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or
// roll back atomically. Every workflow that posts to the stock ledger
// runs inside one scope, so the document status change and its
// movements land together or not at all.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a
// transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// Balances returns the stock balance repository scoped to the current transaction
	Balances() ledger.BalanceRepository
	// Movements returns the movement log repository scoped to the current transaction
	Movements() ledger.MovementRepository
	// Lots returns the product lot repository scoped to the current transaction
	Lots() ledger.LotRepository
	// Batches returns the production batch repository scoped to the current transaction
	Batches() production.Repository
	// Sales returns the sale repository scoped to the current transaction
	Sales() sales.SaleRepository
	// Returns returns the sale return repository scoped to the current transaction
	Returns() sales.ReturnRepository
	// Transfers returns the transfer repository scoped to the current transaction
	Transfers() transfer.Repository
	// StockTakings returns the stock taking repository scoped to the current transaction
	StockTakings() stocktaking.Repository
	// Ledger returns the posting engine bound to the transaction's repositories
	Ledger() *ledger.Service
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing.
type NoOpTransactionScope struct {
	balances     ledger.BalanceRepository
	movements    ledger.MovementRepository
	lots         ledger.LotRepository
	batches      production.Repository
	sales        sales.SaleRepository
	returns      sales.ReturnRepository
	transfers    transfer.Repository
	stockTakings stocktaking.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories
func NewNoOpTransactionScope(
	balances ledger.BalanceRepository,
	movements ledger.MovementRepository,
	lots ledger.LotRepository,
	batches production.Repository,
	saleRepo sales.SaleRepository,
	returnRepo sales.ReturnRepository,
	transfers transfer.Repository,
	stockTakings stocktaking.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		balances:     balances,
		movements:    movements,
		lots:         lots,
		batches:      batches,
		sales:        saleRepo,
		returns:      returnRepo,
		transfers:    transfers,
		stockTakings: stockTakings,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Balances returns the stock balance repository
func (s *NoOpTransactionScope) Balances() ledger.BalanceRepository {
	return s.balances
}

// Movements returns the movement log repository
func (s *NoOpTransactionScope) Movements() ledger.MovementRepository {
	return s.movements
}

// Lots returns the product lot repository
func (s *NoOpTransactionScope) Lots() ledger.LotRepository {
	return s.lots
}

// Batches returns the production batch repository
func (s *NoOpTransactionScope) Batches() production.Repository {
	return s.batches
}

// Sales returns the sale repository
func (s *NoOpTransactionScope) Sales() sales.SaleRepository {
	return s.sales
}

// Returns returns the sale return repository
func (s *NoOpTransactionScope) Returns() sales.ReturnRepository {
	return s.returns
}

// Transfers returns the transfer repository
func (s *NoOpTransactionScope) Transfers() transfer.Repository {
	return s.transfers
}

// StockTakings returns the stock taking repository
func (s *NoOpTransactionScope) StockTakings() stocktaking.Repository {
	return s.stockTakings
}

// Ledger returns a posting engine over the scope's repositories
func (s *NoOpTransactionScope) Ledger() *ledger.Service {
	return ledger.NewService(s.balances, s.movements, s.lots)
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
