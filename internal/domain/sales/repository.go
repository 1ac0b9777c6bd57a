package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleRepository manages sales
type SaleRepository interface {
	Create(ctx context.Context, sale *Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByNumber(ctx context.Context, saleNumber string) (*Sale, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Sale, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// Save persists the aggregate with its items and payments
	Save(ctx context.Context, sale *Sale) error
	// UpdateStatus performs a compare-and-set on the status column and
	// returns CONCURRENCY_CONFLICT if the expected status was gone
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next SaleStatus) error
	// GenerateSaleNumber produces the next sequential sale number
	GenerateSaleNumber(ctx context.Context) (string, error)
}

// ReturnRepository manages sale returns
type ReturnRepository interface {
	Create(ctx context.Context, ret *SaleReturn) error
	FindByID(ctx context.Context, id uuid.UUID) (*SaleReturn, error)
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]SaleReturn, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]SaleReturn, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// SumReturnedBySale aggregates returned quantity per product across
	// every return of a sale, the input for validating a new return
	SumReturnedBySale(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	// GenerateReturnNumber produces the next sequential return number
	GenerateReturnNumber(ctx context.Context) (string, error)
}
