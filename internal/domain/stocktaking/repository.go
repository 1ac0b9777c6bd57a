package stocktaking

import (
	"context"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
)

// Repository manages stock takings
type Repository interface {
	Create(ctx context.Context, taking *StockTaking) error
	FindByID(ctx context.Context, id uuid.UUID) (*StockTaking, error)
	FindByNumber(ctx context.Context, takingNumber string) (*StockTaking, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]StockTaking, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// Save persists the aggregate with its items
	Save(ctx context.Context, taking *StockTaking) error
	// UpdateStatus performs a compare-and-set on the status column and
	// returns CONCURRENCY_CONFLICT if the expected status was gone
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next StockTakingStatus) error
	// GenerateTakingNumber produces the next sequential stock taking number
	GenerateTakingNumber(ctx context.Context) (string, error)
}
