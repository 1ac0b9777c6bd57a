package production

import (
	"context"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
)

// Repository manages production batches
type Repository interface {
	Create(ctx context.Context, batch *ProductionBatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*ProductionBatch, error)
	FindByNumber(ctx context.Context, batchNumber string) (*ProductionBatch, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]ProductionBatch, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// Save persists the aggregate and its consumption lines
	Save(ctx context.Context, batch *ProductionBatch) error
	// UpdateStatus performs a compare-and-set on the status column.
	// It returns CONCURRENCY_CONFLICT when the expected status no
	// longer matches, which is how double submits lose the race.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next BatchStatus) error
	// GenerateBatchNumber produces the next sequential batch number
	GenerateBatchNumber(ctx context.Context) (string, error)
}
