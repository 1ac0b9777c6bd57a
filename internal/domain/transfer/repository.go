package transfer

import (
	"context"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
)

// Repository manages branch transfers
type Repository interface {
	Create(ctx context.Context, transfer *Transfer) error
	FindByID(ctx context.Context, id uuid.UUID) (*Transfer, error)
	FindByNumber(ctx context.Context, transferNumber string) (*Transfer, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Transfer, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// Save persists the aggregate with its items
	Save(ctx context.Context, transfer *Transfer) error
	// UpdateStatus performs a compare-and-set on the status column and
	// returns CONCURRENCY_CONFLICT if the expected status was gone
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next TransferStatus) error
	// GenerateTransferNumber produces the next sequential transfer number
	GenerateTransferNumber(ctx context.Context) (string, error)
}
