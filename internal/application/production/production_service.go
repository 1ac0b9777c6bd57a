package production

import (
	"context"
	"time"

	"github.com/google/uuid"
	appledger "github.com/shirin/backend/internal/application/ledger"
	"github.com/shirin/backend/internal/domain/catalog"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/production"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductionService drives the batch lifecycle. Starting a batch debits
// its ingredients and completing it credits the output lot, each inside
// one transaction with the status change.
type ProductionService struct {
	scope          appledger.TransactionScope
	batchRepo      production.Repository
	recipes        catalog.RecipeVersionProvider
	rates          ExchangeRateProvider
	eventPublisher shared.EventPublisher
}

// NewProductionService creates a new ProductionService
func NewProductionService(
	scope appledger.TransactionScope,
	batchRepo production.Repository,
	recipes catalog.RecipeVersionProvider,
	rates ExchangeRateProvider,
) *ProductionService {
	return &ProductionService{
		scope:     scope,
		batchRepo: batchRepo,
		recipes:   recipes,
		rates:     rates,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ProductionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ProductionService) publishDomainEvents(ctx context.Context, batch *production.ProductionBatch) {
	if s.eventPublisher == nil {
		return
	}
	events := batch.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	batch.ClearDomainEvents()
}

// CreateBatch plans a batch against the active version of the recipe
func (s *ProductionService) CreateBatch(ctx context.Context, req CreateBatchRequest) (*BatchResponse, error) {
	recipe, err := s.recipes.GetActiveVersion(ctx, req.RecipeID)
	if err != nil {
		return nil, err
	}

	var batch *production.ProductionBatch
	err = s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		batchNumber, err := repos.Batches().GenerateBatchNumber(ctx)
		if err != nil {
			return err
		}

		batch, err = production.NewProductionBatch(req.BranchID, recipe, req.PlannedQuantity, batchNumber, req.CreatedBy)
		if err != nil {
			return err
		}
		if req.Note != "" {
			batch.Note = req.Note
		}
		return repos.Batches().Create(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, batch)
	response := ToBatchResponse(batch)
	return &response, nil
}

// StartBatch fixes the actual ingredient quantities and debits them
// from the branch's stock. The compare-and-set on the status column
// makes a double submit lose cleanly instead of consuming twice.
func (s *ProductionService) StartBatch(ctx context.Context, batchID uuid.UUID, req StartBatchRequest) (*BatchResponse, error) {
	overrides := make(map[uuid.UUID]decimal.Decimal, len(req.ActualConsumptions))
	for _, c := range req.ActualConsumptions {
		overrides[c.IngredientID] = c.Quantity
	}

	var batch *production.ProductionBatch
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		batch, err = repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			return err
		}

		if err := repos.Batches().UpdateStatus(ctx, batchID,
			production.BatchStatusPlanned, production.BatchStatusInProgress); err != nil {
			return err
		}
		if err := batch.Start(overrides); err != nil {
			return err
		}

		for i := range batch.Consumptions {
			c := &batch.Consumptions[i]
			_, err := repos.Ledger().Post(ctx, ledger.PostRequest{
				BranchID:    batch.BranchID,
				ItemID:      c.IngredientID,
				Kind:        ledger.ItemKindIngredient,
				Type:        ledger.MovementTypeProductionConsumption,
				Quantity:    c.ActualQuantity.Neg(),
				Unit:        c.Unit,
				Reference:   ledger.Reference{Type: ledger.ReferenceTypeProductionBatch, ID: batch.ID},
				UnitCostUSD: c.UnitCostUSD,
				OperatorID:  req.OperatorID,
			})
			if err != nil {
				return err
			}
		}

		return repos.Batches().Save(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, batch)
	response := ToBatchResponse(batch)
	return &response, nil
}

// CompleteBatch records the real output, computes the unit cost pair at
// the completion date's exchange rate and credits the output lot. A
// rate lookup failure aborts the completion before anything is touched.
func (s *ProductionService) CompleteBatch(ctx context.Context, batchID uuid.UUID, req CompleteBatchRequest) (*BatchResponse, error) {
	rate, err := s.rates.Rate(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	var batch *production.ProductionBatch
	err = s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		batch, err = repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			return err
		}

		if err := repos.Batches().UpdateStatus(ctx, batchID,
			production.BatchStatusInProgress, production.BatchStatusCompleted); err != nil {
			return err
		}
		if err := batch.Complete(req.ActualQuantity, rate); err != nil {
			return err
		}

		_, err = repos.Ledger().Post(ctx, ledger.PostRequest{
			BranchID:  batch.BranchID,
			ItemID:    batch.RecipeID,
			Kind:      ledger.ItemKindProduct,
			Type:      ledger.MovementTypeProductionOutput,
			Quantity:  batch.ActualQuantity,
			Unit:      batch.OutputUnit,
			Reference: ledger.Reference{Type: ledger.ReferenceTypeProductionBatch, ID: batch.ID},
			Lot: &ledger.LotBasis{
				Origin:            ledger.LotOriginProduction,
				ProducedAt:        *batch.CompletedAt,
				UnitCostUSD:       batch.UnitCostUSD,
				UnitCostTJS:       batch.UnitCostTJS,
				ExchangeRate:      batch.ExchangeRate,
				ProductionBatchID: &batch.ID,
			},
			OperatorID: req.OperatorID,
		})
		if err != nil {
			return err
		}

		return repos.Batches().Save(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, batch)
	response := ToBatchResponse(batch)
	return &response, nil
}

// CancelBatch abandons a batch that has not started consuming
func (s *ProductionService) CancelBatch(ctx context.Context, batchID uuid.UUID, reason string) (*BatchResponse, error) {
	var batch *production.ProductionBatch
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		batch, err = repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		if err := repos.Batches().UpdateStatus(ctx, batchID,
			production.BatchStatusPlanned, production.BatchStatusCancelled); err != nil {
			return err
		}
		if err := batch.Cancel(reason); err != nil {
			return err
		}
		return repos.Batches().Save(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, batch)
	response := ToBatchResponse(batch)
	return &response, nil
}

// GetBatch retrieves a batch by ID
func (s *ProductionService) GetBatch(ctx context.Context, batchID uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	response := ToBatchResponse(batch)
	return &response, nil
}

// ListBatches retrieves batches with filtering and pagination
func (s *ProductionService) ListBatches(ctx context.Context, filter shared.Filter) ([]BatchResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	batches, err := s.batchRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.batchRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToBatchResponses(batches), total, nil
}
