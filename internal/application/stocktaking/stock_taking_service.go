package stocktaking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	appledger "github.com/shirin/backend/internal/application/ledger"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shirin/backend/internal/domain/stocktaking"
	"github.com/shopspring/decimal"
)

// StockTakingService drives the physical count workflow. Creation
// snapshots expected quantities; completion posts signed adjustments
// against the balances as they are at completion time.
type StockTakingService struct {
	scope          appledger.TransactionScope
	takingRepo     stocktaking.Repository
	eventPublisher shared.EventPublisher
}

// NewStockTakingService creates a new StockTakingService
func NewStockTakingService(scope appledger.TransactionScope, takingRepo stocktaking.Repository) *StockTakingService {
	return &StockTakingService{
		scope:      scope,
		takingRepo: takingRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockTakingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *StockTakingService) publishDomainEvents(ctx context.Context, st *stocktaking.StockTaking) {
	if s.eventPublisher == nil {
		return
	}
	events := st.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	st.ClearDomainEvents()
}

// CreateTaking creates a draft count, snapshotting the current balance
// of every named item as its expected quantity. Items with no balance
// row yet are expected at zero.
func (s *StockTakingService) CreateTaking(ctx context.Context, req CreateTakingRequest) (*TakingResponse, error) {
	var taking *stocktaking.StockTaking
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		takingNumber, err := repos.StockTakings().GenerateTakingNumber(ctx)
		if err != nil {
			return err
		}

		taking, err = stocktaking.NewStockTaking(req.BranchID, takingNumber, req.CreatedBy)
		if err != nil {
			return err
		}
		if req.Note != "" {
			taking.Note = req.Note
		}

		for _, item := range req.Items {
			expected := decimal.Zero
			balance, err := repos.Balances().FindByKey(ctx, req.BranchID, item.ItemID, item.ItemKind)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			if balance != nil {
				expected = balance.Quantity
			}
			if err := taking.AddItem(item.ItemID, item.ItemKind, item.Name, item.Unit, expected); err != nil {
				return err
			}
		}
		return repos.StockTakings().Create(ctx, taking)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, taking)
	response := ToTakingResponse(taking)
	return &response, nil
}

// StartTaking opens the count for recording
func (s *StockTakingService) StartTaking(ctx context.Context, takingID uuid.UUID) (*TakingResponse, error) {
	var taking *stocktaking.StockTaking
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		taking, err = repos.StockTakings().FindByID(ctx, takingID)
		if err != nil {
			return err
		}
		if err := repos.StockTakings().UpdateStatus(ctx, takingID,
			stocktaking.StockTakingStatusDraft, stocktaking.StockTakingStatusInProgress); err != nil {
			return err
		}
		if err := taking.Start(); err != nil {
			return err
		}
		return repos.StockTakings().Save(ctx, taking)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, taking)
	response := ToTakingResponse(taking)
	return &response, nil
}

// RecordCount stores the physically counted quantity of one item
func (s *StockTakingService) RecordCount(ctx context.Context, takingID uuid.UUID, req RecordCountRequest) (*TakingResponse, error) {
	var taking *stocktaking.StockTaking
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		taking, err = repos.StockTakings().FindByID(ctx, takingID)
		if err != nil {
			return err
		}
		if err := taking.RecordCount(req.ItemID, req.Quantity, req.CountedBy); err != nil {
			return err
		}
		return repos.StockTakings().Save(ctx, taking)
	})
	if err != nil {
		return nil, err
	}

	response := ToTakingResponse(taking)
	return &response, nil
}

// CompleteTaking closes the count and posts one signed adjustment per
// counted item whose quantity differs from the LIVE balance. Uncounted
// items and items matching the live balance post nothing, so a partial
// count (or counting while stock moves) never over-corrects.
func (s *StockTakingService) CompleteTaking(ctx context.Context, takingID uuid.UUID, operatorID *uuid.UUID) (*CompleteTakingResponse, error) {
	var taking *stocktaking.StockTaking
	var adjustments []CompletionAdjustment

	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		taking, err = repos.StockTakings().FindByID(ctx, takingID)
		if err != nil {
			return err
		}
		if err := repos.StockTakings().UpdateStatus(ctx, takingID,
			stocktaking.StockTakingStatusInProgress, stocktaking.StockTakingStatusCompleted); err != nil {
			return err
		}
		if err := taking.Complete(); err != nil {
			return err
		}

		for i := range taking.Items {
			item := &taking.Items[i]
			if !item.IsCounted() {
				continue
			}

			balance, err := repos.Balances().ObtainForUpdate(ctx, taking.BranchID, item.ItemID, item.ItemKind, item.Unit)
			if err != nil {
				return err
			}

			live := balance.Quantity
			delta := item.ActualQuantity.Sub(live)
			if delta.IsZero() {
				continue
			}

			result, err := repos.Ledger().Post(ctx, ledger.PostRequest{
				BranchID:   taking.BranchID,
				ItemID:     item.ItemID,
				Kind:       item.ItemKind,
				Type:       ledger.MovementTypeAdjustment,
				Quantity:   delta,
				Unit:       item.Unit,
				Reference:  ledger.Reference{Type: ledger.ReferenceTypeStockTaking, ID: taking.ID},
				OperatorID: operatorID,
				Reason:     "stock taking " + taking.TakingNumber,
			})
			if err != nil {
				return err
			}

			adjustments = append(adjustments, CompletionAdjustment{
				ItemID:       item.ItemID,
				ItemKind:     item.ItemKind,
				LiveQuantity: live,
				Counted:      *item.ActualQuantity,
				Delta:        delta,
				MovementID:   result.Movement.ID,
			})
		}

		return repos.StockTakings().Save(ctx, taking)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, taking)
	return &CompleteTakingResponse{
		Taking:      ToTakingResponse(taking),
		Adjustments: adjustments,
	}, nil
}

// CancelTaking abandons a count that has not completed
func (s *StockTakingService) CancelTaking(ctx context.Context, takingID uuid.UUID, reason string) (*TakingResponse, error) {
	var taking *stocktaking.StockTaking
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		taking, err = repos.StockTakings().FindByID(ctx, takingID)
		if err != nil {
			return err
		}
		if err := repos.StockTakings().UpdateStatus(ctx, takingID,
			taking.Status, stocktaking.StockTakingStatusCancelled); err != nil {
			return err
		}
		if err := taking.Cancel(reason); err != nil {
			return err
		}
		return repos.StockTakings().Save(ctx, taking)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, taking)
	response := ToTakingResponse(taking)
	return &response, nil
}

// GetTaking retrieves a stock taking by ID
func (s *StockTakingService) GetTaking(ctx context.Context, takingID uuid.UUID) (*TakingResponse, error) {
	taking, err := s.takingRepo.FindByID(ctx, takingID)
	if err != nil {
		return nil, err
	}
	response := ToTakingResponse(taking)
	return &response, nil
}

// ListTakings retrieves stock takings with filtering and pagination
func (s *StockTakingService) ListTakings(ctx context.Context, filter shared.Filter) ([]TakingResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	items, err := s.takingRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.takingRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToTakingResponses(items), total, nil
}
