package transfer

import (
	"context"

	"github.com/google/uuid"
	appledger "github.com/shirin/backend/internal/application/ledger"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shirin/backend/internal/domain/transfer"
	"github.com/shopspring/decimal"
)

// TransferService drives the branch transfer lifecycle. Sending debits
// every line from the sender atomically; receiving credits the arrived
// quantities at the receiver. The difference stays on the transfer as a
// discrepancy and is never posted back to the sender.
type TransferService struct {
	scope          appledger.TransactionScope
	transferRepo   transfer.Repository
	eventPublisher shared.EventPublisher
}

// NewTransferService creates a new TransferService
func NewTransferService(scope appledger.TransactionScope, transferRepo transfer.Repository) *TransferService {
	return &TransferService{
		scope:        scope,
		transferRepo: transferRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TransferService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *TransferService) publishDomainEvents(ctx context.Context, tr *transfer.Transfer) {
	if s.eventPublisher == nil {
		return
	}
	events := tr.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	tr.ClearDomainEvents()
}

// CreateTransfer creates a transfer document with its lines
func (s *TransferService) CreateTransfer(ctx context.Context, req CreateTransferRequest) (*TransferResponse, error) {
	var tr *transfer.Transfer
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		transferNumber, err := repos.Transfers().GenerateTransferNumber(ctx)
		if err != nil {
			return err
		}

		tr, err = transfer.NewTransfer(req.FromBranchID, req.ToBranchID, transferNumber, req.CreatedBy)
		if err != nil {
			return err
		}
		if req.Note != "" {
			tr.Note = req.Note
		}
		for _, item := range req.Items {
			if err := tr.AddItem(item.ItemID, item.ItemKind, item.Name, item.Unit, item.Quantity); err != nil {
				return err
			}
			if item.ItemKind == ledger.ItemKindIngredient && item.UnitCostUSD.IsPositive() {
				if err := tr.RecordItemCost(item.ItemID, item.UnitCostUSD, decimal.Zero, decimal.Zero); err != nil {
					return err
				}
			}
		}
		return repos.Transfers().Create(ctx, tr)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, tr)
	response := ToTransferResponse(tr)
	return &response, nil
}

// Send debits every line from the sending branch and puts the transfer
// in transit. Product lines record the weighted cost of the FIFO walk
// so the receiving branch can create its lot at the same basis.
func (s *TransferService) Send(ctx context.Context, transferID uuid.UUID, operatorID *uuid.UUID) (*TransferResponse, error) {
	var tr *transfer.Transfer
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		tr, err = repos.Transfers().FindByID(ctx, transferID)
		if err != nil {
			return err
		}
		if err := repos.Transfers().UpdateStatus(ctx, transferID,
			transfer.TransferStatusCreated, transfer.TransferStatusInTransit); err != nil {
			return err
		}

		for i := range tr.Items {
			item := &tr.Items[i]
			result, err := repos.Ledger().Post(ctx, ledger.PostRequest{
				BranchID:   tr.FromBranchID,
				ItemID:     item.ItemID,
				Kind:       item.ItemKind,
				Type:       ledger.MovementTypeTransferOut,
				Quantity:   item.QuantitySent.Neg(),
				Unit:       item.Unit,
				Reference:  ledger.Reference{Type: ledger.ReferenceTypeTransfer, ID: tr.ID},
				OperatorID: operatorID,
			})
			if err != nil {
				return err
			}
			if result.Plan != nil {
				rate := decimal.Zero
				if result.Plan.UnitCostUSD.IsPositive() {
					rate = result.Plan.UnitCostTJS.Div(result.Plan.UnitCostUSD).Round(6)
				}
				if err := tr.RecordItemCost(item.ItemID, result.Plan.UnitCostUSD, result.Plan.UnitCostTJS, rate); err != nil {
					return err
				}
			}
		}

		if err := tr.MarkInTransit(); err != nil {
			return err
		}
		return repos.Transfers().Save(ctx, tr)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, tr)
	response := ToTransferResponse(tr)
	return &response, nil
}

// Receive credits the arrived quantities at the receiving branch.
// Products re-enter as a new lot at the cost basis recorded at send
// time; quantity lost in transit stays on the transfer as a
// discrepancy.
func (s *TransferService) Receive(ctx context.Context, transferID uuid.UUID, req ReceiveTransferRequest) (*TransferResponse, error) {
	received := make(map[uuid.UUID]decimal.Decimal, len(req.Items))
	for _, item := range req.Items {
		received[item.ItemID] = item.Quantity
	}

	var tr *transfer.Transfer
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		tr, err = repos.Transfers().FindByID(ctx, transferID)
		if err != nil {
			return err
		}
		if err := repos.Transfers().UpdateStatus(ctx, transferID,
			transfer.TransferStatusInTransit, transfer.TransferStatusReceived); err != nil {
			return err
		}
		if err := tr.Receive(received, req.ReceivedBy); err != nil {
			return err
		}

		for i := range tr.Items {
			item := &tr.Items[i]
			if item.QuantityReceived.IsZero() {
				continue
			}

			post := ledger.PostRequest{
				BranchID:   tr.ToBranchID,
				ItemID:     item.ItemID,
				Kind:       item.ItemKind,
				Type:       ledger.MovementTypeTransferIn,
				Quantity:   item.QuantityReceived,
				Unit:       item.Unit,
				Reference:  ledger.Reference{Type: ledger.ReferenceTypeTransfer, ID: tr.ID},
				OperatorID: &req.ReceivedBy,
			}
			if item.ItemKind == ledger.ItemKindProduct {
				post.Lot = &ledger.LotBasis{
					Origin:       ledger.LotOriginTransferIn,
					ProducedAt:   *tr.ReceivedAt,
					UnitCostUSD:  item.UnitCostUSD,
					UnitCostTJS:  item.UnitCostTJS,
					ExchangeRate: item.ExchangeRate,
				}
			} else {
				post.UnitCostUSD = item.UnitCostUSD
			}

			if _, err := repos.Ledger().Post(ctx, post); err != nil {
				return err
			}
		}

		return repos.Transfers().Save(ctx, tr)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, tr)
	response := ToTransferResponse(tr)
	return &response, nil
}

// Cancel abandons a transfer that has not been sent
func (s *TransferService) Cancel(ctx context.Context, transferID uuid.UUID, reason string) (*TransferResponse, error) {
	var tr *transfer.Transfer
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		tr, err = repos.Transfers().FindByID(ctx, transferID)
		if err != nil {
			return err
		}
		if err := repos.Transfers().UpdateStatus(ctx, transferID,
			transfer.TransferStatusCreated, transfer.TransferStatusCancelled); err != nil {
			return err
		}
		if err := tr.Cancel(reason); err != nil {
			return err
		}
		return repos.Transfers().Save(ctx, tr)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, tr)
	response := ToTransferResponse(tr)
	return &response, nil
}

// GetTransfer retrieves a transfer by ID
func (s *TransferService) GetTransfer(ctx context.Context, transferID uuid.UUID) (*TransferResponse, error) {
	tr, err := s.transferRepo.FindByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	response := ToTransferResponse(tr)
	return &response, nil
}

// ListTransfers retrieves transfers with filtering and pagination
func (s *TransferService) ListTransfers(ctx context.Context, filter shared.Filter) ([]TransferResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	items, err := s.transferRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transferRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToTransferResponses(items), total, nil
}
