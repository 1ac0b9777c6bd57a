package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockService handles stock operations that are not owned by another
// workflow: supplier receipts, write-offs, manual adjustments and every
// read over balances, movements and lots.
type StockService struct {
	scope          TransactionScope
	balanceRepo    ledger.BalanceRepository
	movementRepo   ledger.MovementRepository
	lotRepo        ledger.LotRepository
	eventPublisher shared.EventPublisher
}

// NewStockService creates a new StockService. The direct repositories
// serve reads; every write goes through the transaction scope.
func NewStockService(
	scope TransactionScope,
	balanceRepo ledger.BalanceRepository,
	movementRepo ledger.MovementRepository,
	lotRepo ledger.LotRepository,
) *StockService {
	return &StockService{
		scope:        scope,
		balanceRepo:  balanceRepo,
		movementRepo: movementRepo,
		lotRepo:      lotRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ReceiveGoods posts an ingredient delivery into stock
func (s *StockService) ReceiveGoods(ctx context.Context, req GoodsReceiptRequest) (*MovementResponse, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("receipt quantity must be positive")
	}
	if req.UnitCostUSD.IsNegative() {
		return nil, shared.NewValidationError("unit cost cannot be negative")
	}

	referenceID := uuid.New()
	if req.DocumentID != nil {
		referenceID = *req.DocumentID
	}

	var response MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		result, err := repos.Ledger().Post(ctx, ledger.PostRequest{
			BranchID:    req.BranchID,
			ItemID:      req.IngredientID,
			Kind:        ledger.ItemKindIngredient,
			Type:        ledger.MovementTypeReceipt,
			Quantity:    req.Quantity,
			Unit:        req.Unit,
			Reference:   ledger.Reference{Type: ledger.ReferenceTypeGoodsReceipt, ID: referenceID},
			UnitCostUSD: req.UnitCostUSD,
			OperatorID:  req.OperatorID,
			Reason:      req.Note,
		})
		if err != nil {
			return err
		}
		response = ToMovementResponse(result.Movement)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// WriteOff posts spoilage or breakage out of stock. Product write-offs
// consume lots FIFO like any other product debit.
func (s *StockService) WriteOff(ctx context.Context, req WriteOffRequest) (*MovementResponse, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("write-off quantity must be positive")
	}

	var response MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		result, err := repos.Ledger().Post(ctx, ledger.PostRequest{
			BranchID:   req.BranchID,
			ItemID:     req.ItemID,
			Kind:       req.ItemKind,
			Type:       ledger.MovementTypeWriteOff,
			Quantity:   req.Quantity.Neg(),
			Unit:       req.Unit,
			Reference:  ledger.Reference{Type: ledger.ReferenceTypeManual, ID: uuid.New()},
			OperatorID: req.OperatorID,
			Reason:     req.Reason,
		})
		if err != nil {
			return err
		}
		response = ToMovementResponse(result.Movement)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// Adjust corrects a balance to an actual quantity. The delta against
// the live balance is posted as a signed adjustment; a zero delta posts
// nothing.
func (s *StockService) Adjust(ctx context.Context, req AdjustStockRequest) (*MovementResponse, error) {
	if req.ActualQuantity.IsNegative() {
		return nil, shared.NewValidationError("actual quantity cannot be negative")
	}

	var response *MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		balance, err := repos.Balances().ObtainForUpdate(ctx, req.BranchID, req.ItemID, req.ItemKind, req.Unit)
		if err != nil {
			return err
		}

		delta := req.ActualQuantity.Sub(balance.Quantity)
		if delta.IsZero() {
			return nil
		}

		result, err := repos.Ledger().Post(ctx, ledger.PostRequest{
			BranchID:   req.BranchID,
			ItemID:     req.ItemID,
			Kind:       req.ItemKind,
			Type:       ledger.MovementTypeAdjustment,
			Quantity:   delta,
			Unit:       req.Unit,
			Reference:  ledger.Reference{Type: ledger.ReferenceTypeManual, ID: uuid.New()},
			OperatorID: req.OperatorID,
			Reason:     req.Reason,
		})
		if err != nil {
			return err
		}
		r := ToMovementResponse(result.Movement)
		response = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// GetBalance returns the balance of one item at one branch
func (s *StockService) GetBalance(ctx context.Context, branchID, itemID uuid.UUID, kind ledger.ItemKind) (*BalanceResponse, error) {
	balance, err := s.balanceRepo.FindByKey(ctx, branchID, itemID, kind)
	if err != nil {
		return nil, err
	}
	response := ToBalanceResponse(balance)
	return &response, nil
}

// ListBalances returns the balances of one kind at a branch
func (s *StockService) ListBalances(ctx context.Context, branchID uuid.UUID, kind ledger.ItemKind, filter shared.Filter) ([]BalanceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	balances, err := s.balanceRepo.FindByBranch(ctx, branchID, kind, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.balanceRepo.Count(ctx, branchID, kind, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToBalanceResponses(balances), total, nil
}

// ListLowStock returns every balance under its low-stock threshold
func (s *StockService) ListLowStock(ctx context.Context, branchID uuid.UUID) ([]BalanceResponse, error) {
	balances, err := s.balanceRepo.FindBelowMin(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return ToBalanceResponses(balances), nil
}

// SetMinQuantity sets the low-stock threshold for one balance
func (s *StockService) SetMinQuantity(ctx context.Context, req SetMinQuantityRequest) (*BalanceResponse, error) {
	var response BalanceResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		balance, err := repos.Balances().FindByKey(ctx, req.BranchID, req.ItemID, req.ItemKind)
		if err != nil {
			return err
		}
		if err := balance.SetMinQuantity(req.MinQuantity); err != nil {
			return err
		}
		if err := repos.Balances().Save(ctx, balance); err != nil {
			return err
		}
		response = ToBalanceResponse(balance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// ListMovements returns a page of the movement log
func (s *StockService) ListMovements(ctx context.Context, filter MovementHistoryFilter) ([]MovementResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := ledger.MovementFilter{
		BranchID:    filter.BranchID,
		ItemID:      filter.ItemID,
		ReferenceID: filter.ReferenceID,
		From:        filter.From,
		To:          filter.To,
		Page:        filter.Page,
		PageSize:    filter.PageSize,
	}
	if filter.ItemKind != nil {
		kind := ledger.ItemKind(*filter.ItemKind)
		if !kind.IsValid() {
			return nil, 0, shared.NewValidationError("invalid item kind")
		}
		domainFilter.ItemKind = &kind
	}
	if filter.MovementType != nil {
		mt := ledger.MovementType(*filter.MovementType)
		if !mt.IsValid() {
			return nil, 0, shared.NewValidationError("invalid movement type")
		}
		domainFilter.MovementType = &mt
	}
	if filter.ReferenceType != nil {
		rt := ledger.ReferenceType(*filter.ReferenceType)
		if !rt.IsValid() {
			return nil, 0, shared.NewValidationError("invalid reference type")
		}
		domainFilter.ReferenceType = &rt
	}

	movements, err := s.movementRepo.Find(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.movementRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToMovementResponses(movements), total, nil
}

// ListLots returns the available lots of a product at a branch in FIFO
// order
func (s *StockService) ListLots(ctx context.Context, branchID, productID uuid.UUID) ([]LotResponse, error) {
	lots, err := s.lotRepo.FindAvailable(ctx, branchID, productID)
	if err != nil {
		return nil, err
	}
	return ToLotResponses(lots), nil
}

// Valuation prices a product's stock at a branch from its lots
func (s *StockService) Valuation(ctx context.Context, branchID, productID uuid.UUID) (*ValuationResponse, error) {
	lots, err := s.lotRepo.FindAvailable(ctx, branchID, productID)
	if err != nil {
		return nil, err
	}

	response := &ValuationResponse{
		BranchID:  branchID,
		ProductID: productID,
		Quantity:  decimal.Zero,
		ValueUSD:  decimal.Zero,
		ValueTJS:  decimal.Zero,
		LotCount:  len(lots),
	}
	for i := range lots {
		response.Quantity = response.Quantity.Add(lots[i].QuantityRemaining)
		response.ValueUSD = response.ValueUSD.Add(lots[i].ValueUSD())
		response.ValueTJS = response.ValueTJS.Add(lots[i].ValueTJS())
	}
	return response, nil
}

// AuditBalance recomputes one balance from the movement log and reports
// whether the materialized row agrees. Nothing is repaired.
func (s *StockService) AuditBalance(ctx context.Context, branchID, itemID uuid.UUID, kind ledger.ItemKind) (*ledger.BalanceAudit, error) {
	engine := ledger.NewService(s.balanceRepo, s.movementRepo, s.lotRepo)
	return engine.VerifyBalance(ctx, branchID, itemID, kind)
}
