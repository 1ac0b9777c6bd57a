package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Reference identifies the source document of a posting
type Reference struct {
	Type ReferenceType
	ID   uuid.UUID
}

// LotBasis carries the cost basis for a product credit. Every way a
// product enters stock (production output, stock-returning sale return,
// transfer receipt) knows the cost pair it arrives at.
type LotBasis struct {
	Origin            LotOrigin
	ProducedAt        time.Time
	UnitCostUSD       decimal.Decimal
	UnitCostTJS       decimal.Decimal
	ExchangeRate      decimal.Decimal
	ProductionBatchID *uuid.UUID
}

// PostRequest describes a single posting against one item at one branch
type PostRequest struct {
	BranchID uuid.UUID
	ItemID   uuid.UUID
	Kind     ItemKind
	Type     MovementType
	// Quantity is signed: positive credits, negative debits
	Quantity  decimal.Decimal
	Unit      string
	Reference Reference
	// Lot is required for product credits, except adjustments which are
	// priced from the latest lot when omitted
	Lot *LotBasis
	// UnitCostUSD prices ingredient receipts
	UnitCostUSD decimal.Decimal
	OperatorID  *uuid.UUID
	Reason      string
	OccurredAt  *time.Time
}

// PostResult is the outcome of a posting
type PostResult struct {
	Movement *Movement
	Balance  *StockBalance
	// Plan is set for product debits and carries the per-lot draws and
	// the weighted cost of the consumed stock
	Plan *ConsumptionPlan
	// Lot is set for product credits
	Lot *ProductLot
}

// BalanceAudit compares a materialized balance against the movement log
type BalanceAudit struct {
	BranchID     uuid.UUID       `json:"branch_id"`
	ItemID       uuid.UUID       `json:"item_id"`
	ItemKind     ItemKind        `json:"item_kind"`
	Materialized decimal.Decimal `json:"materialized"`
	Recomputed   decimal.Decimal `json:"recomputed"`
	Consistent   bool            `json:"consistent"`
}

// Service is the posting engine shared by every workflow. It must run
// inside the caller's transaction: the repositories it holds are
// transaction-bound, and ObtainForUpdate keeps the balance row locked
// until commit.
type Service struct {
	balances  BalanceRepository
	movements MovementRepository
	lots      LotRepository
}

// NewService creates a ledger service over transaction-bound repositories
func NewService(balances BalanceRepository, movements MovementRepository, lots LotRepository) *Service {
	return &Service{
		balances:  balances,
		movements: movements,
		lots:      lots,
	}
}

// Post appends one movement and updates the materialized balance.
// Product debits walk lots FIFO and record the weighted cost; product
// credits create a new lot. The caller's transaction makes the whole
// posting atomic.
func (s *Service) Post(ctx context.Context, req PostRequest) (*PostResult, error) {
	if req.Quantity.IsZero() {
		return nil, shared.NewValidationError("posting quantity cannot be zero")
	}
	if !req.Kind.IsValid() {
		return nil, shared.NewValidationError("invalid item kind")
	}
	if !req.Type.IsValid() {
		return nil, shared.NewValidationError("invalid movement type")
	}

	balance, err := s.balances.ObtainForUpdate(ctx, req.BranchID, req.ItemID, req.Kind, req.Unit)
	if err != nil {
		return nil, err
	}

	result := &PostResult{Balance: balance}
	before := balance.Quantity

	if req.Quantity.IsNegative() {
		debit := req.Quantity.Abs()
		if !balance.CanDebit(debit) {
			return nil, shared.NewInsufficientStockError(
				req.ItemID.String(), balance.Quantity.String(), debit.String())
		}
		if req.Kind == ItemKindProduct {
			plan, err := s.consumeLots(ctx, req.BranchID, req.ItemID, debit)
			if err != nil {
				return nil, err
			}
			result.Plan = plan
		}
	}

	movement, err := NewMovement(
		req.BranchID, req.ItemID, req.Kind, req.Type,
		req.Quantity, req.Unit,
		before, before.Add(req.Quantity),
		req.Reference.Type, req.Reference.ID,
	)
	if err != nil {
		return nil, err
	}

	if result.Plan != nil {
		movement.WithUnitCost(result.Plan.UnitCostUSD, result.Plan.UnitCostTJS)
	}

	if req.Quantity.IsPositive() && req.Kind == ItemKindProduct {
		lot, err := s.createLot(ctx, req)
		if err != nil {
			return nil, err
		}
		movement.WithLotID(lot.ID).WithUnitCost(lot.UnitCostUSD, lot.UnitCostTJS)
		result.Lot = lot
	}

	if req.Kind == ItemKindIngredient && req.UnitCostUSD.IsPositive() {
		movement.WithUnitCost(req.UnitCostUSD, decimal.Zero)
	}

	if req.Reason != "" {
		movement.WithReason(req.Reason)
	}
	if req.OperatorID != nil {
		movement.WithCreatedBy(*req.OperatorID)
	}
	if req.OccurredAt != nil {
		movement.WithOccurredAt(*req.OccurredAt)
	}

	if err := balance.Apply(movement); err != nil {
		return nil, err
	}
	if err := s.movements.Append(ctx, movement); err != nil {
		return nil, err
	}
	if err := s.balances.Save(ctx, balance); err != nil {
		return nil, err
	}

	result.Movement = movement
	return result, nil
}

// consumeLots walks the product's lots FIFO and applies the draws. The
// balance row already covered the debit, so a lot shortfall means the
// lot table disagrees with the ledger and must surface as an
// inconsistency rather than be papered over.
func (s *Service) consumeLots(ctx context.Context, branchID, productID uuid.UUID, quantity decimal.Decimal) (*ConsumptionPlan, error) {
	lots, err := s.lots.FindAvailableForUpdate(ctx, branchID, productID)
	if err != nil {
		return nil, err
	}

	plan, err := PlanConsumption(quantity, lots)
	if err != nil {
		return nil, err
	}
	if !plan.FullyFulfilled {
		return nil, shared.NewLedgerInconsistencyError(
			"lots for product " + productID.String() + " cover less than the materialized balance, short by " +
				plan.Shortfall.String())
	}

	byID := make(map[uuid.UUID]*ProductLot, len(lots))
	for i := range lots {
		byID[lots[i].ID] = &lots[i]
	}
	for _, draw := range plan.Draws {
		lot, ok := byID[draw.LotID]
		if !ok {
			return nil, shared.NewLedgerInconsistencyError("planned lot " + draw.LotID.String() + " not loaded")
		}
		if err := lot.Draw(draw.Quantity); err != nil {
			return nil, err
		}
		if err := s.lots.Save(ctx, lot); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

// createLot materializes the lot for a product credit
func (s *Service) createLot(ctx context.Context, req PostRequest) (*ProductLot, error) {
	basis := req.Lot
	if basis == nil {
		if req.Type != MovementTypeAdjustment {
			return nil, shared.NewValidationError("product credit requires a lot basis")
		}
		// Surplus found during stock taking has no production record to
		// price it, so it takes the cost of the latest known lot.
		latest, err := s.lots.FindLatest(ctx, req.BranchID, req.ItemID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		basis = &LotBasis{
			Origin:     LotOriginAdjustment,
			ProducedAt: time.Now(),
		}
		if latest != nil {
			basis.UnitCostUSD = latest.UnitCostUSD
			basis.UnitCostTJS = latest.UnitCostTJS
			basis.ExchangeRate = latest.ExchangeRate
		}
	}

	lot, err := NewProductLot(
		req.BranchID, req.ItemID,
		basis.Origin, basis.ProducedAt,
		req.Quantity,
		basis.UnitCostUSD, basis.UnitCostTJS, basis.ExchangeRate,
	)
	if err != nil {
		return nil, err
	}
	if basis.ProductionBatchID != nil {
		lot.WithProductionBatch(*basis.ProductionBatchID)
	}
	if err := s.lots.Create(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}

// VerifyBalance recomputes one balance from the movement log and
// compares it to the materialized row. It never repairs anything.
func (s *Service) VerifyBalance(ctx context.Context, branchID, itemID uuid.UUID, kind ItemKind) (*BalanceAudit, error) {
	balance, err := s.balances.FindByKey(ctx, branchID, itemID, kind)
	if err != nil {
		return nil, err
	}

	recomputed, err := s.movements.SumQuantity(ctx, branchID, itemID, kind)
	if err != nil {
		return nil, err
	}

	return &BalanceAudit{
		BranchID:     branchID,
		ItemID:       itemID,
		ItemKind:     kind,
		Materialized: balance.Quantity,
		Recomputed:   recomputed,
		Consistent:   balance.Quantity.Equal(recomputed),
	}, nil
}
