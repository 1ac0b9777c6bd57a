package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LotDraw is a planned deduction from a single lot
type LotDraw struct {
	LotID         uuid.UUID       `json:"lot_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCostUSD   decimal.Decimal `json:"unit_cost_usd"`
	UnitCostTJS   decimal.Decimal `json:"unit_cost_tjs"`
	FullyConsumed bool            `json:"fully_consumed"`
}

// ConsumptionPlan is the result of walking lots oldest-first for a
// requested quantity. Unit costs are the weighted averages over the
// drawn lots, rounded to 4 places.
type ConsumptionPlan struct {
	Draws          []LotDraw
	TotalQuantity  decimal.Decimal
	TotalCostUSD   decimal.Decimal
	TotalCostTJS   decimal.Decimal
	UnitCostUSD    decimal.Decimal
	UnitCostTJS    decimal.Decimal
	Shortfall      decimal.Decimal
	FullyFulfilled bool
}

// PlanConsumption walks the given lots in FIFO order (ProducedAt, then
// creation time as tiebreaker) and plans per-lot draws for the requested
// quantity. It is a pure function: lots are not mutated. A shortfall is
// reported, not treated as an error, because the caller decides whether
// it means insufficient stock or a ledger inconsistency.
func PlanConsumption(requested decimal.Decimal, lots []ProductLot) (*ConsumptionPlan, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("requested quantity must be positive")
	}

	available := make([]ProductLot, 0, len(lots))
	for _, lot := range lots {
		if lot.HasStock() {
			available = append(available, lot)
		}
	}
	sort.Slice(available, func(i, j int) bool {
		if !available[i].ProducedAt.Equal(available[j].ProducedAt) {
			return available[i].ProducedAt.Before(available[j].ProducedAt)
		}
		return available[i].CreatedAt.Before(available[j].CreatedAt)
	})

	plan := &ConsumptionPlan{
		Draws:         make([]LotDraw, 0, len(available)),
		TotalQuantity: decimal.Zero,
		TotalCostUSD:  decimal.Zero,
		TotalCostTJS:  decimal.Zero,
	}

	remaining := requested
	for _, lot := range available {
		if remaining.IsZero() {
			break
		}

		draw := decimal.Min(remaining, lot.QuantityRemaining)
		plan.Draws = append(plan.Draws, LotDraw{
			LotID:         lot.ID,
			Quantity:      draw,
			UnitCostUSD:   lot.UnitCostUSD,
			UnitCostTJS:   lot.UnitCostTJS,
			FullyConsumed: draw.Equal(lot.QuantityRemaining),
		})

		plan.TotalQuantity = plan.TotalQuantity.Add(draw)
		plan.TotalCostUSD = plan.TotalCostUSD.Add(draw.Mul(lot.UnitCostUSD))
		plan.TotalCostTJS = plan.TotalCostTJS.Add(draw.Mul(lot.UnitCostTJS))
		remaining = remaining.Sub(draw)
	}

	plan.Shortfall = remaining
	plan.FullyFulfilled = remaining.IsZero()
	if plan.TotalQuantity.IsPositive() {
		plan.UnitCostUSD = plan.TotalCostUSD.Div(plan.TotalQuantity).Round(4)
		plan.UnitCostTJS = plan.TotalCostTJS.Div(plan.TotalQuantity).Round(4)
	}

	return plan, nil
}
