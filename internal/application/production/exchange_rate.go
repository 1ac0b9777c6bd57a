package production

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRateProvider supplies the TJS-per-USD rate used to fix the
// TJS side of a batch's unit cost at completion time. Completion must
// fail when no rate can be obtained; costing a lot at a guessed rate
// would poison every later COGS figure drawn from it.
type ExchangeRateProvider interface {
	// Rate returns the TJS per USD exchange rate for the given date
	Rate(ctx context.Context, date time.Time) (decimal.Decimal, error)
}
