package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shirin/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the rate provider (1MB)
const maxResponseSize = 1 * 1024 * 1024

// Client fetches the TJS-per-USD exchange rate from an external HTTP
// provider. A failed or timed-out lookup is returned as an error so the
// caller can abort instead of costing a lot at a stale or guessed rate.
type Client struct {
	providerURL string
	httpClient  *http.Client
}

// NewClient creates a rate client from the exchange configuration
func NewClient(cfg *config.ExchangeConfig) *Client {
	return &Client{
		providerURL: cfg.ProviderURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// rateResponse is the provider's JSON body. Only the rate field is used.
type rateResponse struct {
	Date string          `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// Rate returns the TJS per USD exchange rate for the given date
func (c *Client) Rate(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.providerURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build rate request: %w", err)
	}
	req.URL.RawQuery = url.Values{"date": {date.Format("2006-01-02")}}.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("exchange rate lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("exchange rate provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read rate response: %w", err)
	}

	var parsed rateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse rate response: %w", err)
	}

	if parsed.Rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("exchange rate provider returned non-positive rate %s", parsed.Rate)
	}

	return parsed.Rate, nil
}
