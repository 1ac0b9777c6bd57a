package exchange

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/shirin/backend/internal/application/production"
)

// rateCacheKeyPrefix is the redis key prefix for cached TJS-per-USD
// rates; one key per rate date
const rateCacheKeyPrefix = "exchange:rate:usd_tjs:"

// CachedProvider wraps a rate provider with a redis TTL cache so that
// completing several batches in a row does not hammer the external
// provider. Cache failures fall through to a direct lookup; a cache
// outage must not block batch completion when the provider is up.
type CachedProvider struct {
	inner  production.ExchangeRateProvider
	client *redis.Client
	ttl    time.Duration
}

// NewCachedProvider creates a redis-backed cache around a rate provider
func NewCachedProvider(inner production.ExchangeRateProvider, client *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		client: client,
		ttl:    ttl,
	}
}

// Rate returns the cached rate for the date when present, otherwise
// fetches from the underlying provider and stores the result
func (p *CachedProvider) Rate(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	key := rateCacheKeyPrefix + date.Format("2006-01-02")
	if cached, err := p.client.Get(ctx, key).Result(); err == nil {
		if rate, parseErr := decimal.NewFromString(cached); parseErr == nil && rate.IsPositive() {
			return rate, nil
		}
	}

	rate, err := p.inner.Rate(ctx, date)
	if err != nil {
		return decimal.Zero, err
	}

	// Best effort; the fresh rate is already in hand
	p.client.Set(ctx, key, rate.String(), p.ttl)

	return rate, nil
}

// Ensure the implementations satisfy the provider interface
var (
	_ production.ExchangeRateProvider = (*Client)(nil)
	_ production.ExchangeRateProvider = (*CachedProvider)(nil)
)
