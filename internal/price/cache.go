package price

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"wallet-monitor/internal/models"
)

const cacheSize = 256

// Cache is a time-bounded memoization over the price oracle. A
// non-expired quote is served without a network call; a failed fetch
// caches nothing, so the next call retries immediately.
type Cache struct {
	oracle  Oracle
	ttl     time.Duration
	entries *expirable.LRU[string, models.PriceQuote]
	logger  *zerolog.Logger
	now     func() time.Time
}

func NewCache(oracle Oracle, ttl time.Duration, logger *zerolog.Logger) *Cache {
	return &Cache{
		oracle:  oracle,
		ttl:     ttl,
		entries: expirable.NewLRU[string, models.PriceQuote](cacheSize, nil, ttl),
		logger:  logger,
		now:     time.Now,
	}
}

// GetPrice returns the current quote for a symbol, from cache when
// fresh. Transport errors and malformed oracle responses both map to
// ok=false and are logged, never raised to the caller.
func (c *Cache) GetPrice(ctx context.Context, symbol string) (models.PriceQuote, bool) {
	key := strings.ToLower(symbol)

	if quote, ok := c.entries.Get(key); ok && !quote.Expired(c.now()) {
		return quote, true
	}

	price, err := c.oracle.FetchUSDPrice(ctx, symbol)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Price oracle lookup failed")
		return models.PriceQuote{}, false
	}

	quote := models.PriceQuote{
		Symbol:       symbol,
		UnitPriceUSD: price,
		FetchedAt:    c.now(),
		TTL:          c.ttl,
	}
	c.entries.Add(key, quote)
	return quote, true
}
