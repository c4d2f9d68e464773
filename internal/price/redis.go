package price

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"wallet-monitor/internal/models"
)

const quoteKeyPrefix = "quote:"

// RedisCache memoizes oracle quotes in Redis so multiple instances
// share one quote per symbol. Expiry is enforced by the key TTL;
// last-writer-wins on a racing refresh is acceptable because quotes are
// idempotent snapshots. Redis errors degrade to a direct oracle call.
type RedisCache struct {
	oracle Oracle
	cli    *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewRedisCache(oracle Oracle, addr, password string, db int, ttl time.Duration, logger *zerolog.Logger) *RedisCache {
	cli := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &RedisCache{oracle: oracle, cli: cli, ttl: ttl, logger: logger}
}

func (r *RedisCache) Close() error { return r.cli.Close() }

func (r *RedisCache) GetPrice(ctx context.Context, symbol string) (models.PriceQuote, bool) {
	key := quoteKeyPrefix + strings.ToLower(symbol)

	payload, err := r.cli.Get(ctx, key).Result()
	if err == nil {
		var quote models.PriceQuote
		if err := json.Unmarshal([]byte(payload), &quote); err == nil {
			return quote, true
		}
		r.logger.Warn().Str("symbol", symbol).Msg("Discarding undecodable cached quote")
	} else if err != redis.Nil {
		r.logger.Warn().Err(err).Str("symbol", symbol).Msg("Redis quote lookup failed")
	}

	price, err := r.oracle.FetchUSDPrice(ctx, symbol)
	if err != nil {
		r.logger.Warn().Err(err).Str("symbol", symbol).Msg("Price oracle lookup failed")
		return models.PriceQuote{}, false
	}

	quote := models.PriceQuote{
		Symbol:       symbol,
		UnitPriceUSD: price,
		FetchedAt:    time.Now().UTC(),
		TTL:          r.ttl,
	}
	if payload, err := json.Marshal(quote); err == nil {
		if err := r.cli.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			r.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote in Redis")
		}
	}
	return quote, true
}
