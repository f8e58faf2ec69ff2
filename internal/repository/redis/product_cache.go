package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"onlineShop/domain"
	"onlineShop/pkg/logger"
	"onlineShop/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// ListingKeyPrefix namespaces every cached product listing.
const ListingKeyPrefix = "products:"

// ProductCacheRepository mirrors product listing queries in redis. Every read
// failure is reported as a miss so callers fall through to postgres.
type ProductCacheRepository struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

func NewProductCacheRepository(client *redis.Client) *ProductCacheRepository {
	return &ProductCacheRepository{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(breakerSettings()),
	}
}

// breakerSettings trips after repeated redis failures so an unreachable
// server costs one fast miss per request instead of a dial timeout.
func breakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "ProductCache",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
}

func (r *ProductCacheRepository) Get(ctx context.Context, key string) ([]domain.ProductSummary, bool) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		val, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		metrics.ProductCacheErrors.Inc()
		metrics.ProductCacheMisses.Inc()
		logger.Warn("Product cache read failed", "key", key, "error", err)
		return nil, false
	}

	val, ok := res.([]byte)
	if !ok {
		metrics.ProductCacheMisses.Inc()
		return nil, false
	}

	var products []domain.ProductSummary
	if err := json.Unmarshal(val, &products); err != nil {
		metrics.ProductCacheErrors.Inc()
		metrics.ProductCacheMisses.Inc()
		logger.Warn("Product cache payload is corrupt", "key", key, "error", err)
		return nil, false
	}

	metrics.ProductCacheHits.Inc()
	return products, true
}

func (r *ProductCacheRepository) Set(ctx context.Context, key string, products []domain.ProductSummary, ttl time.Duration) error {
	if products == nil {
		products = []domain.ProductSummary{}
	}

	jsonData, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to marshal product listing: %w", err)
	}

	_, err = r.cb.Execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, key, jsonData, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to store product listing in Redis: %w", err)
	}

	return nil
}

// InvalidateListings drops every cached listing. It bypasses the breaker:
// a skipped invalidation would leave stale listings once redis recovers.
func (r *ProductCacheRepository) InvalidateListings(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, ListingKeyPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan product listings: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete product listings: %w", err)
	}

	return nil
}
