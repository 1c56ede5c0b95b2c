package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Key building
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache is a JSON read-through cache on Redis. A Cache without a client is a no-op,
// every lookup misses and every write succeeds.
type Cache struct {
	rdb *redis.Client // Redis client, may be nil
	ttl time.Duration // Default entry lifetime
}

// NewCache wraps a Redis client
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a Redis client backs the cache
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Get retrieves a value from Redis and unmarshals it into dest
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil // Nothing cached without Redis
	}
	val, err := c.rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// Set stores a value in Redis with the default TTL
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err() // Set value in Redis with TTL
}

// Delete removes keys from Redis
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// DeletePrefix removes every key starting with prefix
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	if !c.Enabled() {
		return nil
	}
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator() // Walk matching keys in batches
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.Delete(ctx, keys...)
}

// Cache keys
const (
	BalancePrefix     = "balance:user:"   // Per user balances
	PublicBranchesKey = "branches:public" // Public branch list
	DashboardPrefix   = "dashboard:"      // Dashboard stats per scope
	AdminTxListPrefix = "admin:txs:"      // Admin transaction listings
)

// BalanceKey is the cache key of a user's balance
func BalanceKey(userID uint) string {
	return BalancePrefix + strconv.FormatUint(uint64(userID), 10)
}

// HistoryPrefix is the prefix of all cached history pages of a user
func HistoryPrefix(userID uint) string {
	return "txhistory:user:" + strconv.FormatUint(uint64(userID), 10) + ":"
}

// HistoryKey is the cache key of one history page
func HistoryKey(userID uint, page, pageSize int) string {
	return HistoryPrefix(userID) + "page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
}

// DashboardKey is the cache key of the dashboard for a branch, 0 meaning every branch
func DashboardKey(branchID uint) string {
	if branchID == 0 {
		return DashboardPrefix + "all"
	}
	return DashboardPrefix + "branch:" + strconv.FormatUint(uint64(branchID), 10)
}

// InvalidateUserPoints drops every cached view derived from a user's transactions
func (c *Cache) InvalidateUserPoints(ctx context.Context, userID uint) error {
	if err := c.Delete(ctx, BalanceKey(userID)); err != nil {
		return err
	}
	for _, prefix := range []string{HistoryPrefix(userID), DashboardPrefix, AdminTxListPrefix} {
		if err := c.DeletePrefix(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}
