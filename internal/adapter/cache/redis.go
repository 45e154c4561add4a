// Package cache keeps rendered catalog query results in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/niksmo/eco-catalog/internal/core/domain"
	"github.com/niksmo/eco-catalog/internal/core/port"
	"github.com/redis/go-redis/v9"
)

var _ port.QueryCache = (*RedisCache)(nil)

const keyPrefix = "catalog"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return RedisCache{client: rdb, ttl: ttl}
}

// Ping checks the server is reachable.
func (c RedisCache) Ping(ctx context.Context) error {
	const op = "RedisCache.Ping"

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get reports false without error when nothing is cached for the query.
func (c RedisCache) Get(
	ctx context.Context, version uint64, q domain.Query,
) (domain.QueryResult, bool, error) {
	const op = "RedisCache.Get"

	key, err := Key(version, q)
	if err != nil {
		return domain.QueryResult{}, false, fmt.Errorf("%s: %w", op, err)
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.QueryResult{}, false, nil
		}
		return domain.QueryResult{}, false, fmt.Errorf("%s: %w", op, err)
	}

	var res domain.QueryResult
	if err := json.Unmarshal(data, &res); err != nil {
		return domain.QueryResult{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return res, true, nil
}

func (c RedisCache) Set(
	ctx context.Context, version uint64, q domain.Query, r domain.QueryResult,
) error {
	const op = "RedisCache.Set"

	key, err := Key(version, q)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c RedisCache) Close() {
	const op = "RedisCache.Close"
	log := slog.With("op", op)

	if err := c.client.Close(); err != nil {
		log.Error("failed to close redis client", "err", err)
		return
	}
	log.Info("redis client is closed")
}

type queryKey struct {
	Materials    []string `json:"m"`
	MaxPrice     int      `json:"p"`
	ImpactScores []int    `json:"i"`
	Sort         string   `json:"s"`
	Page         int      `json:"n"`
	Size         int      `json:"z"`
}

// Key builds the redis key of a query against a catalog version.
// Equal filter sets give equal keys regardless of element order.
func Key(version uint64, q domain.Query) (string, error) {
	materials := slices.Clone(q.Filter.Materials)
	slices.Sort(materials)
	scores := slices.Clone(q.Filter.ImpactScores)
	slices.Sort(scores)

	b, err := json.Marshal(queryKey{
		Materials:    materials,
		MaxPrice:     q.Filter.MaxPrice,
		ImpactScores: scores,
		Sort:         q.Sort.String(),
		Page:         q.Page.Number,
		Size:         q.Page.Size,
	})
	if err != nil {
		return "", err
	}
	return keyPrefix + ":v" + strconv.FormatUint(version, 10) + ":" + string(b), nil
}
