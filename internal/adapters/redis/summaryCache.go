package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	userPort "gramly/internal/ports/user"

	"github.com/go-redis/redis/v8"
	"github.com/gofrs/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const summaryKeyPrefix = "user:summary:"

// SummaryCacheRedis caches author summaries as JSON strings with a TTL.
// Every call goes through a circuit breaker; while it is open the cache behaves as empty.
type SummaryCacheRedis struct {
	Client  *redis.Client
	TTL     time.Duration
	Logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker
}

func NewSummaryCacheRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SummaryCacheRedis {
	if logger == nil {
		logger = zap.NewNop()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-summary-cache",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &SummaryCacheRedis{
		Client:  client,
		TTL:     ttl,
		Logger:  logger,
		breaker: breaker,
	}
}

func summaryKey(id uuid.UUID) string {
	return summaryKeyPrefix + id.String()
}

// Get returns the cached summaries and the ids that still need a store lookup.
func (c *SummaryCacheRedis) Get(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*userPort.SummaryDTO, []uuid.UUID) {
	found := make(map[uuid.UUID]*userPort.SummaryDTO, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, summaryKey(id))
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.Client.MGet(ctx, keys...).Result()
	})
	if err != nil {
		c.Logger.Warn("summary cache read failed", zap.Int("keys", len(keys)), zap.Error(err))
		return found, ids
	}

	values := res.([]interface{})
	missing := make([]uuid.UUID, 0, len(ids))
	for i, id := range ids {
		raw, ok := values[i].(string)
		if !ok {
			missing = append(missing, id)
			continue
		}
		var summary userPort.SummaryDTO
		if err := json.Unmarshal([]byte(raw), &summary); err != nil {
			c.Logger.Debug("dropping undecodable summary", zap.String("userID", id.String()), zap.Error(err))
			missing = append(missing, id)
			continue
		}
		found[id] = &summary
	}
	return found, missing
}

func (c *SummaryCacheRedis) Set(ctx context.Context, summaries ...*userPort.SummaryDTO) {
	if len(summaries) == 0 {
		return
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		pipe := c.Client.Pipeline()
		for _, s := range summaries {
			id, err := uuid.FromString(s.ID)
			if err != nil {
				continue
			}
			payload, err := json.Marshal(s)
			if err != nil {
				return nil, err
			}
			pipe.Set(ctx, summaryKey(id), payload, c.TTL)
		}
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	if err != nil {
		c.Logger.Warn("summary cache write failed", zap.Int("count", len(summaries)), zap.Error(err))
	}
}

func (c *SummaryCacheRedis) Invalidate(ctx context.Context, id uuid.UUID) {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		err := c.Client.Del(ctx, summaryKey(id)).Err()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	})
	if err != nil {
		// A stale entry expires after TTL.
		c.Logger.Warn("summary cache invalidation failed", zap.String("userID", id.String()), zap.Error(err))
	}
}
