package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"PulseTrade/internal/domain/models"
)

const strategyHashKey = "pulsetrade:strategies"

// RedisStrategyStore keeps strategy definitions in a single Redis hash,
// one JSON-encoded field per strategy id. Status transitions run under
// WATCH so concurrent scheduler ticks cannot clobber each other.
type RedisStrategyStore struct {
	client *redis.Client
}

func NewRedisStrategyStore(addr, password string, db int) (*RedisStrategyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStrategyStore{client: client}, nil
}

// Seed inserts strategies that are not already present. Existing
// definitions win so operator edits survive restarts.
func (s *RedisStrategyStore) Seed(ctx context.Context, strategies []*models.Strategy) error {
	for _, st := range strategies {
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("marshal strategy %s: %w", st.ID, err)
		}
		if err := s.client.HSetNX(ctx, strategyHashKey, st.ID, data).Err(); err != nil {
			return fmt.Errorf("seed strategy %s: %w", st.ID, err)
		}
	}
	return nil
}

func (s *RedisStrategyStore) ListActive(ctx context.Context) ([]*models.Strategy, error) {
	fields, err := s.client.HGetAll(ctx, strategyHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}

	var out []*models.Strategy
	for id, raw := range fields {
		var st models.Strategy
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, fmt.Errorf("decode strategy %s: %w", id, err)
		}
		if st.Status != models.StrategyActive {
			continue
		}
		out = append(out, &st)
	}
	return out, nil
}

// SetStatus updates a strategy's status with optimistic locking. The
// transaction retries on contention and fails if the strategy vanished.
func (s *RedisStrategyStore) SetStatus(ctx context.Context, id string, status models.StrategyStatus) error {
	const maxRetries = 5

	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, strategyHashKey, id).Result()
		if err == redis.Nil {
			return fmt.Errorf("strategy %s not found", id)
		}
		if err != nil {
			return err
		}

		var st models.Strategy
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return fmt.Errorf("decode strategy %s: %w", id, err)
		}
		st.Status = status

		data, err := json.Marshal(&st)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, strategyHashKey, id, data)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, txf, strategyHashKey)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return fmt.Errorf("set strategy %s status: %w", id, err)
		}
		return nil
	}
	return fmt.Errorf("set strategy %s status: too much contention", id)
}

func (s *RedisStrategyStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStrategyStore) Close() error {
	return s.client.Close()
}
