package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/BetterCallFirewall/Bastion/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore - verdict cache shared between instances
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redis and checks the connection
func NewRedisStore(addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	log.Printf("🗄️ Verdict cache connected to redis at %s", addr)
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (models.Verdict, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Verdict{}, false, nil
	}
	if err != nil {
		return models.Verdict{}, false, fmt.Errorf("redis get: %w", err)
	}

	var verdict models.Verdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		return models.Verdict{}, false, fmt.Errorf("failed to unmarshal cached verdict: %w", err)
	}
	return verdict, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, verdict models.Verdict) error {
	data, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
