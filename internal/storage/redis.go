package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "telegram:logs"

// RedisRecorder appends records to a Redis list. RPUSH is atomic, so
// concurrent writers from several instances keep a consistent list.
type RedisRecorder struct {
	client *redis.Client
	key    string
}

// NewRedisRecorder connects to redisURL and verifies the connection.
func NewRedisRecorder(ctx context.Context, redisURL, key string) (*RedisRecorder, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisRecorder{client: client, key: key}, nil
}

func (s *RedisRecorder) AppendInteraction(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}

func (s *RedisRecorder) LoadInteractions(ctx context.Context) ([]Record, error) {
	items, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange: %w", err)
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RedisRecorder) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisRecorder) Close() error {
	return s.client.Close()
}
