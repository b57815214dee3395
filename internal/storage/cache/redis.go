// Package cache wraps a single Redis client offering TTL key-value
// operations and the Redis Streams transport the ingress layer consumes
// from. The fetcher's caches are in-process and do not use it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/logger"
)

// Redis wraps a go-redis client with the key-value and stream operations
// SENTINEL needs.
type Redis struct {
	client *redis.Client
	ctx    context.Context
	logger *logger.Logger
}

// NewRedisConnection opens and pings a Redis client for cfg.
func NewRedisConnection(cfg *config.RedisConfig, log *logger.Logger) (*Redis, error) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	log.Info("redis_connected", map[string]interface{}{"host": cfg.Host, "port": cfg.Port})

	return &Redis{
		client: client,
		ctx:    ctx,
		logger: log,
	}, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Set stores a string value with the given expiration. A zero expiration
// means no TTL.
func (r *Redis) Set(key string, value string, expiration time.Duration) error {
	return r.client.Set(r.ctx, key, value, expiration).Err()
}

// Get returns the string value for key, or redis.Nil if absent.
func (r *Redis) Get(key string) (string, error) {
	return r.client.Get(r.ctx, key).Result()
}

// Delete removes a key.
func (r *Redis) Delete(key string) error {
	return r.client.Del(r.ctx, key).Err()
}

// SetStruct JSON-encodes value and stores it under key.
func (r *Redis) SetStruct(key string, value interface{}, expiration time.Duration) error {
	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling value for key %s: %w", key, err)
	}
	return r.client.Set(r.ctx, key, jsonBytes, expiration).Err()
}

// GetStruct JSON-decodes the value stored under key into dest.
func (r *Redis) GetStruct(key string, dest interface{}) error {
	jsonBytes, err := r.client.Get(r.ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, dest)
}

// Keys returns every key matching pattern.
func (r *Redis) Keys(pattern string) ([]string, error) {
	return r.client.Keys(r.ctx, pattern).Result()
}

// Exists reports whether key is present.
func (r *Redis) Exists(key string) (bool, error) {
	val, err := r.client.Exists(r.ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val > 0, nil
}

// TTL returns the remaining time to live for key.
func (r *Redis) TTL(key string) (time.Duration, error) {
	return r.client.TTL(r.ctx, key).Result()
}

// PurgePattern deletes every key matching pattern.
func (r *Redis) PurgePattern(pattern string) error {
	keys, err := r.client.Keys(r.ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(r.ctx, keys...).Err()
}

// XMessage is one entry read from a Redis Stream.
type XMessage struct {
	ID     string
	Values map[string]interface{}
}

// XAdd appends a message to a stream with an auto-generated ID.
func (r *Redis) XAdd(stream string, values map[string]interface{}) error {
	return r.client.XAdd(r.ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: values,
	}).Err()
}

// XGroupCreate creates a consumer group on stream, creating the stream
// itself first if it doesn't exist yet. A group that already exists is not
// an error.
func (r *Redis) XGroupCreate(stream, group string) error {
	err := r.client.XGroupCreateMkStream(r.ctx, stream, group, "$").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return err
	}
	return nil
}

// XAck acknowledges a message as processed within a consumer group.
func (r *Redis) XAck(stream, group, messageID string) error {
	return r.client.XAck(r.ctx, stream, group, messageID).Err()
}

// XReadGroup reads up to count new (never delivered) messages for consumer
// in group, blocking for up to timeout if none are immediately available.
// Messages already delivered but not acked are not returned again.
func (r *Redis) XReadGroup(stream, group, consumer string, count int, timeout time.Duration) ([]XMessage, error) {
	result, err := r.client.XReadGroup(r.ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    int64(count),
		Block:    timeout,
	}).Result()

	if err != nil {
		if err == redis.Nil {
			return []XMessage{}, nil
		}
		return nil, err
	}

	var messages []XMessage
	for _, s := range result {
		for _, m := range s.Messages {
			messages = append(messages, XMessage{ID: m.ID, Values: m.Values})
		}
	}
	return messages, nil
}
