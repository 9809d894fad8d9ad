package ai

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"smartshop/internal/models"
)

// ScanCache remembers recognition results per image digest so re-scanning
// the same photo does not burn another inference call.
type ScanCache interface {
	Get(ctx context.Context, key string) (*models.ScanResult, bool, error)
	Set(ctx context.Context, key string, value *models.ScanResult, ttl time.Duration) error
}

type NoopScanCache struct{}

func (NoopScanCache) Get(_ context.Context, _ string) (*models.ScanResult, bool, error) {
	return nil, false, nil
}

func (NoopScanCache) Set(_ context.Context, _ string, _ *models.ScanResult, _ time.Duration) error {
	return nil
}

type RedisScanCache struct {
	client *redis.Client
}

func NewRedisScanCache(addr string, password string, db int) *RedisScanCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisScanCache{client: client}
}

func (c *RedisScanCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisScanCache) Close() error {
	return c.client.Close()
}

func (c *RedisScanCache) Get(ctx context.Context, key string) (*models.ScanResult, bool, error) {
	val, err := c.client.Get(ctx, "scan:"+key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var result models.ScanResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

func (c *RedisScanCache) Set(ctx context.Context, key string, value *models.ScanResult, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "scan:"+key, payload, ttl).Err()
}
