package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yerzhan-m/utm-airspace/config"
	"github.com/yerzhan-m/utm-airspace/internal/domain"
)

type RedisCache struct {
	client   *redis.Client
	zonesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, zonesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		zonesTTL: zonesTTL,
	}
}

func (c *RedisCache) GetZones(ctx context.Context) ([]domain.RestrictedZone, error) {
	data, err := c.client.Get(ctx, zonesKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var zones []domain.RestrictedZone
	if err := json.Unmarshal(data, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

func (c *RedisCache) SetZones(ctx context.Context, zones []domain.RestrictedZone) error {
	payload, err := json.Marshal(zones)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, zonesKey(), payload, c.zonesTTL).Err()
}

func (c *RedisCache) InvalidateZones(ctx context.Context) error {
	return c.client.Del(ctx, zonesKey()).Err()
}

// AcquireApprovalLock takes a short-lived exclusive lock on a flight
// request so two admins on different instances cannot drive its
// approval concurrently.
func (c *RedisCache) AcquireApprovalLock(ctx context.Context, flightRequestID int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, approvalLockKey(flightRequestID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseApprovalLock(ctx context.Context, flightRequestID int64) error {
	return c.client.Del(ctx, approvalLockKey(flightRequestID)).Err()
}

func zonesKey() string {
	return "cache:zones:active"
}

func approvalLockKey(flightRequestID int64) string {
	return fmt.Sprintf("lock:flight-request:%d", flightRequestID)
}
