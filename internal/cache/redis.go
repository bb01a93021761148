package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) WalletBalance(ctx context.Context, sessionKey string) (float64, error) {
	data, err := r.get(ctx, walletKey(sessionKey))
	if err != nil {
		return 0, err
	}

	balance, err := strconv.ParseFloat(data, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cached wallet balance: %w", err)
	}
	return balance, nil
}

func (r RedisCache) SetWalletBalance(ctx context.Context, sessionKey string, balance float64) error {
	return r.set(ctx, walletKey(sessionKey), strconv.FormatFloat(balance, 'f', -1, 64))
}

func (r RedisCache) DeleteWalletBalance(ctx context.Context, sessionKey string) error {
	return r.delete(ctx, walletKey(sessionKey))
}

func (r RedisCache) CartCount(ctx context.Context, sessionKey string) (int, error) {
	data, err := r.get(ctx, countKey(sessionKey))
	if err != nil {
		return 0, err
	}

	count, err := strconv.Atoi(data)
	if err != nil {
		return 0, fmt.Errorf("parse cached cart count: %w", err)
	}
	return count, nil
}

func (r RedisCache) SetCartCount(ctx context.Context, sessionKey string, count int) error {
	return r.set(ctx, countKey(sessionKey), strconv.Itoa(count))
}

func (r RedisCache) DeleteCartCount(ctx context.Context, sessionKey string) error {
	return r.delete(ctx, countKey(sessionKey))
}

func (r RedisCache) get(ctx context.Context, key string) (string, error) {
	data, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r RedisCache) set(ctx context.Context, key, value string) error {
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func walletKey(sessionKey string) string {
	return fmt.Sprintf("wallet:%s", sessionKey)
}

func countKey(sessionKey string) string {
	return fmt.Sprintf("cartcount:%s", sessionKey)
}
