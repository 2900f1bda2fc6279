package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrCacheMiss ключа нет в кэше
var ErrCacheMiss = errors.New("cache miss")

// RedisClient обертка над redis.Client
type RedisClient struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient создает нового Redis клиента
func NewRedisClient(addr, password string, db int, logger *zap.Logger) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		// Настройки пула
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  30 * time.Second,
		IdleTimeout:  5 * time.Minute,

		// Таймауты
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established",
		zap.String("addr", addr),
		zap.Int("db", db))

	return &RedisClient{
		client: client,
		logger: logger,
	}, nil
}

// Close закрывает соединение с Redis
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// HealthCheck проверка здоровья Redis
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// GetJSON читает значение и декодирует его в dest
func (r *RedisClient) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// SetJSON сохраняет значение в JSON с TTL
func (r *RedisClient) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// DeletePrefix удаляет все ключи с префиксом
func (r *RedisClient) DeletePrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// RateLimit фиксированное окно: allowed, сколько осталось и когда окно сбросится
func (r *RedisClient) RateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Duration, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, 0, err
	}

	// Первый запрос в окне, устанавливаем TTL
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, 0, err
		}
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, 0, err
	}
	if ttl < 0 {
		ttl = 0
	}

	if count > int64(limit) {
		return false, 0, ttl, nil
	}
	return true, limit - int(count), ttl, nil
}
