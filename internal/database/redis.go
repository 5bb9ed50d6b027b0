package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eatyaar/backend/config"
)

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// A full URL wins when provided (managed Redis deployments).
	if cfg.RedisURL != "" {
		parsedOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opts = parsedOpts
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("Successfully connected to Redis at %s", opts.Addr)
	return client, nil
}

// RedisOTPStore keeps OTP hashes and per-phone send counters in Redis.
// It implements service.OTPStore.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func otpKey(phone string) string  { return "otp:" + phone }
func sendKey(phone string) string { return "otp_sends:" + phone }

func (s *RedisOTPStore) SaveOTP(ctx context.Context, phone, hash string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKey(phone), hash, ttl).Err()
}

func (s *RedisOTPStore) GetOTP(ctx context.Context, phone string) (string, error) {
	return s.client.Get(ctx, otpKey(phone)).Result()
}

func (s *RedisOTPStore) DeleteOTP(ctx context.Context, phone string) error {
	return s.client.Del(ctx, otpKey(phone)).Err()
}

// CountSend bumps and returns the send counter for the phone. The counter
// expires after the rate-limit window.
func (s *RedisOTPStore) CountSend(ctx context.Context, phone string, window time.Duration) (int64, error) {
	key := sendKey(phone)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}
