package cache

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedis opens a client and verifies the connection.
func NewRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

const stateKeyPrefix = "oauth:state:"

var ErrInvalidState = errors.New("invalid or expired oauth state")

// StateStore issues single-use OAuth state tokens bound to a provider.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{client: client, ttl: ttl}
}

func (s *StateStore) Issue(ctx context.Context, provider string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	ok, err := s.client.SetNX(ctx, stateKeyPrefix+state, provider, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}
	if !ok {
		return "", errors.New("state collision")
	}
	return state, nil
}

// Consume deletes the state and checks it was issued for provider.
func (s *StateStore) Consume(ctx context.Context, state, provider string) error {
	if state == "" {
		return ErrInvalidState
	}
	stored, err := s.client.GetDel(ctx, stateKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidState
	}
	if err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}
	if stored != provider {
		return ErrInvalidState
	}
	return nil
}

func (s *StateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
