package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/teams-inbox/state"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of state.Store
 * Every key lives under a shared prefix so the service can share a database
 * with the consumer inbox streams.
 */

const keyPrefix = "state"

type Store struct {
	client *redis.Client
}

// NewStore connects to Redis and verifies the connection
func NewStore(addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewStoreWithClient wraps an existing client, sharing its connection pool
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get returns state.ErrNotFound for missing keys
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, storeKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", state.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting %s: %w", key, err)
	}
	return value, nil
}

// Set overwrites the key without expiration
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, storeKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, storeKey(key)).Err(); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection
func (s *Store) Close(ctx context.Context) error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client for sharing with other repositories
func (s *Store) GetClient() *redis.Client {
	return s.client
}

func storeKey(key string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, key)
}
