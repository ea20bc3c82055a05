// Package redis stores family states in Redis, one string key per family
// plus a set indexing the known family ids.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kittenfeed/internal/domain"
)

const (
	keyPrefix   = "kittenfeed:state:"
	familiesKey = "kittenfeed:families"
)

// Store implements domain.StateRepository on Redis.
type Store struct {
	client *redis.Client
}

var _ domain.StateRepository = (*Store)(nil)

// Open parses redisURL, configures the pool and pings the server.
func Open(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c *redis.Client) *Store {
	return &Store{client: c}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// LoadState returns the stored document for familyID, or nil if none exists.
func (s *Store) LoadState(ctx context.Context, familyID string) ([]byte, error) {
	b, err := s.client.Get(ctx, stateKey(familyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

// SaveState writes the document and indexes the family id in one
// transaction.
func (s *Store) SaveState(ctx context.Context, familyID string, state []byte) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, stateKey(familyID), state, 0)
		p.SAdd(ctx, familiesKey, familyID)
		return nil
	})
	return err
}

// ListFamilies returns every indexed family id.
func (s *Store) ListFamilies(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, familiesKey).Result()
}

func stateKey(familyID string) string {
	return keyPrefix + familyID
}
