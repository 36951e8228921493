// Package redis keeps the exact store in a Redis set so several bloomd
// processes can share ground truth.
package redis

import (
	"context"
	"fmt"
	"io"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/haukened/bloomd/internal/bloomd/repos/blacklist"
)

// DefaultKey is the set key used when none is configured.
const DefaultKey = "bloomd:blacklist"

type redisStore struct {
	client  goredis.Cmdable
	key     string
	timeout time.Duration
}

// New wraps client. timeout bounds each command; zero means 2 seconds.
func New(client goredis.Cmdable, key string, timeout time.Duration) blacklist.Store {
	if key == "" {
		key = DefaultKey
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &redisStore{client: client, key: key, timeout: timeout}
}

func (s *redisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Load verifies the server is reachable; members stay in Redis.
func (s *redisStore) Load() error {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *redisStore) Contains(url string) (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.client.SIsMember(ctx, s.key, url).Result()
}

func (s *redisStore) Insert(url string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.client.SAdd(ctx, s.key, url).Err()
}

func (s *redisStore) Remove(url string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.client.SRem(ctx, s.key, url).Err()
}

func (s *redisStore) Members() ([]string, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.client.SMembers(ctx, s.key).Result()
}

func (s *redisStore) Len() (int, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	n, err := s.client.SCard(ctx, s.key).Result()
	return int(n), err
}

// Close closes the client when it owns a connection pool.
func (s *redisStore) Close() error {
	if c, ok := s.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ blacklist.Store = (*redisStore)(nil)
