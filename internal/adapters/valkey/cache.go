package valkey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/looopone/internal/pkg/metrics"
)

// DefaultPrefix namespaces every key this service writes.
const DefaultPrefix = "looopone:"

// ErrMiss is returned by Get for a key that does not exist or has expired.
var ErrMiss = errors.New("valkey: cache miss")

// Cache is the store shared by API workers: the boundary polygon entry and
// the dashboard stats snapshot. It implements ports.CacheService.
type Cache struct {
	client valkey.Client
	prefix string
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix replaces DefaultPrefix, so several municipalities can share one
// server. An empty prefix keeps the default.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// New connects to addr.
func New(addr string, opts ...Option) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	c := &Cache{client: client, prefix: DefaultPrefix}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Get returns the value under key, or ErrMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(c.prefix+key).Build()).AsBytes()
	switch {
	case valkey.IsValkeyNil(err):
		observe(key, "get", "miss")
		return nil, ErrMiss
	case err != nil:
		observe(key, "get", "error")
		return nil, fmt.Errorf("valkey get %s: %w", key, err)
	}
	observe(key, "get", "hit")
	return b, nil
}

// Set stores value under key. A non-positive ttl stores without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	set := c.client.B().Set().Key(c.prefix + key).Value(valkey.BinaryString(value))
	cmd := set.Build()
	if ttlSeconds > 0 {
		cmd = set.Ex(time.Duration(ttlSeconds) * time.Second).Build()
	}
	return c.result(key, "set", c.client.Do(ctx, cmd).Error())
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.result(key, "delete", c.client.Do(ctx, c.client.B().Del().Key(c.prefix+key).Build()).Error())
}

// Ping checks connectivity for the readiness endpoint.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}

func (c *Cache) result(key, op string, err error) error {
	if err != nil {
		observe(key, op, "error")
		return fmt.Errorf("valkey %s %s: %w", op, key, err)
	}
	observe(key, op, "ok")
	return nil
}

func observe(key, op, result string) {
	metrics.SharedCacheOps.WithLabelValues(keyspace(key), op, result).Inc()
}

// keyspace is the part of key before the first colon, which keeps the
// metric label set small ("dashboard:stats" -> "dashboard").
func keyspace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
