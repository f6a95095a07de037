/*
Package redis provides a Redis read-through cache for committed assessments.

PURPOSE:
  Dashboards read the same (business, month) assessment far more often than
  it is recalculated. The cache serves those reads from Redis and falls back
  to the system of record when Redis misses or is down.

WRITE PATH (ReplaceAssessment):
  1. Commit to the backing store. Its error is the call's error.
  2. SET the encoded assessment with a TTL.
  3. If the SET fails, DEL the key so a stale copy is not served. Failures
     here are logged only; the TTL bounds any remaining staleness.

READ PATH (GetAssessment):
  Redis hit → decoded copy. Miss or Redis error → backing store, then a
  best-effort SET.

SEE ALSO:
  - store/sqlite: Backing store
  - attendance/store.go: AssessmentStore contract
*/
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

const (
	keyPrefix  = "attendance:assessment:"
	DefaultTTL = 24 * time.Hour
)

// Options configures the client.
type Options struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Client wraps the go-redis client with health checking capabilities.
type Client struct {
	*redis.Client
}

// New creates a Redis client and checks the connection.
// Returns nil if the URL is empty (Redis not configured).
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, nil
	}

	ro, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if opts.PoolSize > 0 {
		ro.PoolSize = opts.PoolSize
	}
	if opts.DialTimeout > 0 {
		ro.DialTimeout = opts.DialTimeout
	}
	if opts.ReadTimeout > 0 {
		ro.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		ro.WriteTimeout = opts.WriteTimeout
	}

	client := redis.NewClient(ro)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// =============================================================================
// ASSESSMENT CACHE
// =============================================================================

// LookupObserver is told whether each read was served from Redis.
type LookupObserver interface {
	ObserveCacheLookup(hit bool)
}

type Cache struct {
	client   redis.Cmdable
	backing  attendance.AssessmentStore
	ttl      time.Duration
	logger   *slog.Logger
	observer LookupObserver
}

// CacheOption configures a Cache instance.
type CacheOption func(*Cache)

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithObserver(o LookupObserver) CacheOption {
	return func(c *Cache) { c.observer = o }
}

// NewCache puts client in front of backing. The result is itself an
// attendance.AssessmentStore.
func NewCache(client redis.Cmdable, backing attendance.AssessmentStore, opts ...CacheOption) *Cache {
	c := &Cache{client: client, backing: backing, ttl: DefaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Key returns the Redis key for (business, month).
func Key(businessID generic.BusinessID, month generic.Month) string {
	return keyPrefix + string(businessID) + ":" + month.String()
}

// ReplaceAssessment commits to the backing store, then refreshes the cache.
func (c *Cache) ReplaceAssessment(ctx context.Context, a *attendance.Assessment) error {
	if err := c.backing.ReplaceAssessment(ctx, a); err != nil {
		return err
	}

	key := Key(a.BusinessID, a.Month)
	if err := c.set(ctx, key, a); err != nil {
		c.logger.Warn("assessment cache refresh failed, evicting", "key", key, "error", err)
		if derr := c.client.Del(ctx, key).Err(); derr != nil {
			c.logger.Warn("assessment cache eviction failed", "key", key, "error", derr)
		}
	}
	return nil
}

// GetAssessment serves from Redis when possible.
func (c *Cache) GetAssessment(ctx context.Context, businessID generic.BusinessID, month generic.Month) (*attendance.Assessment, error) {
	key := Key(businessID, month)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		a, derr := Decode(raw)
		if derr == nil {
			c.observe(true)
			return a, nil
		}
		c.logger.Warn("undecodable cached assessment", "key", key, "error", derr)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("assessment cache read failed", "key", key, "error", err)
	}
	c.observe(false)

	a, err := c.backing.GetAssessment(ctx, businessID, month)
	if err != nil {
		return nil, err
	}
	if serr := c.set(ctx, key, a); serr != nil {
		c.logger.Debug("assessment cache fill failed", "key", key, "error", serr)
	}
	return a, nil
}

// Invalidate drops the cached copy for (business, month).
func (c *Cache) Invalidate(ctx context.Context, businessID generic.BusinessID, month generic.Month) error {
	return c.client.Del(ctx, Key(businessID, month)).Err()
}

func (c *Cache) set(ctx context.Context, key string, a *attendance.Assessment) error {
	raw, err := Encode(a)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

func (c *Cache) observe(hit bool) {
	if c.observer != nil {
		c.observer.ObserveCacheLookup(hit)
	}
}

// Encode renders an assessment for storage in Redis.
func Encode(a *attendance.Assessment) ([]byte, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode assessment: %w", err)
	}
	return raw, nil
}

// Decode parses a cached assessment. Entries written by an older engine
// version are treated as undecodable.
func Decode(raw []byte) (*attendance.Assessment, error) {
	var a attendance.Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	if a.CalculationVersion != attendance.CalculationVersion {
		return nil, fmt.Errorf("decode assessment: version %q, want %q", a.CalculationVersion, attendance.CalculationVersion)
	}
	return &a, nil
}
