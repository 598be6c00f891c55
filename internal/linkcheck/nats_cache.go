package linkcheck

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/guidesite/internal/config"
	siteerrors "git.home.luguber.info/inful/guidesite/internal/errors"
)

// NATSCache shares link verification results through a JetStream KV bucket
// and publishes broken-link events on the configured subject.
type NATSCache struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	kv       jetstream.KeyValue
	cfg      *config.LinkCheckConfig
	subject  string
	kvBucket string
}

// NewNATSCache connects to NATS and initializes the KV bucket.
func NewNATSCache(cfg *config.LinkCheckConfig) (*NATSCache, error) {
	if cfg == nil || cfg.NATSURL == "" {
		return nil, fmt.Errorf("nats url is required")
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		// Transient infrastructure failure: callers may fall back to the
		// in-memory cache and retry NATS on a later run.
		return nil, siteerrors.WrapRetryable(err, siteerrors.CategoryNetwork, siteerrors.SeverityError, "connect to NATS")
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	cache := &NATSCache{
		conn:     conn,
		js:       js,
		cfg:      cfg,
		subject:  cfg.Subject,
		kvBucket: cfg.KVBucket,
	}

	if err := cache.initKVBucket(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize KV bucket: %w", err)
	}

	slog.Info("NATS link cache initialized",
		slog.String("url", cfg.NATSURL),
		slog.String("subject", cfg.Subject),
		slog.String("kv_bucket", cfg.KVBucket))

	return cache, nil
}

// initKVBucket creates or gets the KV bucket for the link cache.
func (c *NATSCache) initKVBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := c.js.KeyValue(ctx, c.kvBucket)
	if err == nil {
		c.kv = kv
		return nil
	}

	kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      c.kvBucket,
		Description: "External link verification cache",
		MaxBytes:    100 * 1024 * 1024, // 100MB max
		History:     1,                 // Keep only latest value
	})
	if err != nil {
		return fmt.Errorf("create KV bucket: %w", err)
	}

	c.kv = kv
	slog.Info("Created KV bucket for link cache", slog.String("bucket", c.kvBucket))
	return nil
}

// cacheKey derives the KV key for a URL. URLs contain characters outside
// the JetStream key charset (':', '/', '?'), so the key is the sha256 hex
// digest of the URL instead.
func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get retrieves a cached verification result, or nil when not cached.
func (c *NATSCache) Get(ctx context.Context, url string) (*CacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	entry, err := c.kv.Get(ctx, cacheKey(url))
	if err != nil {
		if err == jetstream.ErrKeyNotFound {
			return nil, nil // Not cached
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}

	var cached CacheEntry
	if err := json.Unmarshal(entry.Value(), &cached); err != nil {
		return nil, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	return &cached, nil
}

// Set stores a verification result.
func (c *NATSCache) Set(ctx context.Context, entry *CacheEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	entry.LastChecked = time.Now()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	// NATS KV has no per-key TTL; staleness is checked on read via Valid.
	if _, err := c.kv.Put(ctx, cacheKey(entry.URL), data); err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// Valid reports whether a cache entry is still within its TTL.
func (c *NATSCache) Valid(entry *CacheEntry) bool {
	if entry == nil {
		return false
	}

	var ttl time.Duration
	if entry.IsValid {
		ttl, _ = time.ParseDuration(c.cfg.CacheTTL)
	} else {
		ttl, _ = time.ParseDuration(c.cfg.CacheTTLFailures)
	}
	return time.Since(entry.LastChecked) < ttl
}

// PublishBroken publishes a broken link event on the configured subject.
func (c *NATSCache) PublishBroken(ctx context.Context, event *BrokenLinkEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := c.js.Publish(ctx, c.subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.Debug("Published broken link event",
		slog.String("url", event.URL),
		slog.String("doc", event.Doc))
	return nil
}

// Close closes the NATS connection.
func (c *NATSCache) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
