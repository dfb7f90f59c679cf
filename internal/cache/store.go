package cache

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is used when a caller passes a zero or negative TTL.
const DefaultTTL = 5 * time.Minute

// Store is the two-tier query cache. Reads try Redis first and fall back
// to the in-process store; writes that fail against Redis land in the
// in-process store so a write is never lost within the process lifetime.
// Every failure is swallowed and surfaces as a miss. Callers must treat
// the cache as an optimization, never as a source of truth.
type Store struct {
	remote *RedisClient // nil when Redis is not configured
	local  *gocache.Cache
	group  singleflight.Group
}

// Singleton instance (package-level)
var globalStore *Store

// NewStore creates the cache façade. The local store runs without a
// cleanup janitor: expired entries are hidden from reads and purged
// opportunistically on the next lookup, not by a background sweep.
func NewStore(remote *RedisClient) *Store {
	s := &Store{
		remote: remote,
		local:  gocache.New(DefaultTTL, 0),
	}
	globalStore = s
	return s
}

// GetStore returns the global cache store instance
func GetStore() *Store {
	return globalStore
}

// GenerateCacheKey builds a deterministic key from a route and its query
// parameters. Parameters are sorted by name, so identical requests in any
// parameter order map to the same key.
func GenerateCacheKey(route string, params map[string]string) string {
	if len(params) == 0 {
		return route
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(route)
	b.WriteByte(':')
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}

// Get returns the cached bytes for key, or (nil, false) when the key is
// absent, expired, or the remote store errored. Remote errors are logged
// at debug level and treated as misses.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if s.remote != nil {
		val, err := s.remote.Get(ctx, key)
		if err == nil {
			metrics.RecordCacheHit("redis")
			return []byte(val), true
		}
		if !IsNil(err) {
			logger.Log.Debug("Cache remote read failed, treating as miss",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	if val, found := s.local.Get(key); found {
		if raw, ok := val.([]byte); ok {
			metrics.RecordCacheHit("memory")
			return raw, true
		}
	}

	// Reclaim a possibly expired entry now, since no janitor runs.
	s.local.Delete(key)
	metrics.RecordCacheMiss()
	return nil, false
}

// GetJSON unmarshals the cached value for key into dest. Returns false on
// a miss or when the stored bytes fail to decode.
func (s *Store) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Log.Warn("Cache entry failed to decode, dropping it",
			zap.String("key", key),
			zap.Error(err),
		)
		s.Delete(ctx, key)
		return false
	}
	return true
}

// Set stores value under key with an absolute expiry of now+ttl. When the
// remote write fails the value falls back silently to the in-process
// store, so within this process the write is never lost.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if s.remote != nil {
		err := s.remote.SetEx(ctx, key, value, ttl)
		if err == nil {
			return
		}
		logger.Log.Debug("Cache remote write failed, falling back to memory",
			zap.String("key", key),
			zap.Error(err),
		)
		metrics.RecordCacheFallbackWrite()
	}

	s.local.Set(key, value, ttl)
}

// SetJSON marshals value and stores it under key. Marshal failures are
// swallowed; the entry is simply not cached.
func (s *Store) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Log.Warn("Cache value failed to encode, skipping store",
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}
	s.Set(ctx, key, raw, ttl)
}

// Delete removes a single key from both tiers, best effort.
func (s *Store) Delete(ctx context.Context, key string) {
	if s.remote != nil {
		if err := s.remote.Del(ctx, key); err != nil {
			logger.Log.Debug("Cache remote delete failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	s.local.Delete(key)
}

// ClearByPrefix invalidates every in-process entry whose key starts with
// prefix and returns how many were removed. The remote store is left
// untouched: a Redis prefix scan is deliberately not performed, so remote
// entries age out via their TTL instead. Invalidation is therefore only
// guaranteed against the in-process store.
func (s *Store) ClearByPrefix(prefix string) int {
	removed := 0
	for key := range s.local.Items() {
		if strings.HasPrefix(key, prefix) {
			s.local.Delete(key)
			removed++
		}
	}
	metrics.RecordCacheClear(removed)
	return removed
}

// Flush drops every entry in both tiers. Used by tests and the cache CLI.
func (s *Store) Flush(ctx context.Context) {
	if s.remote != nil {
		if err := s.remote.FlushDB(ctx); err != nil {
			logger.Log.Warn("Cache remote flush failed", zap.Error(err))
		}
	}
	s.local.Flush()
}

// LocalCount returns the number of live entries in the in-process tier.
func (s *Store) LocalCount() int {
	return s.local.ItemCount()
}

// Remember implements the read-through path used by query handlers and the
// warming scheduler. On a miss it runs load once per key across concurrent
// callers, caches the marshaled result, and decodes it into dest. Cache
// failures degrade to calling load; a load error is the only error returned.
func (s *Store) Remember(ctx context.Context, key string, ttl time.Duration, dest interface{}, load func(ctx context.Context) (interface{}, error)) error {
	if s.GetJSON(ctx, key, dest) {
		return nil
	}

	raw, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Another caller may have populated the key while we waited.
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}

		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		s.Set(ctx, key, encoded, ttl)
		return encoded, nil
	})
	if err != nil {
		return err
	}

	return json.Unmarshal(raw.([]byte), dest)
}
