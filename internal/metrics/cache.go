package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query cache metrics exported to Prometheus. The query cache fronts the
// note listing, leaderboard, and filter queries, so its hit rate is the
// main signal watched by the alert evaluator.
var (
	QueryCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_hits_total",
			Help: "Total number of query cache hits by tier",
		},
		[]string{"tier"},
	)

	QueryCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_cache_misses_total",
			Help: "Total number of query cache misses",
		},
	)

	QueryCacheFallbackWritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_cache_fallback_writes_total",
			Help: "Total number of writes that fell back to the in-process tier",
		},
	)

	QueryCacheClearedEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_cache_cleared_entries_total",
			Help: "Total number of entries removed by prefix invalidation",
		},
	)
)

// In-process counters mirroring the Prometheus series, readable by the
// ops endpoints and the alert evaluator without scraping.
var (
	cacheHits           int64
	cacheMisses         int64
	cacheFallbackWrites int64
)

// RecordCacheHit records a query cache hit in the given tier ("redis" or
// "memory").
func RecordCacheHit(tier string) {
	atomic.AddInt64(&cacheHits, 1)
	QueryCacheHitsTotal.WithLabelValues(tier).Inc()
}

// RecordCacheMiss records a query cache miss.
func RecordCacheMiss() {
	atomic.AddInt64(&cacheMisses, 1)
	QueryCacheMissesTotal.Inc()
}

// RecordCacheFallbackWrite records a write that landed in the in-process
// tier because the remote store was unavailable.
func RecordCacheFallbackWrite() {
	atomic.AddInt64(&cacheFallbackWrites, 1)
	QueryCacheFallbackWritesTotal.Inc()
}

// RecordCacheClear records entries removed by a prefix invalidation.
func RecordCacheClear(removed int) {
	if removed > 0 {
		QueryCacheClearedEntriesTotal.Add(float64(removed))
	}
}

// CacheHitRate returns the lifetime hit rate as a percentage, and the raw
// hit/miss counts it was computed from.
func CacheHitRate() (rate float64, hits, misses int64) {
	hits = atomic.LoadInt64(&cacheHits)
	misses = atomic.LoadInt64(&cacheMisses)
	total := hits + misses
	if total > 0 {
		rate = float64(hits) / float64(total) * 100
	}
	return rate, hits, misses
}

// CacheFallbackWrites returns how many writes fell back to memory.
func CacheFallbackWrites() int64 {
	return atomic.LoadInt64(&cacheFallbackWrites)
}

// ResetCacheCounters clears the in-process cache counters. Tests only.
func ResetCacheCounters() {
	atomic.StoreInt64(&cacheHits, 0)
	atomic.StoreInt64(&cacheMisses, 0)
	atomic.StoreInt64(&cacheFallbackWrites, 0)
}
