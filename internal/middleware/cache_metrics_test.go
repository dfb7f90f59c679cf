package middleware

import (
	"testing"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCacheCounters(t *testing.T) {
	m := metrics.Initialize()

	t.Run("hits and misses count per cache name", func(t *testing.T) {
		m.CacheHitsTotal.Reset()
		m.CacheMissesTotal.Reset()

		RecordCacheHit("query_cache")
		RecordCacheHit("query_cache")
		RecordCacheHit("response_cache")
		RecordCacheMiss("query_cache")

		assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("query_cache")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("response_cache")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("query_cache")))
	})

	t.Run("operations count per verb", func(t *testing.T) {
		m.CacheOperationsTotal.Reset()

		RecordCacheOperation("GET", "query_cache", 10*time.Millisecond)
		RecordCacheOperation("GET", "query_cache", 20*time.Millisecond)
		RecordCacheOperation("SET", "query_cache", 15*time.Millisecond)

		assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheOperationsTotal.WithLabelValues("GET", "query_cache")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheOperationsTotal.WithLabelValues("SET", "query_cache")))
	})

	t.Run("operation durations land in the histogram", func(t *testing.T) {
		m.CacheOperationDuration.Reset()

		RecordCacheOperation("GET", "query_cache", 50*time.Millisecond)
		RecordCacheOperation("GET", "query_cache", 100*time.Millisecond)

		count := testutil.CollectAndCount(m.CacheOperationDuration)
		assert.Equal(t, 1, count, "one labeled series expected")
	})
}
