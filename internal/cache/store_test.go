package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "/tmp/uolink-cache-test.log")
	m.Run()
}

// newTestStore builds a store with no remote tier, which is also the
// production shape when Redis is not configured.
func newTestStore() *Store {
	return NewStore(nil)
}

// =============================================================================
// CACHE KEY GENERATION TESTS
// =============================================================================

func TestGenerateCacheKeyParameterOrderIndependence(t *testing.T) {
	// Maps iterate in random order, so exercise the same pairs repeatedly
	// to shake out any ordering dependence.
	params := map[string]string{
		"semester":   "3",
		"subject":    "Calculus",
		"university": "UO",
		"limit":      "20",
	}

	first := GenerateCacheKey("notes:list", params)
	for i := 0; i < 50; i++ {
		rebuilt := map[string]string{}
		for k, v := range params {
			rebuilt[k] = v
		}
		assert.Equal(t, first, GenerateCacheKey("notes:list", rebuilt))
	}
}

func TestGenerateCacheKeyFormat(t *testing.T) {
	testCases := []struct {
		name     string
		route    string
		params   map[string]string
		expected string
	}{
		{
			name:     "no params returns route only",
			route:    "leaderboard",
			params:   nil,
			expected: "leaderboard",
		},
		{
			name:     "empty params returns route only",
			route:    "leaderboard",
			params:   map[string]string{},
			expected: "leaderboard",
		},
		{
			name:     "single param",
			route:    "notes:recent",
			params:   map[string]string{"semester": "2"},
			expected: "notes:recent:semester=2",
		},
		{
			name:     "params sorted by name",
			route:    "notes:list",
			params:   map[string]string{"subject": "Physics", "limit": "20"},
			expected: "notes:list:limit=20&subject=Physics",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GenerateCacheKey(tc.route, tc.params))
		})
	}
}

func TestGenerateCacheKeyDistinguishesValues(t *testing.T) {
	a := GenerateCacheKey("notes:list", map[string]string{"semester": "1"})
	b := GenerateCacheKey("notes:list", map[string]string{"semester": "2"})
	assert.NotEqual(t, a, b)
}

// =============================================================================
// TTL AND EXPIRY TESTS
// =============================================================================

func TestSetGetWithinTTL(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	store.Set(ctx, "notes:list:limit=20", []byte(`{"count":3}`), time.Minute)

	val, ok := store.Get(ctx, "notes:list:limit=20")
	require.True(t, ok, "entry should be retrievable before its TTL elapses")
	assert.Equal(t, []byte(`{"count":3}`), val)
}

func TestGetMissAfterTTLElapses(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	store.Set(ctx, "short-lived", []byte("value"), 30*time.Millisecond)

	_, ok := store.Get(ctx, "short-lived")
	require.True(t, ok, "entry should be live immediately after Set")

	time.Sleep(60 * time.Millisecond)

	_, ok = store.Get(ctx, "short-lived")
	assert.False(t, ok, "entry should be a miss after its TTL elapses")
}

func TestExpiredEntryPurgedOnRead(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	store.Set(ctx, "stale", []byte("value"), 20*time.Millisecond)
	assert.Equal(t, 1, store.LocalCount())

	time.Sleep(50 * time.Millisecond)

	// The expired entry lingers until a read touches it.
	_, ok := store.Get(ctx, "stale")
	assert.False(t, ok)
	assert.Equal(t, 0, store.LocalCount(), "expired entry should be purged by the read")
}

func TestGetMissOnAbsentKey(t *testing.T) {
	store := newTestStore()

	_, ok := store.Get(context.Background(), "never-set")
	assert.False(t, ok)
}

func TestSetZeroTTLUsesDefault(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	store.Set(ctx, "defaulted", []byte("value"), 0)

	_, ok := store.Get(ctx, "defaulted")
	assert.True(t, ok, "zero TTL should fall back to the default, not expire immediately")
}

// =============================================================================
// PREFIX INVALIDATION TESTS
// =============================================================================

func TestClearByPrefixRemovesOnlyMatchingEntries(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	store.Set(ctx, "notes:list:limit=20", []byte("a"), time.Minute)
	store.Set(ctx, "notes:recent:semester=1", []byte("b"), time.Minute)
	store.Set(ctx, "leaderboard:limit=20", []byte("c"), time.Minute)

	removed := store.ClearByPrefix("notes")
	assert.Equal(t, 2, removed)

	_, ok := store.Get(ctx, "notes:list:limit=20")
	assert.False(t, ok, "prefixed entry should be cleared")
	_, ok = store.Get(ctx, "notes:recent:semester=1")
	assert.False(t, ok, "prefixed entry should be cleared")
	_, ok = store.Get(ctx, "leaderboard:limit=20")
	assert.True(t, ok, "entry outside the prefix should survive")
}

func TestClearByPrefixNoMatches(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	store.Set(ctx, "leaderboard:limit=20", []byte("c"), time.Minute)

	assert.Equal(t, 0, store.ClearByPrefix("notes"))
	_, ok := store.Get(ctx, "leaderboard:limit=20")
	assert.True(t, ok)
}

// =============================================================================
// JSON ROUND-TRIP TESTS
// =============================================================================

type cachedListing struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
}

func TestSetJSONGetJSON(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	stored := cachedListing{Count: 2, Names: []string{"Linear Algebra", "Statistics"}}
	store.SetJSON(ctx, "notes:filters", stored, time.Minute)

	var loaded cachedListing
	require.True(t, store.GetJSON(ctx, "notes:filters", &loaded))
	assert.Equal(t, stored, loaded)
}

func TestGetJSONDropsCorruptEntry(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	store.Set(ctx, "corrupt", []byte("{not json"), time.Minute)

	var loaded cachedListing
	assert.False(t, store.GetJSON(ctx, "corrupt", &loaded))

	// The corrupt entry should have been dropped, not left to fail again.
	_, ok := store.Get(ctx, "corrupt")
	assert.False(t, ok)
}

// =============================================================================
// READ-THROUGH TESTS
// =============================================================================

func TestRememberCachesLoaderResult(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	loads := 0
	load := func(ctx context.Context) (interface{}, error) {
		loads++
		return cachedListing{Count: loads}, nil
	}

	var first cachedListing
	require.NoError(t, store.Remember(ctx, "listing", time.Minute, &first, load))
	assert.Equal(t, 1, first.Count)

	var second cachedListing
	require.NoError(t, store.Remember(ctx, "listing", time.Minute, &second, load))
	assert.Equal(t, 1, second.Count, "second call should be served from cache")
	assert.Equal(t, 1, loads)
}

func TestRememberConcurrentCallersLoadOnce(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	var loads int64
	load := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt64(&loads, 1)
		time.Sleep(50 * time.Millisecond)
		return cachedListing{Count: 7}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var result cachedListing
			err := store.Remember(ctx, "flight", time.Minute, &result, load)
			assert.NoError(t, err)
			assert.Equal(t, 7, result.Count)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&loads), "concurrent callers should share one load")
}

func TestRememberPropagatesLoadError(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	load := func(ctx context.Context) (interface{}, error) {
		return nil, fmt.Errorf("database unavailable")
	}

	var result cachedListing
	err := store.Remember(ctx, "failing", time.Minute, &result, load)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database unavailable")

	// A failed load must not poison the cache.
	_, ok := store.Get(ctx, "failing")
	assert.False(t, ok)
}

// =============================================================================
// DELETE AND FLUSH TESTS
// =============================================================================

func TestDeleteRemovesEntry(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	store.Set(ctx, "doomed", []byte("value"), time.Minute)
	store.Delete(ctx, "doomed")

	_, ok := store.Get(ctx, "doomed")
	assert.False(t, ok)
}

func TestFlushDropsEverything(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	store.Set(ctx, "one", []byte("1"), time.Minute)
	store.Set(ctx, "two", []byte("2"), time.Minute)

	store.Flush(ctx)

	assert.Equal(t, 0, store.LocalCount())
}
