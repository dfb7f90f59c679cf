package search

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/cache"
)

// DefaultSearchCacheTTL keeps search results hot for a short window.
// Ranking already decays by recency, so a couple of minutes of
// staleness is invisible to users.
const DefaultSearchCacheTTL = 2 * time.Minute

// CachedClient wraps Client with result caching through the shared
// cache store. A nil store degrades to direct search.
type CachedClient struct {
	client *Client
	store  *cache.Store
	ttl    time.Duration
}

// NewCachedClient creates a caching wrapper around the search client
func NewCachedClient(client *Client) *CachedClient {
	return &CachedClient{
		client: client,
		store:  cache.GetStore(),
		ttl:    DefaultSearchCacheTTL,
	}
}

func notesCacheKey(params SearchNotesParams) string {
	semester := ""
	if params.Semester != nil {
		semester = strconv.Itoa(*params.Semester)
	}
	return cache.GenerateCacheKey("search:notes", map[string]string{
		"q":          params.Query,
		"subject":    params.Subject,
		"course":     params.CourseCode,
		"university": params.University,
		"semester":   semester,
		"tags":       strings.Join(params.Tags, ","),
		"limit":      strconv.Itoa(params.Limit),
		"offset":     strconv.Itoa(params.Offset),
	})
}

// SearchNotes searches notes, serving repeated queries from cache
func (c *CachedClient) SearchNotes(ctx context.Context, params SearchNotesParams) (*SearchNotesResult, error) {
	if c.store == nil {
		return c.client.SearchNotes(ctx, params)
	}

	key := notesCacheKey(params)
	var cached SearchNotesResult
	if c.store.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := c.client.SearchNotes(ctx, params)
	if err != nil {
		return result, err
	}
	if result != nil {
		c.store.SetJSON(ctx, key, result, c.ttl)
	}
	return result, nil
}

// SearchUsers searches users, serving repeated queries from cache
func (c *CachedClient) SearchUsers(ctx context.Context, query string, limit, offset int) (*SearchUsersResult, error) {
	if c.store == nil {
		return c.client.SearchUsers(ctx, query, limit, offset)
	}

	key := cache.GenerateCacheKey("search:users", map[string]string{
		"q":      query,
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(offset),
	})
	var cached SearchUsersResult
	if c.store.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := c.client.SearchUsers(ctx, query, limit, offset)
	if err != nil {
		return result, err
	}
	if result != nil {
		c.store.SetJSON(ctx, key, result, c.ttl)
	}
	return result, nil
}

// SuggestUsers proxies completion suggestions without caching; the
// suggester is cheap and prefixes vary per keystroke.
func (c *CachedClient) SuggestUsers(ctx context.Context, query string, limit int) ([]string, error) {
	return c.client.SuggestUsers(ctx, query, limit)
}

// InvalidateNoteCache drops cached note searches. Called after note
// uploads, removals, and vote changes that should surface quickly.
func (c *CachedClient) InvalidateNoteCache() {
	if c.store != nil {
		c.store.ClearByPrefix("search:notes:")
	}
}

// InvalidateUserCache drops cached user searches
func (c *CachedClient) InvalidateUserCache() {
	if c.store != nil {
		c.store.ClearByPrefix("search:users:")
	}
}
