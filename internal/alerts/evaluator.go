package alerts

import (
	"fmt"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/metrics"
)

// Evaluator periodically checks alert rules against the live metrics
// snapshots.
type Evaluator struct {
	manager *Manager
}

// NewEvaluator creates an evaluator bound to a manager.
func NewEvaluator(manager *Manager) *Evaluator {
	return &Evaluator{manager: manager}
}

// EvaluateRules runs one pass over all enabled rules.
func (e *Evaluator) EvaluateRules() {
	mgr := metrics.GetManager()
	search := mgr.GetSearchStats()
	warming := mgr.GetWarmingStats()
	cacheHitRate, cacheHits, cacheMisses := metrics.CacheHitRate()

	for _, rule := range e.manager.Rules() {
		if !rule.Enabled {
			continue
		}
		if rule.LastTriggered != nil && time.Since(*rule.LastTriggered) < rule.Cooldown {
			continue
		}

		triggered, details := e.evaluate(rule, search, warming, cacheHitRate, cacheHits, cacheMisses)
		if !triggered {
			continue
		}

		e.manager.Trigger(
			rule.Type,
			rule.Level,
			fmt.Sprintf("[%s] %s", rule.Name, rule.Condition),
			details,
			rule.ID,
		)
		now := time.Now()
		rule.LastTriggered = &now
	}
}

func (e *Evaluator) evaluate(
	rule *Rule,
	search, warming map[string]interface{},
	cacheHitRate float64, cacheHits, cacheMisses int64,
) (bool, map[string]interface{}) {
	details := make(map[string]interface{})

	switch rule.Type {
	case RuleHighSearchErrorRate:
		errorRate, ok := search["error_rate"].(float64)
		if ok && errorRate >= rule.Threshold {
			details["current_error_rate"] = errorRate
			details["threshold"] = rule.Threshold
			details["error_count"] = search["error_count"]
			return true, details
		}

	case RuleSlowSearchQueries:
		avgTime, ok := search["avg_query_time_ms"].(float64)
		if ok && avgTime >= rule.Threshold {
			details["avg_query_time_ms"] = avgTime
			details["threshold"] = rule.Threshold
			details["p95_query_time_ms"] = search["p95_query_time_ms"]
			details["p99_query_time_ms"] = search["p99_query_time_ms"]
			return true, details
		}

	case RuleLowCacheHitRate:
		// The query cache only says anything once it has seen traffic.
		if cacheHits+cacheMisses < 100 {
			return false, details
		}
		if cacheHitRate <= rule.Threshold {
			details["current_cache_hit_rate"] = cacheHitRate
			details["threshold"] = rule.Threshold
			details["cache_hits"] = cacheHits
			details["cache_misses"] = cacheMisses
			return true, details
		}

	case RuleWarmingFailures:
		failureRate, ok := warming["failure_rate"].(float64)
		if ok && failureRate >= rule.Threshold {
			details["current_failure_rate"] = failureRate
			details["threshold"] = rule.Threshold
			details["failure_count"] = warming["failure_count"]
			details["operation_count"] = warming["operation_count"]
			return true, details
		}
	}

	return false, details
}

// InitializeDefaultRules registers the stock rule set.
func (e *Evaluator) InitializeDefaultRules() {
	rules := []*Rule{
		{
			Name:      "High Search Error Rate",
			Type:      RuleHighSearchErrorRate,
			Enabled:   true,
			Level:     LevelCritical,
			Condition: "Search error rate > 5%",
			Threshold: 5.0,
			Cooldown:  5 * time.Minute,
		},
		{
			Name:      "Slow Search Queries",
			Type:      RuleSlowSearchQueries,
			Enabled:   true,
			Level:     LevelWarning,
			Condition: "Average search query time > 100ms",
			Threshold: 100.0,
			Cooldown:  5 * time.Minute,
		},
		{
			Name:      "Low Query Cache Hit Rate",
			Type:      RuleLowCacheHitRate,
			Enabled:   true,
			Level:     LevelInfo,
			Condition: "Query cache hit rate < 50%",
			Threshold: 50.0,
			Cooldown:  10 * time.Minute,
		},
		{
			Name:      "Cache Warming Failures",
			Type:      RuleWarmingFailures,
			Enabled:   true,
			Level:     LevelWarning,
			Condition: "Warming failure rate > 25%",
			Threshold: 25.0,
			Cooldown:  10 * time.Minute,
		},
	}

	for _, rule := range rules {
		e.manager.AddRule(rule)
	}
}

// StartEvaluationLoop evaluates rules on a fixed interval until the
// returned channel is closed.
func (e *Evaluator) StartEvaluationLoop(interval time.Duration) chan struct{} {
	stop := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.EvaluateRules()
			case <-stop:
				return
			}
		}
	}()

	return stop
}
