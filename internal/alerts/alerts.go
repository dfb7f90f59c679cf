// Package alerts keeps an in-memory record of operational alerts
// raised from the metrics the backend already tracks: search latency
// and errors, query cache hit rate, and cache warming failures.
// Alerts surface on the moderation ops endpoints; there is no paging
// integration.
package alerts

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Level is the severity of an alert
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// RuleType identifies which metric a rule watches
type RuleType string

const (
	RuleHighSearchErrorRate RuleType = "high_search_error_rate"
	RuleSlowSearchQueries   RuleType = "slow_search_queries"
	RuleLowCacheHitRate     RuleType = "low_cache_hit_rate"
	RuleWarmingFailures     RuleType = "warming_failures"
)

// Alert is a triggered rule occurrence
type Alert struct {
	ID         string                 `json:"id"`
	Type       RuleType               `json:"type"`
	Level      Level                  `json:"level"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details"`
	Timestamp  time.Time              `json:"timestamp"`
	ResolvedAt *time.Time             `json:"resolved_at,omitempty"`
	IsResolved bool                   `json:"is_resolved"`
	RuleID     string                 `json:"rule_id"`
}

// Rule is a threshold condition checked on every evaluation pass.
// Cooldown suppresses re-triggering while a known problem persists.
type Rule struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Type          RuleType      `json:"type"`
	Enabled       bool          `json:"enabled"`
	Level         Level         `json:"level"`
	Condition     string        `json:"condition"`
	Threshold     float64       `json:"threshold"`
	Cooldown      time.Duration `json:"cooldown"`
	LastTriggered *time.Time    `json:"last_triggered,omitempty"`
}

// Manager stores alerts and rules. Alert history is capped; the oldest
// resolved alerts are dropped first.
type Manager struct {
	mu        sync.RWMutex
	alerts    map[string]*Alert
	rules     map[string]*Rule
	maxAlerts int
}

// NewManager creates an empty alert manager.
func NewManager() *Manager {
	return &Manager{
		alerts:    make(map[string]*Alert),
		rules:     make(map[string]*Rule),
		maxAlerts: 500,
	}
}

// Trigger records a new alert.
func (m *Manager) Trigger(ruleType RuleType, level Level, message string, details map[string]interface{}, ruleID string) *Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert := &Alert{
		ID:        fmt.Sprintf("alert_%d_%s", time.Now().UnixNano(), ruleType),
		Type:      ruleType,
		Level:     level,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
		RuleID:    ruleID,
	}
	m.alerts[alert.ID] = alert

	if len(m.alerts) > m.maxAlerts {
		m.prune()
	}
	return alert
}

// Resolve marks an alert resolved.
func (m *Manager) Resolve(alertID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[alertID]
	if !ok {
		return fmt.Errorf("alert not found: %s", alertID)
	}
	now := time.Now()
	alert.ResolvedAt = &now
	alert.IsResolved = true
	return nil
}

// Active returns unresolved alerts, newest first.
func (m *Manager) Active() []*Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active []*Alert
	for _, alert := range m.alerts {
		if !alert.IsResolved {
			active = append(active, alert)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].Timestamp.After(active[j].Timestamp)
	})
	return active
}

// AddRule registers a rule and assigns it an ID.
func (m *Manager) AddRule(rule *Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule.ID = fmt.Sprintf("rule_%d_%s", time.Now().UnixNano(), rule.Type)
	m.rules[rule.ID] = rule
}

// Rules returns all registered rules.
func (m *Manager) Rules() []*Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rules := make([]*Rule, 0, len(m.rules))
	for _, rule := range m.rules {
		rules = append(rules, rule)
	}
	return rules
}

// Stats summarizes alert counts by severity.
func (m *Manager) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active, critical, warning, info := 0, 0, 0, 0
	for _, alert := range m.alerts {
		if alert.IsResolved {
			continue
		}
		active++
		switch alert.Level {
		case LevelCritical:
			critical++
		case LevelWarning:
			warning++
		case LevelInfo:
			info++
		}
	}

	return map[string]interface{}{
		"total_alerts":   len(m.alerts),
		"active_alerts":  active,
		"critical_count": critical,
		"warning_count":  warning,
		"info_count":     info,
		"total_rules":    len(m.rules),
		"timestamp":      time.Now().Unix(),
	}
}

// prune drops the oldest alerts over the cap, resolved ones first.
// Caller holds the write lock.
func (m *Manager) prune() {
	alerts := make([]*Alert, 0, len(m.alerts))
	for _, alert := range m.alerts {
		alerts = append(alerts, alert)
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].IsResolved != alerts[j].IsResolved {
			return alerts[i].IsResolved
		}
		return alerts[i].Timestamp.Before(alerts[j].Timestamp)
	})

	toRemove := len(m.alerts) - m.maxAlerts
	for i := 0; i < toRemove && i < len(alerts); i++ {
		delete(m.alerts, alerts[i].ID)
	}
}
