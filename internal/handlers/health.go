package handlers

import (
	"net/http"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/cache"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	apierrors "github.com/Aazib-Ai/UOLink-App-sub006/internal/errors"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/metrics"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/util"
	"github.com/gin-gonic/gin"
)

// Health reports service liveness and dependency status. The database
// is required; cache and search degrade gracefully, so they only flip
// their own field, never the overall status.
func (h *Handlers) Health(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}

	if err := database.Health(); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if redis := cache.GetRedisClient(); redis != nil {
		checks["redis"] = "ok"
	} else {
		checks["redis"] = "unavailable (local cache only)"
	}

	if h.search != nil {
		checks["search"] = "configured"
	} else {
		checks["search"] = "disabled"
	}

	c.JSON(status, gin.H{
		"status":    map[bool]string{true: "ok", false: "degraded"}[status == http.StatusOK],
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}

// CacheStats exposes query-cache and warming counters for debugging
func (h *Handlers) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"local_entries": cache.GetStore().LocalCount(),
		"metrics":       metrics.GetManager().GetAllMetrics(),
	})
}

// FlushCache clears the query cache. With a prefix only matching
// in-process entries go; without one both tiers are dropped.
func (h *Handlers) FlushCache(c *gin.Context) {
	if prefix := c.Query("prefix"); prefix != "" {
		cleared := cache.GetStore().ClearByPrefix(prefix)
		c.JSON(http.StatusOK, gin.H{"cleared": cleared, "prefix": prefix})
		return
	}
	cache.GetStore().Flush(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "cache flushed"})
}

// WarmCache runs one warming pass immediately instead of waiting for
// the scheduler's next tick
func (h *Handlers) WarmCache(c *gin.Context) {
	if h.warmer == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("cache warming"))
		return
	}
	h.warmer.WarmPass(c.Request.Context(), "manual")
	c.JSON(http.StatusOK, gin.H{"message": "warming pass completed"})
}

// Alerts lists active operational alerts with summary counts
func (h *Handlers) Alerts(c *gin.Context) {
	if h.alerts == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled": true,
		"alerts":  h.alerts.Active(),
		"stats":   h.alerts.Stats(),
	})
}

// ResolveAlert marks an alert as handled
func (h *Handlers) ResolveAlert(c *gin.Context) {
	if h.alerts == nil {
		util.RespondNotFound(c, "alert")
		return
	}
	if err := h.alerts.Resolve(c.Param("id")); err != nil {
		util.RespondNotFound(c, "alert")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "alert resolved"})
}

// RealtimeStats exposes WebSocket hub counters
func (h *Handlers) RealtimeStats(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled":      true,
		"websocket":    h.hub.Snapshot(),
		"online_users": h.hub.OnlineUserCount(),
	})
}
