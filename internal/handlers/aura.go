package handlers

import (
	"net/http"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/aura"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/middleware"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/util"
	"github.com/gin-gonic/gin"
)

// GetLeaderboard returns the aura leaderboard, optionally filtered to
// one university.
func (h *Handlers) GetLeaderboard(c *gin.Context) {
	limit := util.ParseInt(c.Query("limit"), aura.LeaderboardLimit)
	university := c.Query("university")

	start := time.Now()
	entries, err := h.aura.Leaderboard(c.Request.Context(), limit, university)
	if err != nil {
		util.RespondInternalError(c, "failed to load leaderboard")
		return
	}
	middleware.RecordLeaderboardQuery(time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": entries,
		"university":  university,
	})
}

// GetAuraHistory returns the caller's aura ledger, newest first
func (h *Handlers) GetAuraHistory(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseInt(c.Query("limit"), 20)
	offset := util.ParseInt(c.Query("offset"), 0)

	events, total, err := h.aura.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		util.RespondInternalError(c, "failed to load aura history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
	})
}
