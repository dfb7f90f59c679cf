package handlers

import (
	"errors"
	"net/http"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/notifications"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/util"
	"github.com/gin-gonic/gin"
)

// GetNotifications lists the caller's notifications, newest first
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseInt(c.Query("limit"), notifications.DefaultPageSize)
	offset := util.ParseInt(c.Query("offset"), 0)

	list, err := h.notifications.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		util.RespondInternalError(c, "failed to list notifications")
		return
	}

	unread, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		util.RespondInternalError(c, "failed to count notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": list,
		"unread_count":  unread,
	})
}

// MarkNotificationRead marks one notification as read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	err := h.notifications.MarkRead(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			util.RespondNotFound(c, "notification")
			return
		}
		util.RespondInternalError(c, "failed to mark notification read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked read"})
}

// MarkAllNotificationsRead clears the caller's unread badge
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	affected, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		util.RespondInternalError(c, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked_read": affected})
}
