// Package notifications stores in-app notifications and pushes them to
// connected clients over the realtime hub.
package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/realtime"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize for notification listings
	DefaultPageSize = 20

	// MaxPageSize bounds caller-supplied page sizes
	MaxPageSize = 100
)

// Pusher delivers a message to a user's live connections. Satisfied by
// realtime.Hub; nil disables pushes (notifications are still stored).
type Pusher interface {
	SendToUser(userID string, message *realtime.Message)
}

// Service owns notification storage and delivery
type Service struct {
	pusher Pusher
}

// NewService creates a notification service. pusher may be nil.
func NewService(pusher Pusher) *Service {
	return &Service{pusher: pusher}
}

// Notify stores a notification and pushes it to the user's live
// connections. Storage failure is returned; push failure is not (the
// client catches up from the stored list).
func (s *Service) Notify(ctx context.Context, userID string, nType models.NotificationType, title, body string, data map[string]interface{}) (*models.Notification, error) {
	notification := &models.Notification{
		UserID: userID,
		Type:   nType,
		Title:  title,
		Body:   body,
		Data:   data,
	}

	if err := database.DB.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	s.push(ctx, notification)
	return notification, nil
}

func (s *Service) push(ctx context.Context, n *models.Notification) {
	if s.pusher == nil {
		return
	}

	s.pusher.SendToUser(n.UserID, realtime.NewMessage(realtime.MessageTypeNotification, realtime.NotificationPayload{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      n.Body,
		Data:      n.Data,
		IsRead:    false,
		CreatedAt: n.CreatedAt.UnixMilli(),
	}))

	unread, err := s.UnreadCount(ctx, n.UserID)
	if err != nil {
		logger.Log.Warn("Failed to count unread notifications",
			zap.String("user_id", n.UserID),
			zap.Error(err))
		return
	}
	s.pusher.SendToUser(n.UserID, realtime.NewMessage(realtime.MessageTypeNotificationCount, realtime.NotificationCountPayload{
		UnreadCount: int(unread),
		Timestamp:   time.Now().UnixMilli(),
	}))
}

// List returns a user's notifications, newest first
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	var list []models.Notification
	err := database.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// UnreadCount returns the number of unread notifications for a user
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := database.DB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification as read. Only the owner can mark it.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	now := time.Now()
	result := database.DB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", now)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Already read or not the owner's; both are fine to ignore on
		// the read path, but distinguish missing rows for the API.
		var exists int64
		database.DB.WithContext(ctx).
			Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", notificationID, userID).
			Count(&exists)
		if exists == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// MarkAllRead marks every unread notification for a user as read and
// returns how many were affected.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result := database.DB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now())
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}
