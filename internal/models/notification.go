package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType identifies what a notification is about
type NotificationType string

const (
	NotificationAuraChanged     NotificationType = "aura_changed"
	NotificationNoteVoted       NotificationType = "note_voted"
	NotificationNoteSaved       NotificationType = "note_saved"
	NotificationNoteRemoved     NotificationType = "note_removed"
	NotificationNoteRestored    NotificationType = "note_restored"
	NotificationReportResolved  NotificationType = "report_resolved"
	NotificationAccountVerified NotificationType = "account_verified"
)

// Notification is a stored in-app notification, also pushed over WebSocket
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index:idx_notifications_user_created" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Type  NotificationType `gorm:"not null" json:"type"`
	Title string           `gorm:"not null" json:"title"`
	Body  string           `gorm:"type:text" json:"body"`

	// Structured payload for the client (note id, points delta, ...)
	Data map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"data,omitempty"`

	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_notifications_user_created" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}

// IsRead reports whether the notification has been read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
