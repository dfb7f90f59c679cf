package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlexibleTime handles both Unix millisecond timestamps and RFC3339 strings
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implements custom unmarshaling for timestamps
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		ft.Time = time.UnixMilli(ms)
		return nil
	}

	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("timestamp must be Unix milliseconds (integer) or RFC3339 string")
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

// MarshalJSON always outputs RFC3339
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.Time)
}

// Message types pushed to clients
const (
	MessageTypeSystem = "system"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
	MessageTypeError  = "error"
	MessageTypeAuth   = "auth"

	// In-app notifications
	MessageTypeNotification      = "notification"
	MessageTypeNotificationRead  = "notification_read"
	MessageTypeNotificationCount = "notification_count"

	// Aura changes for the signed-in user
	MessageTypeAuraUpdate = "aura_update"

	// Live counters on a note page (votes, saves, downloads)
	MessageTypeNoteStatsUpdate = "note_stats_update"

	// Moderation outcome on one of the user's notes
	MessageTypeNoteModerated = "note_moderated"
)

// Message is the envelope for everything sent over a connection
type Message struct {
	// Type identifies the message type for routing
	Type string `json:"type"`

	// Payload contains the message-specific data
	Payload interface{} `json:"payload,omitempty"`

	// ID is a unique message identifier for acknowledgment
	ID string `json:"id,omitempty"`

	// ReplyTo references the original message ID for responses
	ReplyTo string `json:"reply_to,omitempty"`

	// Timestamp when the message was created (accepts Unix ms or RFC3339)
	Timestamp FlexibleTime `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(code string, message string) *Message {
	return &Message{
		Type: MessageTypeError,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// ParsePayload unmarshals the payload into a specific type
func (m *Message) ParsePayload(target interface{}) error {
	if m.Payload == nil {
		return nil
	}

	// Re-marshal and unmarshal to properly type the payload
	data, err := json.Marshal(m.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// ErrorPayload is the payload of an error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PingPayload carries the client clock for latency measurement
type PingPayload struct {
	ClientTime int64 `json:"client_time"`
}

// PongPayload answers a ping
type PongPayload struct {
	ClientTime int64 `json:"client_time"`
	ServerTime int64 `json:"server_time"`
	Latency    int64 `json:"latency_ms"`
}

// AuthPayload acknowledges connection-time authentication
type AuthPayload struct {
	UserID string `json:"user_id,omitempty"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SystemPayload carries server lifecycle events
type SystemPayload struct {
	Event   string                 `json:"event"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// NotificationPayload mirrors a stored notification
type NotificationPayload struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"notification_type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt int64                  `json:"created_at"`
}

// NotificationCountPayload pushes the unread badge count
type NotificationCountPayload struct {
	UnreadCount int   `json:"unread_count"`
	Timestamp   int64 `json:"timestamp"`
}

// AuraUpdatePayload tells a user their aura changed
type AuraUpdatePayload struct {
	UserID     string `json:"user_id"`
	Delta      int    `json:"delta"`
	NewTotal   int    `json:"new_total"`
	Reason     string `json:"reason"`
	SourceNote string `json:"source_note_id,omitempty"`
}

// NoteStatsPayload carries live counters for a note
type NoteStatsPayload struct {
	NoteID        string `json:"note_id"`
	VoteScore     int    `json:"vote_score"`
	SaveCount     int    `json:"save_count"`
	DownloadCount int    `json:"download_count"`
}

// NoteModeratedPayload tells an uploader a moderation decision landed
type NoteModeratedPayload struct {
	NoteID  string `json:"note_id"`
	Title   string `json:"title"`
	Outcome string `json:"outcome"` // "removed", "restored", "approved"
	Reason  string `json:"reason,omitempty"`
}
