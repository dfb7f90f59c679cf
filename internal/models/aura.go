package models

import (
	"time"

	"gorm.io/gorm"
)

// AuraEventType identifies why aura points were granted or deducted
type AuraEventType string

const (
	AuraEventUpload           AuraEventType = "upload"
	AuraEventUpvoteReceived   AuraEventType = "upvote_received"
	AuraEventDownvoteReceived AuraEventType = "downvote_received"
	AuraEventSaveReceived     AuraEventType = "save_received"
	AuraEventReportActioned   AuraEventType = "report_actioned"
	AuraEventModeratorAdjust  AuraEventType = "moderator_adjust"
)

// Aura point values per event type. Moderator adjustments carry their own amount.
const (
	AuraPointsUpload           = 10
	AuraPointsUpvoteReceived   = 5
	AuraPointsDownvoteReceived = -2
	AuraPointsSaveReceived     = 3
	AuraPointsReportActioned   = -15
)

// AuraEvent is one row in the append-only reputation ledger.
// users.aura_points is updated in the same transaction that inserts the event.
type AuraEvent struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index:idx_aura_events_user_created" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	// Who triggered the event, when it wasn't the user themselves
	ActorID *string `gorm:"index" json:"actor_id,omitempty"`
	Actor   *User   `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	// The note involved, when the event is note-scoped
	NoteID *string `gorm:"index" json:"note_id,omitempty"`
	Note   *Note   `gorm:"foreignKey:NoteID" json:"-"`

	Type   AuraEventType `gorm:"not null" json:"type"`
	Points int           `gorm:"not null" json:"points"`
	Reason string        `gorm:"type:text" json:"reason,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_aura_events_user_created" json:"created_at"`
}

// TableName for the aura ledger
func (AuraEvent) TableName() string {
	return "aura_events"
}

func (e *AuraEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = generateUUID()
	}
	return nil
}
