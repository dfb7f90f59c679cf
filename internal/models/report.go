package models

import (
	"time"

	"gorm.io/gorm"
)

// ReportReason represents the reason for a report
type ReportReason string

const (
	ReportReasonSpam          ReportReason = "spam"
	ReportReasonHarassment    ReportReason = "harassment"
	ReportReasonCopyright     ReportReason = "copyright"
	ReportReasonInappropriate ReportReason = "inappropriate"
	ReportReasonMisleading    ReportReason = "misleading" // wrong course, wrong semester, not actual notes
	ReportReasonOther         ReportReason = "other"
)

// ReportStatus represents the status of a report
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusReviewing ReportStatus = "reviewing"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// ReportTargetType represents what type of content is being reported
type ReportTargetType string

const (
	ReportTargetNote ReportTargetType = "note"
	ReportTargetUser ReportTargetType = "user"
)

// Report represents a user report for moderation
type Report struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ReporterID string `gorm:"not null;index" json:"reporter_id"`
	Reporter   User   `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`

	// Target of the report
	TargetType   ReportTargetType `gorm:"not null" json:"target_type"`     // "note", "user"
	TargetID     string           `gorm:"not null;index" json:"target_id"` // ID of the note/user
	TargetUserID *string          `gorm:"index" json:"target_user_id"`     // Uploader of the note, for note reports

	// Report details
	Reason      ReportReason `gorm:"not null" json:"reason"`
	Description string       `gorm:"type:text" json:"description"` // Optional additional context
	Status      ReportStatus `gorm:"default:pending;index" json:"status"`

	// Moderation action
	ModeratorID *string `gorm:"index" json:"moderator_id"` // Moderator who reviewed
	Moderator   *User   `gorm:"foreignKey:ModeratorID" json:"moderator,omitempty"`
	ActionTaken string  `gorm:"type:text" json:"action_taken"` // "note_removed", "aura_penalty", "dismissed", etc.

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}
