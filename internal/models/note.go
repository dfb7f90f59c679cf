package models

import (
	"time"

	"gorm.io/gorm"
)

// NoteStatus represents the moderation lifecycle of a note
type NoteStatus string

const (
	NoteStatusActive  NoteStatus = "active"
	NoteStatusPending NoteStatus = "pending" // flagged by the moderation engine, awaiting review
	NoteStatusRemoved NoteStatus = "removed"
)

// NoteFileExtensions maps allowed upload extensions to their content types
var NoteFileExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".md":   "text/markdown",
	".txt":  "text/plain",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Note represents an uploaded set of course notes
type Note struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// Listing metadata
	Title       string      `gorm:"not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Subject     string      `gorm:"index" json:"subject"`
	CourseCode  string      `gorm:"index" json:"course_code"`
	Semester    int         `gorm:"index" json:"semester"`
	University  string      `gorm:"index" json:"university"`
	Tags        StringArray `gorm:"type:text[]" json:"tags"`

	// Stored file (Cloudflare R2)
	FileKey     string `gorm:"not null" json:"-"`
	FileURL     string `gorm:"not null" json:"file_url"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`
	PageCount   int    `json:"page_count"`

	// Engagement counters (denormalized; votes and saves are the source of truth)
	DownloadCount int `gorm:"default:0" json:"download_count"`
	VoteScore     int `gorm:"default:0;index" json:"vote_score"`
	SaveCount     int `gorm:"default:0" json:"save_count"`

	// Moderation
	Status           NoteStatus  `gorm:"default:active;index" json:"status"`
	ModerationLabels StringArray `gorm:"type:text[]" json:"moderation_labels,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// NoteVote records one user's up/down vote on a note
type NoteVote struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	NoteID string `gorm:"not null;uniqueIndex:idx_note_votes_note_user" json:"note_id"`
	Note   Note   `gorm:"foreignKey:NoteID" json:"-"`
	UserID string `gorm:"not null;uniqueIndex:idx_note_votes_note_user" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	// +1 or -1
	Value int `gorm:"not null" json:"value"`

	// GORM fields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName ensures unique constraint: one vote per user per note
func (NoteVote) TableName() string {
	return "note_votes"
}

// SavedNote bookmarks a note on a user's profile
type SavedNote struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	NoteID string `gorm:"not null;uniqueIndex:idx_saved_notes_note_user" json:"note_id"`
	Note   Note   `gorm:"foreignKey:NoteID" json:"note,omitempty"`
	UserID string `gorm:"not null;uniqueIndex:idx_saved_notes_note_user" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	// GORM fields
	CreatedAt time.Time `json:"created_at"`
}

// TableName ensures unique constraint: one save per user per note
func (SavedNote) TableName() string {
	return "saved_notes"
}

// NoteDownload tracks individual downloads for per-note stats
type NoteDownload struct {
	ID     string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	NoteID string  `gorm:"not null;index" json:"note_id"`
	Note   Note    `gorm:"foreignKey:NoteID" json:"-"`
	UserID *string `gorm:"index" json:"user_id"` // Nullable for anonymous downloads

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hooks for GORM
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	if n.Status == "" {
		n.Status = NoteStatusActive
	}
	return nil
}

func (v *NoteVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = generateUUID()
	}
	return nil
}

func (s *SavedNote) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = generateUUID()
	}
	return nil
}

func (d *NoteDownload) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = generateUUID()
	}
	return nil
}
