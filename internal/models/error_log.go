package models

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"time"
)

// ClientError is an error reported by the web client. Repeated reports
// with the same fingerprint bump Occurrences instead of adding rows.
type ClientError struct {
	ID          string       `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID      *string      `gorm:"index" json:"user_id"` // nil for anonymous sessions
	Source      string       `json:"source"`               // network, ui, upload
	Severity    string       `gorm:"index" json:"severity"` // info, warning, error
	Message     string       `gorm:"type:text" json:"message"`
	StackTrace  string       `gorm:"type:text" json:"stack_trace"`
	PageURL     string       `json:"page_url"`
	UserAgent   string       `json:"user_agent"`
	Fingerprint string       `gorm:"index" json:"fingerprint"`
	Context     ErrorContext `gorm:"type:jsonb" json:"context"`
	Occurrences int          `gorm:"default:1" json:"occurrences"`
	LastSeen    time.Time    `json:"last_seen"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ErrorContext holds arbitrary client-supplied key/values
type ErrorContext map[string]interface{}

// Value implements driver.Valuer for JSONB
func (c ErrorContext) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB
func (c *ErrorContext) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, c)
}

// TableName specifies the table name for ClientError
func (ClientError) TableName() string {
	return "client_errors"
}

// ComputeFingerprint derives the dedup key from what identifies an
// error, ignoring the volatile parts (URL query, context, timestamps).
func (e *ClientError) ComputeFingerprint() string {
	h := sha256.Sum256([]byte(e.Source + "|" + e.Severity + "|" + e.Message))
	return hex.EncodeToString(h[:16])
}
