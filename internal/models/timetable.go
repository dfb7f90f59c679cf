package models

import (
	"time"

	"gorm.io/gorm"
)

// TimetableEntry is one recurring class slot on a student's weekly timetable.
// Times are minutes since midnight in the student's local timezone.
type TimetableEntry struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	DayOfWeek   int    `gorm:"not null" json:"day_of_week"` // 0 = Monday .. 6 = Sunday
	StartMinute int    `gorm:"not null" json:"start_minute"`
	EndMinute   int    `gorm:"not null" json:"end_minute"`
	CourseCode  string `gorm:"not null" json:"course_code"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	Instructor  string `json:"instructor"`
	Color       string `json:"color"` // hex color used by the client grid
	Semester    int    `gorm:"index" json:"semester"`

	// GORM fields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName for timetable entries
func (TimetableEntry) TableName() string {
	return "timetable_entries"
}

// Overlaps reports whether two entries on the same day intersect in time.
func (t *TimetableEntry) Overlaps(other *TimetableEntry) bool {
	if t.DayOfWeek != other.DayOfWeek {
		return false
	}
	return t.StartMinute < other.EndMinute && other.StartMinute < t.EndMinute
}

func (t *TimetableEntry) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = generateUUID()
	}
	return nil
}
