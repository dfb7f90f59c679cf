// Package timetable manages a student's weekly class schedule. Entries
// are recurring slots keyed by day of week and minutes since midnight;
// two entries on the same day may not overlap.
package timetable

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"gorm.io/gorm"
)

const (
	// MinutesPerDay bounds start/end values
	MinutesPerDay = 24 * 60

	// MaxEntriesPerUser keeps a single timetable sane
	MaxEntriesPerUser = 100
)

var (
	// ErrOverlap means the new slot collides with an existing entry
	ErrOverlap = errors.New("timetable entry overlaps an existing entry")

	// ErrNotFound means the entry doesn't exist or belongs to another user
	ErrNotFound = errors.New("timetable entry not found")

	// ErrInvalidSlot means the day or time range is out of bounds
	ErrInvalidSlot = errors.New("invalid timetable slot")

	// ErrTooManyEntries means the user hit the entry cap
	ErrTooManyEntries = errors.New("too many timetable entries")
)

// EntryInput is the caller-supplied part of a timetable entry
type EntryInput struct {
	DayOfWeek   int    `json:"day_of_week" binding:"min=0,max=6"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	CourseCode  string `json:"course_code" binding:"required"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	Instructor  string `json:"instructor"`
	Color       string `json:"color"`
	Semester    int    `json:"semester"`
}

func (in *EntryInput) validate() error {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week must be 0-6", ErrInvalidSlot)
	}
	if in.StartMinute < 0 || in.EndMinute > MinutesPerDay {
		return fmt.Errorf("%w: times must be within the day", ErrInvalidSlot)
	}
	if in.StartMinute >= in.EndMinute {
		return fmt.Errorf("%w: start must be before end", ErrInvalidSlot)
	}
	if in.CourseCode == "" {
		return fmt.Errorf("%w: course_code is required", ErrInvalidSlot)
	}
	return nil
}

// Service owns timetable storage
type Service struct{}

// NewService creates a timetable service
func NewService() *Service {
	return &Service{}
}

// List returns a user's timetable ordered by day then start time
func (s *Service) List(ctx context.Context, userID string) ([]models.TimetableEntry, error) {
	var entries []models.TimetableEntry
	err := database.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("day_of_week ASC, start_minute ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list timetable: %w", err)
	}
	return entries, nil
}

// Create adds an entry, rejecting slots that overlap an existing entry
// on the same day.
func (s *Service) Create(ctx context.Context, userID string, in EntryInput) (*models.TimetableEntry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	entry := &models.TimetableEntry{
		UserID:      userID,
		DayOfWeek:   in.DayOfWeek,
		StartMinute: in.StartMinute,
		EndMinute:   in.EndMinute,
		CourseCode:  in.CourseCode,
		Title:       in.Title,
		Location:    in.Location,
		Instructor:  in.Instructor,
		Color:       in.Color,
		Semester:    in.Semester,
	}

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.TimetableEntry{}).
			Where("user_id = ?", userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= MaxEntriesPerUser {
			return ErrTooManyEntries
		}

		if err := s.checkOverlap(tx, userID, entry, ""); err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		if errors.Is(err, ErrOverlap) || errors.Is(err, ErrTooManyEntries) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create timetable entry: %w", err)
	}
	return entry, nil
}

// Update replaces an entry's fields, re-checking overlaps against every
// other entry.
func (s *Service) Update(ctx context.Context, userID, entryID string, in EntryInput) (*models.TimetableEntry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var entry models.TimetableEntry
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", entryID, userID).
			First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		entry.DayOfWeek = in.DayOfWeek
		entry.StartMinute = in.StartMinute
		entry.EndMinute = in.EndMinute
		entry.CourseCode = in.CourseCode
		entry.Title = in.Title
		entry.Location = in.Location
		entry.Instructor = in.Instructor
		entry.Color = in.Color
		entry.Semester = in.Semester

		if err := s.checkOverlap(tx, userID, &entry, entry.ID); err != nil {
			return err
		}
		return tx.Save(&entry).Error
	})
	if err != nil {
		if errors.Is(err, ErrOverlap) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update timetable entry: %w", err)
	}
	return &entry, nil
}

// Delete removes an entry owned by the user
func (s *Service) Delete(ctx context.Context, userID, entryID string) error {
	result := database.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&models.TimetableEntry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete timetable entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// checkOverlap rejects the candidate if any other entry on the same day
// intersects it. excludeID skips the entry being updated.
func (s *Service) checkOverlap(tx *gorm.DB, userID string, candidate *models.TimetableEntry, excludeID string) error {
	query := tx.Model(&models.TimetableEntry{}).
		Where("user_id = ? AND day_of_week = ?", userID, candidate.DayOfWeek).
		Where("start_minute < ? AND ? < end_minute", candidate.EndMinute, candidate.StartMinute)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var conflicting models.TimetableEntry
	err := query.First(&conflicting).Error
	if err == nil {
		return fmt.Errorf("%w: conflicts with %s (%s)", ErrOverlap, conflicting.CourseCode, formatSlot(&conflicting))
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func formatSlot(e *models.TimetableEntry) string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d",
		e.StartMinute/60, e.StartMinute%60,
		e.EndMinute/60, e.EndMinute%60)
}
