package search

import (
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
)

// NoteToSearchDoc converts a Note model to its search document.
// uploaderUsername and uploaderAura are denormalized at index time so
// ranking never needs a join.
func NoteToSearchDoc(note *models.Note, uploaderUsername string, uploaderAura int) map[string]interface{} {
	return map[string]interface{}{
		"id":                note.ID,
		"user_id":           note.UserID,
		"uploader_username": uploaderUsername,
		"title":             note.Title,
		"description":       note.Description,
		"subject":           note.Subject,
		"course_code":       note.CourseCode,
		"university":        note.University,
		"semester":          note.Semester,
		"tags":              []string(note.Tags),
		"uploader_aura":     uploaderAura,
		"vote_score":        note.VoteScore,
		"save_count":        note.SaveCount,
		"download_count":    note.DownloadCount,
		"created_at":        note.CreatedAt,
	}
}

// UserToSearchDoc converts a User model to its search document
func UserToSearchDoc(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":           user.ID,
		"username":     user.Username,
		"display_name": user.DisplayName,
		"bio":          user.Bio,
		"university":   user.University,
		"major":        user.Major,
		"aura_points":  user.AuraPoints,
		"note_count":   user.NoteCount,
		"created_at":   user.CreatedAt,
	}
}
