package util

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
)

// IsValidNoteFile checks if a filename has an extension allowed for note uploads
func IsValidNoteFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	_, exists := models.NoteFileExtensions[ext]
	return exists
}

// NoteContentType returns the content type registered for a filename's
// extension, or application/octet-stream if the extension is unknown.
func NoteContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := models.NoteFileExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ValidateFilename checks if a display filename is valid
// Filename is required and cannot contain directory separators
// Must be <= 255 chars
func ValidateFilename(filename string) error {
	if filename == "" {
		return errors.New("filename is required")
	}
	if strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		return errors.New("filename cannot contain directory paths")
	}
	if len(filename) > 255 {
		return errors.New("filename too long (max 255 characters)")
	}
	return nil
}
