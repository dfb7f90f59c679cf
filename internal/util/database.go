package util

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HandleDBError handles database errors and sends appropriate HTTP responses
// Returns true if the error was handled (and response was sent), false otherwise
func HandleDBError(c *gin.Context, err error, resourceName string) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		RespondNotFound(c, resourceName)
		return true
	}

	if IsDuplicateKeyError(err) {
		RespondConflict(c, resourceName)
		return true
	}

	// For other database errors, return internal server error
	RespondInternalError(c, "Failed to fetch "+resourceName)
	return true
}

// IsDuplicateKeyError reports whether err is a unique constraint violation.
// Covers gorm's translated error plus the raw postgres and sqlite messages.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
