package util

import (
	"net/http"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/gin-gonic/gin"
)

// GetUserFromContext pulls the authenticated user set by the auth
// middleware. On a miss it writes the 401 itself so handlers can just
// return on !ok.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}
	user, ok := value.(*models.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user data in context"})
		return nil, false
	}
	return user, true
}

// GetUserIDFromContext is the cheaper variant for handlers that only
// need the caller's ID. Writes the 401 on a miss, like GetUserFromContext.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	userID, ok := value.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user ID in context"})
		return "", false
	}
	return userID, true
}
