package middleware

import (
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/util"
	"github.com/gin-gonic/gin"
)

// RequireModerator gates the moderation surface. It expects an earlier
// auth middleware to have set user_id and checks moderator status
// against a fresh user row, so revoking the flag takes effect on the
// next request rather than at token expiry.
func RequireModerator() gin.HandlerFunc {
	return requireRole(func(user *models.User) bool {
		return user.IsModerator || user.IsAdmin
	}, "moderator access required")
}

// RequireAdmin gates admin-only operations such as granting moderator
// status and running aura adjustments on arbitrary users.
func RequireAdmin() gin.HandlerFunc {
	return requireRole(func(user *models.User) bool {
		return user.IsAdmin
	}, "admin access required")
}

func requireRole(allowed func(*models.User) bool, denyMessage string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := util.GetUserIDFromContext(c)
		if !ok {
			util.RespondUnauthorized(c)
			c.Abort()
			return
		}

		var user models.User
		if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
			util.RespondUnauthorized(c)
			c.Abort()
			return
		}

		if !allowed(&user) {
			util.RespondForbidden(c, denyMessage)
			c.Abort()
			return
		}

		c.Set("acting_user", &user)
		c.Next()
	}
}
