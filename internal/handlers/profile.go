package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/Aazib-Ai/UOLink-App-sub006/internal/errors"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/auth"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/notes"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/search"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxAvatarSize caps avatar uploads at 5 MB
const MaxAvatarSize = 5 << 20

// PublicProfile is the profile view shown to other students
type PublicProfile struct {
	ID          string              `json:"id"`
	Username    string              `json:"username"`
	DisplayName string              `json:"display_name"`
	Bio         string              `json:"bio,omitempty"`
	University  string              `json:"university,omitempty"`
	Major       string              `json:"major,omitempty"`
	Semester    int                 `json:"semester,omitempty"`
	AvatarURL   string              `json:"avatar_url,omitempty"`
	SocialLinks *models.SocialLinks `json:"social_links,omitempty"`
	AuraPoints  int                 `json:"aura_points"`
	NoteCount   int                 `json:"note_count"`
	MemberSince string              `json:"member_since"`
}

func toPublicProfile(user *models.User) PublicProfile {
	return PublicProfile{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Bio:         user.Bio,
		University:  user.University,
		Major:       user.Major,
		Semester:    user.Semester,
		AvatarURL:   user.AvatarURL,
		SocialLinks: user.SocialLinks,
		AuraPoints:  user.AuraPoints,
		NoteCount:   user.NoteCount,
		MemberSince: user.CreatedAt.Format("2006-01"),
	}
}

// GetProfile returns a student's public profile by username
func (h *Handlers) GetProfile(c *gin.Context) {
	username := c.Param("username")

	user, err := h.auth.FindUserByUsername(username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		util.RespondInternalError(c, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": toPublicProfile(user)})
}

// GetProfileNotes lists a student's active notes. The owner also sees
// pending and removed notes.
func (h *Handlers) GetProfileNotes(c *gin.Context) {
	username := c.Param("username")

	user, err := h.auth.FindUserByUsername(username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		util.RespondInternalError(c, "failed to load profile")
		return
	}

	includeHidden := c.GetString("user_id") == user.ID
	limit := util.ParseInt(c.Query("limit"), notes.DefaultPageSize)
	offset := util.ParseInt(c.Query("offset"), 0)

	resp, err := h.notes.UserNotes(c.Request.Context(), user.ID, includeHidden, limit, offset)
	if err != nil {
		util.RespondInternalError(c, "failed to list notes")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateProfileRequest is the editable subset of a user's own profile
type UpdateProfileRequest struct {
	DisplayName    *string             `json:"display_name" binding:"omitempty,min=1,max=50"`
	Bio            *string             `json:"bio" binding:"omitempty,max=500"`
	University     *string             `json:"university" binding:"omitempty,max=120"`
	Major          *string             `json:"major" binding:"omitempty,max=120"`
	Semester       *int                `json:"semester" binding:"omitempty,min=0,max=12"`
	GraduationYear *int                `json:"graduation_year" binding:"omitempty,min=2000,max=2100"`
	Interests      []string            `json:"interests"`
	SocialLinks    *models.SocialLinks `json:"social_links"`
}

// UpdateProfile edits the caller's own profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.University != nil {
		updates["university"] = *req.University
	}
	if req.Major != nil {
		updates["major"] = *req.Major
	}
	if req.Semester != nil {
		updates["semester"] = *req.Semester
	}
	if req.GraduationYear != nil {
		updates["graduation_year"] = *req.GraduationYear
	}
	if req.Interests != nil {
		updates["interests"] = models.StringArray(req.Interests)
	}
	if req.SocialLinks != nil {
		updates["social_links"] = req.SocialLinks
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	var updated models.User
	if err := database.DB.First(&updated, "id = ?", user.ID).Error; err != nil {
		util.RespondInternalError(c, "failed to load updated profile")
		return
	}

	h.indexUser(c, &updated)
	c.JSON(http.StatusOK, gin.H{"user": updated})
}

// indexUser pushes a user into Elasticsearch, best effort
func (h *Handlers) indexUser(c *gin.Context, user *models.User) {
	if h.search == nil {
		return
	}
	if err := h.search.IndexUser(c.Request.Context(), user.ID, search.UserToSearchDoc(user)); err != nil {
		logger.Log.Warn("Failed to index user",
			zap.String("user_id", user.ID), zap.Error(err))
	}
	if h.cached != nil {
		h.cached.InvalidateUserCache()
	}
}

// UploadAvatar replaces the caller's avatar image
func (h *Handlers) UploadAvatar(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	if h.storage == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("file storage"))
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		util.RespondValidationError(c, "avatar", "avatar file is required")
		return
	}
	if fileHeader.Size > MaxAvatarSize {
		util.RespondWithAPIError(c, apierrors.PayloadTooLarge(MaxAvatarSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.RespondInternalError(c, "failed to read avatar file")
		return
	}
	defer file.Close()

	result, err := h.storage.UploadAvatar(c.Request.Context(), file, fileHeader, user.ID)
	if err != nil {
		logger.Log.Warn("Avatar upload failed",
			zap.String("user_id", user.ID), zap.Error(err))
		util.RespondBadRequest(c, "failed to store avatar: "+err.Error())
		return
	}

	if err := database.DB.Model(user).UpdateColumn("avatar_url", result.URL).Error; err != nil {
		util.RespondInternalError(c, "failed to update avatar")
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": result.URL})
}
