package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	apierrors "github.com/Aazib-Ai/UOLink-App-sub006/internal/errors"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/middleware"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/notes"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/realtime"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/search"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxNoteFileSize caps note uploads at 25 MB
const MaxNoteFileSize = 25 << 20

// ListNotes returns a filtered, paginated page of active notes
func (h *Handlers) ListNotes(c *gin.Context) {
	opts := notes.ListOptions{
		Subject:    c.Query("subject"),
		CourseCode: c.Query("course_code"),
		University: c.Query("university"),
		Tag:        c.Query("tag"),
		Semester:   util.ParseInt(c.Query("semester"), 0),
		Sort:       c.Query("sort"),
		Limit:      util.ParseInt(c.Query("limit"), notes.DefaultPageSize),
		Offset:     util.ParseInt(c.Query("offset"), 0),
	}

	resp, err := h.notes.List(c.Request.Context(), opts)
	if err != nil {
		util.RespondInternalError(c, "failed to list notes")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecentNotes returns the newest notes for one semester
func (h *Handlers) RecentNotes(c *gin.Context) {
	semester := util.ParseInt(c.Query("semester"), 0)
	if semester < 1 || semester > notes.MaxSemester {
		util.RespondValidationError(c, "semester", "must be between 1 and 8")
		return
	}
	limit := util.ParseInt(c.Query("limit"), notes.DefaultPageSize)

	resp, err := h.notes.Recent(c.Request.Context(), semester, limit)
	if err != nil {
		util.RespondInternalError(c, "failed to list recent notes")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetFilterOptions returns the distinct filter values for the listing UI
func (h *Handlers) GetFilterOptions(c *gin.Context) {
	opts, err := h.notes.FilterOptions(c.Request.Context())
	if err != nil {
		util.RespondInternalError(c, "failed to load filter options")
		return
	}
	c.JSON(http.StatusOK, opts)
}

// GetNote returns the full note view with viewer-specific flags
func (h *Handlers) GetNote(c *gin.Context) {
	noteID := c.Param("id")
	viewerID := c.GetString("user_id")

	viewerIsModerator := false
	if user, exists := c.Get("user"); exists {
		if u, ok := user.(*models.User); ok {
			viewerIsModerator = u.IsModerator || u.IsAdmin
		}
	}

	detail, err := h.notes.Get(c.Request.Context(), noteID, viewerID, viewerIsModerator)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "note")
			return
		}
		util.RespondInternalError(c, "failed to load note")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UploadNote accepts a multipart note upload, runs the text fields
// through the moderation engine, stores the file in R2, and creates the
// note. Clean content goes live immediately; borderline content is
// parked pending review.
func (h *Handlers) UploadNote(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if h.storage == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("file storage"))
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		util.RespondValidationError(c, "title", "title is required")
		return
	}
	description := strings.TrimSpace(c.PostForm("description"))
	subject := strings.TrimSpace(c.PostForm("subject"))
	courseCode := util.NormalizeCourseCode(c.PostForm("course_code"))
	university := strings.TrimSpace(c.PostForm("university"))
	semester := util.ParseInt(c.PostForm("semester"), 0)
	tags := util.ParseTagArray(c.PostForm("tags"))

	if semester < 1 || semester > notes.MaxSemester {
		util.RespondValidationError(c, "semester", "must be between 1 and 8")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		util.RespondValidationError(c, "file", "note file is required")
		return
	}
	if fileHeader.Size > MaxNoteFileSize {
		util.RespondWithAPIError(c, apierrors.PayloadTooLarge(MaxNoteFileSize))
		return
	}
	if !util.IsValidNoteFile(fileHeader.Filename) {
		util.RespondValidationError(c, "file", "unsupported file type")
		return
	}

	// Moderation runs on everything the uploader typed
	moderationFields := append([]string{title, description, subject}, tags...)
	status, labels, modErr := h.moderation.EnforceModeration(moderationFields...)
	if modErr != nil {
		middleware.RecordNoteUpload("rejected")
		util.RespondWithAPIError(c, modErr)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		util.RespondInternalError(c, "failed to read uploaded file")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxNoteFileSize+1))
	if err != nil {
		util.RespondInternalError(c, "failed to read uploaded file")
		return
	}
	if len(data) > MaxNoteFileSize {
		util.RespondWithAPIError(c, apierrors.PayloadTooLarge(MaxNoteFileSize))
		return
	}

	upload, err := h.storage.UploadNote(c.Request.Context(), data, user.ID, fileHeader.Filename)
	if err != nil {
		logger.Log.Error("Note upload to storage failed",
			zap.String("user_id", user.ID), zap.Error(err))
		util.RespondInternalError(c, "failed to store note file")
		return
	}

	note := &models.Note{
		UserID:           user.ID,
		Title:            title,
		Description:      description,
		Subject:          subject,
		CourseCode:       courseCode,
		Semester:         semester,
		University:       university,
		Tags:             models.StringArray(tags),
		FileKey:          upload.Key,
		FileURL:          upload.URL,
		FileName:         fileHeader.Filename,
		FileSize:         upload.Size,
		ContentType:      util.NoteContentType(fileHeader.Filename),
		Status:           status,
		ModerationLabels: models.StringArray(labels),
	}

	if err := h.notes.Create(c.Request.Context(), note); err != nil {
		// Roll back the orphaned file, best effort
		if delErr := h.storage.DeleteFile(c.Request.Context(), upload.Key); delErr != nil {
			logger.Log.Warn("Failed to delete orphaned upload",
				zap.String("key", upload.Key), zap.Error(delErr))
		}
		util.RespondInternalError(c, "failed to create note")
		return
	}

	middleware.RecordNoteUpload(string(status))
	h.indexNote(c, note, user)

	response := gin.H{"note": note}
	if status == models.NoteStatusPending {
		response["message"] = "note is awaiting moderator review"
	}
	c.JSON(http.StatusCreated, response)
}

// indexNote pushes a note into Elasticsearch, best effort
func (h *Handlers) indexNote(c *gin.Context, note *models.Note, uploader *models.User) {
	if h.search == nil || note.Status != models.NoteStatusActive {
		return
	}
	doc := search.NoteToSearchDoc(note, uploader.Username, uploader.AuraPoints)
	if err := h.search.IndexNote(c.Request.Context(), note.ID, doc); err != nil {
		logger.Log.Warn("Failed to index note",
			zap.String("note_id", note.ID), zap.Error(err))
	}
	if h.cached != nil {
		h.cached.InvalidateNoteCache()
	}
}

// UpdateNote edits a note's text fields. Only the uploader may edit;
// edited text goes back through moderation.
func (h *Handlers) UpdateNote(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	noteID := c.Param("id")

	var req struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Subject     *string  `json:"subject"`
		Tags        []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	var moderationFields []string
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			util.RespondValidationError(c, "title", "title cannot be empty")
			return
		}
		updates["title"] = title
		moderationFields = append(moderationFields, title)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
		moderationFields = append(moderationFields, *req.Description)
	}
	if req.Subject != nil {
		updates["subject"] = strings.TrimSpace(*req.Subject)
		moderationFields = append(moderationFields, *req.Subject)
	}
	if req.Tags != nil {
		updates["tags"] = models.StringArray(req.Tags)
		moderationFields = append(moderationFields, req.Tags...)
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	status, labels, modErr := h.moderation.EnforceModeration(moderationFields...)
	if modErr != nil {
		util.RespondWithAPIError(c, modErr)
		return
	}
	if status == models.NoteStatusPending {
		updates["status"] = status
		updates["moderation_labels"] = models.StringArray(labels)
	}

	note, err := h.notes.Update(c.Request.Context(), noteID, userID, updates)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.RespondNotFound(c, "note")
		case errors.Is(err, notes.ErrNotOwner):
			util.RespondForbidden(c, "only the uploader can edit a note")
		default:
			util.RespondInternalError(c, "failed to update note")
		}
		return
	}

	var uploader models.User
	if err := database.DB.First(&uploader, "id = ?", note.UserID).Error; err == nil {
		h.indexNote(c, note, &uploader)
	}

	c.JSON(http.StatusOK, gin.H{"note": note})
}

// DeleteNote removes a note. The uploader or a moderator may delete;
// the stored file and search document go with it.
func (h *Handlers) DeleteNote(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	noteID := c.Param("id")

	var note models.Note
	if err := database.DB.First(&note, "id = ?", noteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "note")
			return
		}
		util.RespondInternalError(c, "failed to load note")
		return
	}

	isModerator := user.IsModerator || user.IsAdmin
	if err := h.notes.Delete(c.Request.Context(), noteID, user.ID, isModerator); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.RespondNotFound(c, "note")
		case errors.Is(err, notes.ErrNotOwner):
			util.RespondForbidden(c, "only the uploader or a moderator can delete a note")
		default:
			util.RespondInternalError(c, "failed to delete note")
		}
		return
	}

	if h.storage != nil && note.FileKey != "" {
		if err := h.storage.DeleteFile(c.Request.Context(), note.FileKey); err != nil {
			logger.Log.Warn("Failed to delete note file",
				zap.String("key", note.FileKey), zap.Error(err))
		}
	}
	if h.search != nil {
		if err := h.search.DeleteNote(c.Request.Context(), noteID); err != nil {
			logger.Log.Warn("Failed to remove note from search index",
				zap.String("note_id", noteID), zap.Error(err))
		}
		if h.cached != nil {
			h.cached.InvalidateNoteCache()
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "note deleted"})
}

// DownloadNote returns a short-lived presigned URL for the note file and
// records the download.
func (h *Handlers) DownloadNote(c *gin.Context) {
	noteID := c.Param("id")

	if h.storage == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("file storage"))
		return
	}

	var note models.Note
	if err := database.DB.First(&note, "id = ? AND status = ?", noteID, models.NoteStatusActive).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "note")
			return
		}
		util.RespondInternalError(c, "failed to load note")
		return
	}

	url, err := h.storage.PresignDownload(c.Request.Context(), note.FileKey)
	if err != nil {
		logger.Log.Error("Failed to presign download",
			zap.String("note_id", noteID), zap.Error(err))
		util.RespondInternalError(c, "failed to generate download link")
		return
	}

	var userID *string
	if id := c.GetString("user_id"); id != "" {
		userID = &id
	}
	count, err := h.notes.RecordDownload(c.Request.Context(), noteID, userID)
	if err != nil {
		logger.Log.Warn("Failed to record download",
			zap.String("note_id", noteID), zap.Error(err))
		count = note.DownloadCount
	}
	middleware.RecordNoteDownload()
	h.pushNoteStats(noteID, note.VoteScore, note.SaveCount, count)

	c.JSON(http.StatusOK, gin.H{
		"url":            url,
		"file_name":      note.FileName,
		"content_type":   note.ContentType,
		"download_count": count,
	})
}

// VoteNote casts, changes, or clears the caller's vote on a note.
// value: 1 upvote, -1 downvote, 0 clear.
func (h *Handlers) VoteNote(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	noteID := c.Param("id")

	var req struct {
		Value *int `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if *req.Value != 1 && *req.Value != -1 && *req.Value != 0 {
		util.RespondValidationError(c, "value", "must be 1, -1, or 0")
		return
	}

	result, err := h.notes.Vote(c.Request.Context(), noteID, userID, *req.Value)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.RespondNotFound(c, "note")
		case errors.Is(err, notes.ErrSelfVote):
			util.RespondForbidden(c, "you cannot vote on your own note")
		default:
			util.RespondInternalError(c, "failed to record vote")
		}
		return
	}

	middleware.RecordNoteVote(*req.Value)
	h.notifyVote(c, noteID, userID, *req.Value)

	c.JSON(http.StatusOK, result)
}

// notifyVote tells the uploader about an upvote and pushes fresh
// counters to note viewers. Best effort.
func (h *Handlers) notifyVote(c *gin.Context, noteID, voterID string, value int) {
	var note models.Note
	if err := database.DB.First(&note, "id = ?", noteID).Error; err != nil {
		return
	}
	h.pushNoteStats(noteID, note.VoteScore, note.SaveCount, note.DownloadCount)

	// Only upvotes notify; downvote notifications just sting
	if value != 1 || h.notifications == nil || note.UserID == voterID {
		return
	}
	h.notifications.Notify(c.Request.Context(), note.UserID,
		models.NotificationNoteVoted,
		"Your note got an upvote",
		"Someone upvoted "+note.Title,
		map[string]interface{}{"note_id": note.ID})
}

func (h *Handlers) pushNoteStats(noteID string, voteScore, saveCount, downloadCount int) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(realtime.NewMessage(realtime.MessageTypeNoteStatsUpdate, realtime.NoteStatsPayload{
		NoteID:        noteID,
		VoteScore:     voteScore,
		SaveCount:     saveCount,
		DownloadCount: downloadCount,
	}))
}

// SaveNote bookmarks a note on the caller's profile
func (h *Handlers) SaveNote(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	noteID := c.Param("id")

	result, err := h.notes.Save(c.Request.Context(), noteID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "note")
			return
		}
		util.RespondInternalError(c, "failed to save note")
		return
	}

	if h.notifications != nil {
		var note models.Note
		if err := database.DB.First(&note, "id = ?", noteID).Error; err == nil && note.UserID != userID {
			h.notifications.Notify(c.Request.Context(), note.UserID,
				models.NotificationNoteSaved,
				"Your note was saved",
				"Someone saved "+note.Title+" to their profile",
				map[string]interface{}{"note_id": note.ID})
		}
	}

	c.JSON(http.StatusOK, result)
}

// UnsaveNote removes a bookmark
func (h *Handlers) UnsaveNote(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	noteID := c.Param("id")

	result, err := h.notes.Unsave(c.Request.Context(), noteID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "note")
			return
		}
		util.RespondInternalError(c, "failed to unsave note")
		return
	}
	c.JSON(http.StatusOK, result)
}

// SavedNotes lists the caller's bookmarked notes
func (h *Handlers) SavedNotes(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseInt(c.Query("limit"), notes.DefaultPageSize)
	offset := util.ParseInt(c.Query("offset"), 0)

	resp, err := h.notes.SavedNotes(c.Request.Context(), userID, limit, offset)
	if err != nil {
		util.RespondInternalError(c, "failed to list saved notes")
		return
	}
	c.JSON(http.StatusOK, resp)
}
