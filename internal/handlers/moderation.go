package handlers

import (
	"errors"
	"net/http"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/middleware"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateReport files a report against a note or a user. Duplicate open
// reports from the same reporter are collapsed.
func (h *Handlers) CreateReport(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		TargetType  models.ReportTargetType `json:"target_type" binding:"required"`
		TargetID    string                  `json:"target_id" binding:"required"`
		Reason      models.ReportReason     `json:"reason" binding:"required"`
		Description string                  `json:"description" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if req.TargetType != models.ReportTargetNote && req.TargetType != models.ReportTargetUser {
		util.RespondValidationError(c, "target_type", "must be 'note' or 'user'")
		return
	}
	switch req.Reason {
	case models.ReportReasonSpam, models.ReportReasonHarassment, models.ReportReasonCopyright,
		models.ReportReasonInappropriate, models.ReportReasonMisleading, models.ReportReasonOther:
	default:
		util.RespondValidationError(c, "reason", "unknown report reason")
		return
	}

	report := &models.Report{
		ReporterID:  userID,
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		Reason:      req.Reason,
		Description: req.Description,
	}

	// Resolve the target and capture the note's uploader for context
	switch req.TargetType {
	case models.ReportTargetNote:
		var note models.Note
		if err := database.DB.First(&note, "id = ?", req.TargetID).Error; err != nil {
			util.RespondNotFound(c, "note")
			return
		}
		report.TargetUserID = &note.UserID
	case models.ReportTargetUser:
		var target models.User
		if err := database.DB.First(&target, "id = ?", req.TargetID).Error; err != nil {
			util.RespondNotFound(c, "user")
			return
		}
		if target.ID == userID {
			util.RespondBadRequest(c, "you cannot report yourself")
			return
		}
	}

	// One open report per reporter per target
	var existing models.Report
	err := database.DB.Where(
		"reporter_id = ? AND target_type = ? AND target_id = ? AND status IN ?",
		userID, req.TargetType, req.TargetID,
		[]models.ReportStatus{models.ReportStatusPending, models.ReportStatusReviewing},
	).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"report": existing, "message": "report already filed"})
		return
	}

	if err := database.DB.Create(report).Error; err != nil {
		util.RespondInternalError(c, "failed to file report")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"report": report})
}

// ListReports returns reports for moderator review, filtered by status
func (h *Handlers) ListReports(c *gin.Context) {
	status := c.DefaultQuery("status", string(models.ReportStatusPending))
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 100)
	offset := util.ParseInt(c.Query("offset"), 0)

	var reports []models.Report
	query := database.DB.Preload("Reporter").
		Order("created_at ASC").
		Limit(limit).
		Offset(offset)
	if status != "all" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&reports).Error; err != nil {
		util.RespondInternalError(c, "failed to list reports")
		return
	}

	var total int64
	countQuery := database.DB.Model(&models.Report{})
	if status != "all" {
		countQuery = countQuery.Where("status = ?", status)
	}
	countQuery.Count(&total)

	c.JSON(http.StatusOK, gin.H{"reports": reports, "total": total})
}

// ReviewReport resolves or dismisses a report. Resolving a note report
// with action "remove_note" removes the note and costs the uploader
// aura; "dismiss" closes the report without consequences.
func (h *Handlers) ReviewReport(c *gin.Context) {
	moderator, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	reportID := c.Param("id")

	var req struct {
		Action string `json:"action" binding:"required"` // "remove_note", "dismiss"
		Reason string `json:"reason" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var report models.Report
	if err := database.DB.First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "report")
			return
		}
		util.RespondInternalError(c, "failed to load report")
		return
	}
	if report.Status == models.ReportStatusResolved || report.Status == models.ReportStatusDismissed {
		util.RespondConflict(c, "report review")
		return
	}

	switch req.Action {
	case "dismiss":
		report.Status = models.ReportStatusDismissed
		report.ActionTaken = "dismissed"

	case "remove_note":
		if report.TargetType != models.ReportTargetNote {
			util.RespondBadRequest(c, "remove_note only applies to note reports")
			return
		}
		if err := h.removeReportedNote(c, &report, req.Reason); err != nil {
			util.RespondInternalError(c, "failed to remove note")
			return
		}
		report.Status = models.ReportStatusResolved
		report.ActionTaken = "note_removed"

	default:
		util.RespondValidationError(c, "action", "must be 'remove_note' or 'dismiss'")
		return
	}

	report.ModeratorID = &moderator.ID
	if err := database.DB.Save(&report).Error; err != nil {
		util.RespondInternalError(c, "failed to update report")
		return
	}

	if h.notifications != nil {
		h.notifications.Notify(c.Request.Context(), report.ReporterID,
			models.NotificationReportResolved,
			"Your report was reviewed",
			"A moderator reviewed your report. Action: "+report.ActionTaken,
			map[string]interface{}{"report_id": report.ID})
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// removeReportedNote pulls the note, applies the report-actioned aura
// penalty to the uploader, and notifies them.
func (h *Handlers) removeReportedNote(c *gin.Context, report *models.Report, reason string) error {
	var note models.Note
	if err := database.DB.First(&note, "id = ?", report.TargetID).Error; err != nil {
		return err
	}
	if note.Status == models.NoteStatusRemoved {
		return nil
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Note{}).
			Where("id = ?", note.ID).
			Update("status", models.NoteStatusRemoved).Error; err != nil {
			return err
		}
		return h.aura.Award(tx, &models.AuraEvent{
			UserID:  note.UserID,
			ActorID: report.ModeratorID,
			NoteID:  &note.ID,
			Type:    models.AuraEventReportActioned,
			Reason:  "note removed after report review",
		})
	})
	if err != nil {
		return err
	}

	middleware.RecordAuraEvent(string(models.AuraEventReportActioned), models.AuraPointsReportActioned)
	h.notes.InvalidateListings()
	h.aura.InvalidateLeaderboard()
	h.afterModeration(c, &note, "removed", reason)
	return nil
}

// RemoveNote removes a note directly, outside the report flow
func (h *Handlers) RemoveNote(c *gin.Context) {
	moderator, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	noteID := c.Param("id")

	var req struct {
		Reason string `json:"reason" binding:"max=1000"`
	}
	c.ShouldBindJSON(&req)

	var note models.Note
	if err := database.DB.First(&note, "id = ?", noteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "note")
			return
		}
		util.RespondInternalError(c, "failed to load note")
		return
	}
	if note.Status == models.NoteStatusRemoved {
		util.RespondConflict(c, "note removal")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Note{}).
			Where("id = ?", noteID).
			Update("status", models.NoteStatusRemoved).Error; err != nil {
			return err
		}
		return h.aura.Award(tx, &models.AuraEvent{
			UserID:  note.UserID,
			ActorID: &moderator.ID,
			NoteID:  &note.ID,
			Type:    models.AuraEventReportActioned,
			Reason:  "note removed by moderator",
		})
	})
	if err != nil {
		util.RespondInternalError(c, "failed to remove note")
		return
	}

	middleware.RecordAuraEvent(string(models.AuraEventReportActioned), models.AuraPointsReportActioned)
	h.notes.InvalidateListings()
	h.aura.InvalidateLeaderboard()
	h.afterModeration(c, &note, "removed", req.Reason)

	c.JSON(http.StatusOK, gin.H{"message": "note removed"})
}

// RestoreNote reactivates a removed or pending note. The aura penalty,
// if one was applied, is compensated so the ledger nets to zero.
func (h *Handlers) RestoreNote(c *gin.Context) {
	moderator, ok := util.GetUserFromContext(c)
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
	if note.Status == models.NoteStatusActive {
		util.RespondConflict(c, "note restore")
		return
	}
	wasRemoved := note.Status == models.NoteStatusRemoved

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":            models.NoteStatusActive,
			"moderation_labels": nil,
		}
		if err := tx.Model(&models.Note{}).Where("id = ?", noteID).Updates(updates).Error; err != nil {
			return err
		}
		if !wasRemoved {
			return nil
		}
		// Compensate the removal penalty
		return h.aura.Award(tx, &models.AuraEvent{
			UserID:  note.UserID,
			ActorID: &moderator.ID,
			NoteID:  &note.ID,
			Type:    models.AuraEventModeratorAdjust,
			Points:  -models.AuraPointsReportActioned,
			Reason:  "note restored after review",
		})
	})
	if err != nil {
		util.RespondInternalError(c, "failed to restore note")
		return
	}

	h.notes.InvalidateListings()
	h.aura.InvalidateLeaderboard()
	h.afterModeration(c, &note, "restored", "")

	// Put the note back in the search index
	var uploader models.User
	if err := database.DB.First(&uploader, "id = ?", note.UserID).Error; err == nil {
		note.Status = models.NoteStatusActive
		h.indexNote(c, &note, &uploader)
	}

	c.JSON(http.StatusOK, gin.H{"message": "note restored"})
}

// afterModeration notifies and emails the uploader about a moderation
// outcome, best effort.
func (h *Handlers) afterModeration(c *gin.Context, note *models.Note, outcome, reason string) {
	notificationType := models.NotificationNoteRemoved
	title := "Your note was removed"
	if outcome == "restored" {
		notificationType = models.NotificationNoteRestored
		title = "Your note was restored"
	}

	if h.notifications != nil {
		h.notifications.Notify(c.Request.Context(), note.UserID,
			notificationType, title, note.Title,
			map[string]interface{}{"note_id": note.ID, "reason": reason})
	}

	if h.search != nil && outcome == "removed" {
		if err := h.search.DeleteNote(c.Request.Context(), note.ID); err != nil {
			logger.Log.Warn("Failed to remove note from search index",
				zap.String("note_id", note.ID), zap.Error(err))
		}
		if h.cached != nil {
			h.cached.InvalidateNoteCache()
		}
	}

	if h.email != nil {
		var uploader models.User
		if err := database.DB.First(&uploader, "id = ?", note.UserID).Error; err == nil {
			if err := h.email.SendModerationOutcomeEmail(c.Request.Context(), uploader.Email, note.Title, outcome, reason); err != nil {
				logger.Log.Warn("Failed to send moderation outcome email",
					zap.String("user_id", uploader.ID), zap.Error(err))
			}
		}
	}
}

// PendingNotes lists notes flagged by the moderation engine, oldest
// first so the queue drains fairly.
func (h *Handlers) PendingNotes(c *gin.Context) {
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 100)
	offset := util.ParseInt(c.Query("offset"), 0)

	var pending []models.Note
	err := database.DB.Preload("User").
		Where("status = ?", models.NoteStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&pending).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list pending notes")
		return
	}

	var total int64
	database.DB.Model(&models.Note{}).
		Where("status = ?", models.NoteStatusPending).
		Count(&total)

	c.JSON(http.StatusOK, gin.H{"notes": pending, "total": total})
}

// AdjustAura applies a manual aura adjustment to a user
func (h *Handlers) AdjustAura(c *gin.Context) {
	moderator, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	var req struct {
		Points int    `json:"points" binding:"required"`
		Reason string `json:"reason" binding:"required,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	event, err := h.aura.Adjust(c.Request.Context(), moderator.ID, targetID, req.Points, req.Reason)
	if err != nil {
		util.RespondInternalError(c, "failed to adjust aura")
		return
	}

	middleware.RecordAuraEvent(string(models.AuraEventModeratorAdjust), req.Points)
	if h.notifications != nil {
		h.notifications.Notify(c.Request.Context(), targetID,
			models.NotificationAuraChanged,
			"Your aura was adjusted",
			req.Reason,
			map[string]interface{}{"points": req.Points})
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}
