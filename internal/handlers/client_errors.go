package handlers

import (
	"net/http"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxClientErrorBatch = 20

var clientErrorSeverities = map[string]bool{
	"info": true, "warning": true, "error": true,
}

// ReportClientErrors ingests a batch of errors from the web client.
// Anonymous reports are accepted; repeats of the same fingerprint bump
// the occurrence counter instead of inserting new rows.
func (h *Handlers) ReportClientErrors(c *gin.Context) {
	var req struct {
		Errors []struct {
			Source     string                 `json:"source"`
			Severity   string                 `json:"severity"`
			Message    string                 `json:"message" binding:"required"`
			StackTrace string                 `json:"stack_trace"`
			PageURL    string                 `json:"page_url"`
			Context    map[string]interface{} `json:"context"`
		} `json:"errors" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "errors array is required")
		return
	}
	if len(req.Errors) > maxClientErrorBatch {
		req.Errors = req.Errors[:maxClientErrorBatch]
	}

	var userID *string
	if id, exists := c.Get("user_id"); exists {
		s := id.(string)
		userID = &s
	}
	userAgent := c.Request.UserAgent()

	accepted := 0
	for _, payload := range req.Errors {
		severity := payload.Severity
		if !clientErrorSeverities[severity] {
			severity = "error"
		}
		entry := models.ClientError{
			UserID:     userID,
			Source:     payload.Source,
			Severity:   severity,
			Message:    util.TruncateText(payload.Message, 2000),
			StackTrace: util.TruncateText(payload.StackTrace, 8000),
			PageURL:    payload.PageURL,
			UserAgent:  userAgent,
			Context:    payload.Context,
			LastSeen:   time.Now(),
		}
		entry.Fingerprint = entry.ComputeFingerprint()

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&models.ClientError{}).
				Where("fingerprint = ?", entry.Fingerprint).
				Updates(map[string]interface{}{
					"occurrences": gorm.Expr("occurrences + 1"),
					"last_seen":   entry.LastSeen,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				return nil
			}
			return tx.Create(&entry).Error
		})
		if err != nil {
			continue
		}
		accepted++
	}

	c.JSON(http.StatusAccepted, gin.H{"accepted": accepted})
}

// ListClientErrors pages through reported client errors for moderators
func (h *Handlers) ListClientErrors(c *gin.Context) {
	limit := util.ParseInt(c.Query("limit"), 50)
	if limit > 200 {
		limit = 200
	}
	offset := util.ParseInt(c.Query("offset"), 0)

	query := database.DB.Model(&models.ClientError{})
	if severity := c.Query("severity"); severity != "" {
		query = query.Where("severity = ?", severity)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		util.RespondInternalError(c, "failed to count client errors")
		return
	}

	var errs []models.ClientError
	if err := query.Order("last_seen DESC").Limit(limit).Offset(offset).Find(&errs).Error; err != nil {
		util.RespondInternalError(c, "failed to list client errors")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"errors": errs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
