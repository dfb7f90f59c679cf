package handlers

import (
	"errors"
	"net/http"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/timetable"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/util"
	"github.com/gin-gonic/gin"
)

// GetTimetable returns the caller's weekly timetable
func (h *Handlers) GetTimetable(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	entries, err := h.timetable.List(c.Request.Context(), userID)
	if err != nil {
		util.RespondInternalError(c, "failed to load timetable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// CreateTimetableEntry adds a class slot, rejecting overlaps
func (h *Handlers) CreateTimetableEntry(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req timetable.EntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	entry, err := h.timetable.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondTimetableError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// UpdateTimetableEntry edits a class slot, re-checking overlaps
func (h *Handlers) UpdateTimetableEntry(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req timetable.EntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	entry, err := h.timetable.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondTimetableError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// DeleteTimetableEntry removes a class slot
func (h *Handlers) DeleteTimetableEntry(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.timetable.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondTimetableError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entry deleted"})
}

func respondTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, timetable.ErrOverlap):
		util.RespondConflict(c, "timetable slot")
	case errors.Is(err, timetable.ErrNotFound):
		util.RespondNotFound(c, "timetable entry")
	case errors.Is(err, timetable.ErrInvalidSlot):
		util.RespondBadRequest(c, err.Error())
	case errors.Is(err, timetable.ErrTooManyEntries):
		util.RespondBadRequest(c, "timetable entry limit reached")
	default:
		util.RespondInternalError(c, "timetable operation failed")
	}
}
