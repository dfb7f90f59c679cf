package handlers

import (
	"net/http"
	"strings"

	apierrors "github.com/Aazib-Ai/UOLink-App-sub006/internal/errors"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/search"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/util"
	"github.com/gin-gonic/gin"
)

// SearchNotes runs a ranked full-text search over active notes.
// Relevance is boosted by vote score, save count, uploader aura, and
// recency.
func (h *Handlers) SearchNotes(c *gin.Context) {
	if h.cached == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("search"))
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		util.RespondValidationError(c, "q", "search query is required")
		return
	}

	params := search.SearchNotesParams{
		Query:      query,
		Subject:    c.Query("subject"),
		CourseCode: c.Query("course_code"),
		University: c.Query("university"),
		Tags:       util.ParseTagArray(c.Query("tags")),
		Limit:      util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 50),
		Offset:     util.ParseInt(c.Query("offset"), 0),
	}
	if s := c.Query("semester"); s != "" {
		semester := util.ParseInt(s, 0)
		params.Semester = &semester
	}

	result, err := h.cached.SearchNotes(c.Request.Context(), params)
	if err != nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("search"))
		return
	}
	c.JSON(http.StatusOK, result)
}

// SearchUsers runs a fuzzy username/display-name search
func (h *Handlers) SearchUsers(c *gin.Context) {
	if h.cached == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("search"))
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		util.RespondValidationError(c, "q", "search query is required")
		return
	}

	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 50)
	offset := util.ParseInt(c.Query("offset"), 0)

	result, err := h.cached.SearchUsers(c.Request.Context(), query, limit, offset)
	if err != nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("search"))
		return
	}
	c.JSON(http.StatusOK, result)
}

// SuggestUsers returns username completions for the search box
func (h *Handlers) SuggestUsers(c *gin.Context) {
	if h.cached == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("search"))
		return
	}

	prefix := strings.TrimSpace(c.Query("q"))
	if prefix == "" {
		c.JSON(http.StatusOK, gin.H{"suggestions": []string{}})
		return
	}

	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 5), 10)
	suggestions, err := h.cached.SuggestUsers(c.Request.Context(), prefix, limit)
	if err != nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("search"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
