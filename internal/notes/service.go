package notes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/aura"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/cache"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const (
	// DefaultPageSize is the page size served when the caller asks for none,
	// and the size pre-populated by the cache warming scheduler.
	DefaultPageSize = 20

	// MaxPageSize bounds caller-supplied page sizes.
	MaxPageSize = 50

	// MaxSemester is the highest semester notes can be filed under.
	MaxSemester = 8

	// ListTTL keeps warmed listing entries alive across warming passes.
	ListTTL = 15 * time.Minute

	// FilterOptionsTTL caches the filter dropdown values, which change
	// rarely compared to listings.
	FilterOptionsTTL = 30 * time.Minute

	// Cache key routes. Every listing key starts with routeNotes so one
	// prefix clear invalidates all of them.
	routeNotes   = "notes"
	routeList    = "notes:list"
	routeRecent  = "notes:recent"
	routeFilters = "notes:filters"
)

// ListOptions are the supported listing filters
type ListOptions struct {
	Subject    string
	CourseCode string
	University string
	Tag        string
	Semester   int
	Sort       string // "recent", "top", "downloads"
	Limit      int
	Offset     int
}

// UploaderInfo is the public projection of a note's uploader
type UploaderInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	AuraPoints  int    `json:"aura_points"`
}

// NoteItem is one note in a listing response
type NoteItem struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Subject       string       `json:"subject,omitempty"`
	CourseCode    string       `json:"course_code,omitempty"`
	Semester      int          `json:"semester,omitempty"`
	University    string       `json:"university,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	FileName      string       `json:"file_name,omitempty"`
	FileSize      int64        `json:"file_size,omitempty"`
	ContentType   string       `json:"content_type,omitempty"`
	PageCount     int          `json:"page_count,omitempty"`
	DownloadCount int          `json:"download_count"`
	VoteScore     int          `json:"vote_score"`
	SaveCount     int          `json:"save_count"`
	Uploader      UploaderInfo `json:"uploader"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ListMeta carries pagination info for a listing response
type ListMeta struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Count   int   `json:"count"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// ListResponse is the response from List and Recent
type ListResponse struct {
	Notes []NoteItem `json:"notes"`
	Meta  ListMeta   `json:"meta"`
}

// FilterOptions are the distinct values offered by the listing filter UI
type FilterOptions struct {
	Subjects     []string `json:"subjects"`
	Universities []string `json:"universities"`
	Semesters    []int    `json:"semesters"`
	Tags         []string `json:"tags"`
}

// NoteDetail is the full note view including viewer-specific flags
type NoteDetail struct {
	NoteItem
	Description string            `json:"description,omitempty"`
	FileURL     string            `json:"file_url,omitempty"`
	Status      models.NoteStatus `json:"status"`
	UserVote    int               `json:"user_vote"`
	IsSaved     bool              `json:"is_saved"`
}

// VoteResult reports the state after a vote operation
type VoteResult struct {
	VoteScore int `json:"vote_score"`
	UserVote  int `json:"user_vote"`
}

// SaveResult reports the state after a save/unsave operation
type SaveResult struct {
	SaveCount int  `json:"save_count"`
	IsSaved   bool `json:"is_saved"`
}

// Service owns note listings, the note lifecycle, and engagement
// (votes, saves, downloads). Listing and filter queries are served
// through the query cache; mutations invalidate the affected prefixes.
type Service struct {
	db    *gorm.DB
	cache *cache.Store
	aura  *aura.Service
}

// NewService creates a new notes service
func NewService(auraService *aura.Service) *Service {
	return &Service{
		db:    database.DB,
		cache: cache.GetStore(),
		aura:  auraService,
	}
}

// List returns a page of active notes matching opts, served through the
// query cache. Identical filters in any order hit the same cache entry.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	opts = normalizeOptions(opts)
	key := cache.GenerateCacheKey(routeList, listParams(opts))

	var resp ListResponse
	err := s.cache.Remember(ctx, key, ListTTL, &resp, func(ctx context.Context) (interface{}, error) {
		return s.queryList(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// InitialNotes returns the default first page, the listing the landing
// page requests and the warming scheduler pre-populates.
func (s *Service) InitialNotes(ctx context.Context) (*ListResponse, error) {
	return s.List(ctx, ListOptions{})
}

// Recent returns the newest notes for one semester, served through the
// query cache under its own route.
func (s *Service) Recent(ctx context.Context, semester, limit int) (*ListResponse, error) {
	if semester < 1 || semester > MaxSemester {
		return nil, fmt.Errorf("semester must be between 1 and %d", MaxSemester)
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	params := map[string]string{
		"semester": strconv.Itoa(semester),
		"limit":    strconv.Itoa(limit),
	}
	key := cache.GenerateCacheKey(routeRecent, params)

	var resp ListResponse
	err := s.cache.Remember(ctx, key, ListTTL, &resp, func(ctx context.Context) (interface{}, error) {
		return s.queryList(ctx, ListOptions{Semester: semester, Sort: "recent", Limit: limit})
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// FilterOptions returns the distinct subjects, universities, semesters,
// and tags across active notes, served through the query cache.
func (s *Service) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	var opts FilterOptions
	err := s.cache.Remember(ctx, routeFilters, FilterOptionsTTL, &opts, func(ctx context.Context) (interface{}, error) {
		return s.queryFilterOptions(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &opts, nil
}

// Get returns the full note view. Pending and removed notes are only
// visible to their uploader and to moderators. Viewer flags are loaded
// fresh on every call, so the detail view is not cached.
func (s *Service) Get(ctx context.Context, noteID, viewerID string, viewerIsModerator bool) (*NoteDetail, error) {
	var note models.Note
	err := s.db.WithContext(ctx).Preload("User").First(&note, "id = ?", noteID).Error
	if err != nil {
		return nil, err
	}

	if note.Status != models.NoteStatusActive {
		if !viewerIsModerator && note.UserID != viewerID {
			return nil, gorm.ErrRecordNotFound
		}
	}

	detail := &NoteDetail{
		NoteItem:    toNoteItem(note),
		Description: note.Description,
		FileURL:     note.FileURL,
		Status:      note.Status,
	}

	if viewerID != "" {
		var vote models.NoteVote
		if err := s.db.WithContext(ctx).Where("note_id = ? AND user_id = ?", noteID, viewerID).First(&vote).Error; err == nil {
			detail.UserVote = vote.Value
		}
		var saved int64
		s.db.WithContext(ctx).Model(&models.SavedNote{}).
			Where("note_id = ? AND user_id = ?", noteID, viewerID).
			Count(&saved)
		detail.IsSaved = saved > 0
	}

	return detail, nil
}

// Create stores a new note, bumps the uploader's note count, and awards
// upload aura, all in one transaction. Listing caches are invalidated on
// success.
func (s *Service) Create(ctx context.Context, note *models.Note) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(note).Error; err != nil {
			return fmt.Errorf("failed to create note: %w", err)
		}

		err := tx.Model(&models.User{}).
			Where("id = ?", note.UserID).
			UpdateColumn("note_count", gorm.Expr("note_count + 1")).Error
		if err != nil {
			return fmt.Errorf("failed to update note count: %w", err)
		}

		return s.aura.Award(tx, &models.AuraEvent{
			UserID: note.UserID,
			NoteID: &note.ID,
			Type:   models.AuraEventUpload,
		})
	})
	if err != nil {
		return err
	}

	s.InvalidateListings()
	s.aura.InvalidateLeaderboard()
	return nil
}

// Update applies uploader edits to listing metadata. Only the uploader
// may edit a note.
func (s *Service) Update(ctx context.Context, noteID, userID string, updates map[string]interface{}) (*models.Note, error) {
	var note models.Note
	if err := s.db.WithContext(ctx).First(&note, "id = ?", noteID).Error; err != nil {
		return nil, err
	}
	if note.UserID != userID {
		return nil, ErrNotOwner
	}

	if err := s.db.WithContext(ctx).Model(&note).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	s.InvalidateListings()
	return &note, nil
}

// SetStatus moves a note through its moderation lifecycle and
// invalidates listings so removed notes disappear promptly.
func (s *Service) SetStatus(ctx context.Context, noteID string, status models.NoteStatus) error {
	result := s.db.WithContext(ctx).Model(&models.Note{}).
		Where("id = ?", noteID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update note status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	s.InvalidateListings()
	return nil
}

// Delete soft deletes a note. The uploader and moderators may delete.
func (s *Service) Delete(ctx context.Context, noteID, actorID string, actorIsModerator bool) error {
	var note models.Note
	if err := s.db.WithContext(ctx).First(&note, "id = ?", noteID).Error; err != nil {
		return err
	}
	if note.UserID != actorID && !actorIsModerator {
		return ErrNotOwner
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&note).Error; err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND note_count > 0", note.UserID).
			UpdateColumn("note_count", gorm.Expr("note_count - 1")).Error
	})
	if err != nil {
		return err
	}

	s.InvalidateListings()
	return nil
}

// Vote records an up (+1), down (-1), or cleared (0) vote, adjusts the
// note's score, and applies the owner's aura delta in one transaction.
// Voting your own note is rejected. Repeating the current vote is a
// no-op.
func (s *Service) Vote(ctx context.Context, noteID, voterID string, value int) (*VoteResult, error) {
	if value != 1 && value != -1 && value != 0 {
		return nil, fmt.Errorf("vote value must be 1, -1, or 0")
	}

	var result VoteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note models.Note
		if err := tx.First(&note, "id = ?", noteID).Error; err != nil {
			return err
		}
		if note.Status != models.NoteStatusActive {
			return gorm.ErrRecordNotFound
		}
		if note.UserID == voterID {
			return ErrSelfVote
		}

		oldValue := 0
		var existing models.NoteVote
		err := tx.Where("note_id = ? AND user_id = ?", noteID, voterID).First(&existing).Error
		if err == nil {
			oldValue = existing.Value
		} else if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to load existing vote: %w", err)
		}

		if value == oldValue {
			result = VoteResult{VoteScore: note.VoteScore, UserVote: value}
			return nil
		}

		switch {
		case value == 0:
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("failed to clear vote: %w", err)
			}
		case oldValue == 0:
			vote := models.NoteVote{NoteID: noteID, UserID: voterID, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}
		default:
			existing.Value = value
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to update vote: %w", err)
			}
		}

		scoreDelta := value - oldValue
		err = tx.Model(&models.Note{}).
			Where("id = ?", noteID).
			UpdateColumn("vote_score", gorm.Expr("vote_score + ?", scoreDelta)).Error
		if err != nil {
			return fmt.Errorf("failed to update vote score: %w", err)
		}

		if err := s.applyVoteAura(tx, &note, voterID, oldValue, value); err != nil {
			return err
		}

		result = VoteResult{VoteScore: note.VoteScore + scoreDelta, UserVote: value}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateListings()
	s.aura.InvalidateLeaderboard()
	return &result, nil
}

// applyVoteAura keeps the owner's aura consistent with their ledger when
// a vote is created, changed, or cleared. The delta between the old and
// new vote's point values is recorded as a single event.
func (s *Service) applyVoteAura(tx *gorm.DB, note *models.Note, voterID string, oldValue, newValue int) error {
	points := voteAuraPoints(newValue) - voteAuraPoints(oldValue)
	if points == 0 {
		return nil
	}

	eventType := models.AuraEventUpvoteReceived
	reason := ""
	switch {
	case newValue == 1:
		eventType = models.AuraEventUpvoteReceived
	case newValue == -1:
		eventType = models.AuraEventDownvoteReceived
	case oldValue == 1:
		eventType = models.AuraEventUpvoteReceived
		reason = "vote removed"
	case oldValue == -1:
		eventType = models.AuraEventDownvoteReceived
		reason = "vote removed"
	}

	return s.aura.Award(tx, &models.AuraEvent{
		UserID:  note.UserID,
		ActorID: &voterID,
		NoteID:  &note.ID,
		Type:    eventType,
		Points:  points,
		Reason:  reason,
	})
}

func voteAuraPoints(value int) int {
	switch value {
	case 1:
		return models.AuraPointsUpvoteReceived
	case -1:
		return models.AuraPointsDownvoteReceived
	default:
		return 0
	}
}

// Save bookmarks a note for the user. Saving someone else's note awards
// the owner save aura; saving your own note is a plain bookmark.
func (s *Service) Save(ctx context.Context, noteID, userID string) (*SaveResult, error) {
	var result SaveResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note models.Note
		if err := tx.First(&note, "id = ?", noteID).Error; err != nil {
			return err
		}
		if note.Status != models.NoteStatusActive {
			return gorm.ErrRecordNotFound
		}

		var existing int64
		tx.Model(&models.SavedNote{}).
			Where("note_id = ? AND user_id = ?", noteID, userID).
			Count(&existing)
		if existing > 0 {
			result = SaveResult{SaveCount: note.SaveCount, IsSaved: true}
			return nil
		}

		saved := models.SavedNote{NoteID: noteID, UserID: userID}
		if err := tx.Create(&saved).Error; err != nil {
			return fmt.Errorf("failed to save note: %w", err)
		}

		err := tx.Model(&models.Note{}).
			Where("id = ?", noteID).
			UpdateColumn("save_count", gorm.Expr("save_count + 1")).Error
		if err != nil {
			return fmt.Errorf("failed to update save count: %w", err)
		}

		if note.UserID != userID {
			err = s.aura.Award(tx, &models.AuraEvent{
				UserID:  note.UserID,
				ActorID: &userID,
				NoteID:  &note.ID,
				Type:    models.AuraEventSaveReceived,
			})
			if err != nil {
				return err
			}
		}

		result = SaveResult{SaveCount: note.SaveCount + 1, IsSaved: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateListings()
	s.aura.InvalidateLeaderboard()
	return &result, nil
}

// Unsave removes a bookmark and reverses any save aura it granted.
func (s *Service) Unsave(ctx context.Context, noteID, userID string) (*SaveResult, error) {
	var result SaveResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note models.Note
		if err := tx.First(&note, "id = ?", noteID).Error; err != nil {
			return err
		}

		deleted := tx.Where("note_id = ? AND user_id = ?", noteID, userID).Delete(&models.SavedNote{})
		if deleted.Error != nil {
			return fmt.Errorf("failed to unsave note: %w", deleted.Error)
		}
		if deleted.RowsAffected == 0 {
			result = SaveResult{SaveCount: note.SaveCount, IsSaved: false}
			return nil
		}

		err := tx.Model(&models.Note{}).
			Where("id = ? AND save_count > 0", noteID).
			UpdateColumn("save_count", gorm.Expr("save_count - 1")).Error
		if err != nil {
			return fmt.Errorf("failed to update save count: %w", err)
		}

		if note.UserID != userID {
			err = s.aura.Award(tx, &models.AuraEvent{
				UserID:  note.UserID,
				ActorID: &userID,
				NoteID:  &note.ID,
				Type:    models.AuraEventSaveReceived,
				Points:  -models.AuraPointsSaveReceived,
				Reason:  "save removed",
			})
			if err != nil {
				return err
			}
		}

		result = SaveResult{SaveCount: note.SaveCount - 1, IsSaved: false}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateListings()
	s.aura.InvalidateLeaderboard()
	return &result, nil
}

// SavedNotes returns the user's bookmarks, newest first.
func (s *Service) SavedNotes(ctx context.Context, userID string, limit, offset int) (*ListResponse, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	err := s.db.WithContext(ctx).Model(&models.SavedNote{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count saved notes: %w", err)
	}

	var saved []models.SavedNote
	err = s.db.WithContext(ctx).
		Preload("Note").
		Preload("Note.User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query saved notes: %w", err)
	}

	items := make([]NoteItem, 0, len(saved))
	for _, sn := range saved {
		if sn.Note.Status != models.NoteStatusActive {
			continue
		}
		items = append(items, toNoteItem(sn.Note))
	}

	return &ListResponse{
		Notes: items,
		Meta: ListMeta{
			Limit:   limit,
			Offset:  offset,
			Count:   len(items),
			Total:   total,
			HasMore: int64(offset+len(saved)) < total,
		},
	}, nil
}

// UserNotes returns notes uploaded by one user. Pending and removed
// notes are included only when the viewer is the uploader or a
// moderator.
func (s *Service) UserNotes(ctx context.Context, userID string, includeHidden bool, limit, offset int) (*ListResponse, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	query := s.db.WithContext(ctx).Model(&models.Note{}).Where("user_id = ?", userID)
	if !includeHidden {
		query = query.Where("status = ?", models.NoteStatusActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count user notes: %w", err)
	}

	var found []models.Note
	err := query.
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query user notes: %w", err)
	}

	items := lo.Map(found, func(note models.Note, _ int) NoteItem {
		return toNoteItem(note)
	})

	return &ListResponse{
		Notes: items,
		Meta: ListMeta{
			Limit:   limit,
			Offset:  offset,
			Count:   len(items),
			Total:   total,
			HasMore: int64(offset+len(items)) < total,
		},
	}, nil
}

// RecordDownload bumps the download counter and appends a download row.
// userID is nil for anonymous downloads.
func (s *Service) RecordDownload(ctx context.Context, noteID string, userID *string) (int, error) {
	var count int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note models.Note
		if err := tx.First(&note, "id = ?", noteID).Error; err != nil {
			return err
		}
		if note.Status != models.NoteStatusActive {
			return gorm.ErrRecordNotFound
		}

		err := tx.Model(&models.Note{}).
			Where("id = ?", noteID).
			UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
		if err != nil {
			return fmt.Errorf("failed to update download count: %w", err)
		}

		download := models.NoteDownload{NoteID: noteID, UserID: userID}
		if err := tx.Create(&download).Error; err != nil {
			return fmt.Errorf("failed to record download: %w", err)
		}

		count = note.DownloadCount + 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// InvalidateListings drops every cached note listing. Best effort, in
// process only.
func (s *Service) InvalidateListings() {
	s.cache.ClearByPrefix(routeNotes)
}

// queryList runs the uncached listing query
func (s *Service) queryList(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	query := s.db.WithContext(ctx).Model(&models.Note{}).
		Where("status = ?", models.NoteStatusActive)

	if opts.Subject != "" {
		query = query.Where("subject = ?", opts.Subject)
	}
	if opts.CourseCode != "" {
		query = query.Where("course_code = ?", opts.CourseCode)
	}
	if opts.University != "" {
		query = query.Where("university = ?", opts.University)
	}
	if opts.Semester > 0 {
		query = query.Where("semester = ?", opts.Semester)
	}
	if opts.Tag != "" {
		query = query.Where("? = ANY(tags)", opts.Tag)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	switch opts.Sort {
	case "top":
		query = query.Order("vote_score DESC").Order("created_at DESC")
	case "downloads":
		query = query.Order("download_count DESC").Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var found []models.Note
	err := query.
		Preload("User").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}

	items := lo.Map(found, func(note models.Note, _ int) NoteItem {
		return toNoteItem(note)
	})

	return &ListResponse{
		Notes: items,
		Meta: ListMeta{
			Limit:   opts.Limit,
			Offset:  opts.Offset,
			Count:   len(items),
			Total:   total,
			HasMore: int64(opts.Offset+len(items)) < total,
		},
	}, nil
}

// queryFilterOptions runs the uncached distinct-values queries
func (s *Service) queryFilterOptions(ctx context.Context) (*FilterOptions, error) {
	opts := &FilterOptions{
		Subjects:     []string{},
		Universities: []string{},
		Semesters:    []int{},
		Tags:         []string{},
	}
	base := s.db.WithContext(ctx).Model(&models.Note{}).Where("status = ?", models.NoteStatusActive)

	err := base.Session(&gorm.Session{}).
		Distinct("subject").
		Where("subject <> ''").
		Order("subject ASC").
		Pluck("subject", &opts.Subjects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}

	err = base.Session(&gorm.Session{}).
		Distinct("university").
		Where("university <> ''").
		Order("university ASC").
		Pluck("university", &opts.Universities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query universities: %w", err)
	}

	err = base.Session(&gorm.Session{}).
		Distinct("semester").
		Where("semester > 0").
		Order("semester ASC").
		Pluck("semester", &opts.Semesters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query semesters: %w", err)
	}

	err = s.db.WithContext(ctx).
		Raw("SELECT DISTINCT unnest(tags) AS tag FROM notes WHERE status = ? AND deleted_at IS NULL ORDER BY tag ASC", models.NoteStatusActive).
		Scan(&opts.Tags).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}

	return opts, nil
}

// normalizeOptions clamps pagination and sort to supported values
func normalizeOptions(opts ListOptions) ListOptions {
	if opts.Limit <= 0 || opts.Limit > MaxPageSize {
		opts.Limit = DefaultPageSize
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	switch opts.Sort {
	case "top", "downloads":
	default:
		opts.Sort = "recent"
	}
	return opts
}

// listParams builds the cache key parameters for a normalized ListOptions
func listParams(opts ListOptions) map[string]string {
	params := map[string]string{
		"sort":   opts.Sort,
		"limit":  strconv.Itoa(opts.Limit),
		"offset": strconv.Itoa(opts.Offset),
	}
	if opts.Subject != "" {
		params["subject"] = opts.Subject
	}
	if opts.CourseCode != "" {
		params["course_code"] = opts.CourseCode
	}
	if opts.University != "" {
		params["university"] = opts.University
	}
	if opts.Tag != "" {
		params["tag"] = opts.Tag
	}
	if opts.Semester > 0 {
		params["semester"] = strconv.Itoa(opts.Semester)
	}
	return params
}

// toNoteItem projects a note row onto its listing shape
func toNoteItem(note models.Note) NoteItem {
	return NoteItem{
		ID:            note.ID,
		Title:         note.Title,
		Subject:       note.Subject,
		CourseCode:    note.CourseCode,
		Semester:      note.Semester,
		University:    note.University,
		Tags:          note.Tags,
		FileName:      note.FileName,
		FileSize:      note.FileSize,
		ContentType:   note.ContentType,
		PageCount:     note.PageCount,
		DownloadCount: note.DownloadCount,
		VoteScore:     note.VoteScore,
		SaveCount:     note.SaveCount,
		Uploader: UploaderInfo{
			ID:          note.User.ID,
			Username:    note.User.Username,
			DisplayName: note.User.DisplayName,
			AvatarURL:   note.User.AvatarURL,
			AuraPoints:  note.User.AuraPoints,
		},
		CreatedAt: note.CreatedAt,
	}
}
