package aura

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/cache"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"gorm.io/gorm"
)

const (
	// LeaderboardLimit is the default leaderboard page size and the size
	// warmed by the cache warming scheduler.
	LeaderboardLimit = 20

	// LeaderboardTTL keeps warmed entries alive across warming passes.
	LeaderboardTTL = 15 * time.Minute

	// routeLeaderboard is the cache key route for leaderboard queries.
	routeLeaderboard = "leaderboard"
)

// LeaderboardEntry is one row of the aura leaderboard
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	University  string `json:"university,omitempty"`
	AuraPoints  int    `json:"aura_points"`
	NoteCount   int    `json:"note_count"`
}

// Service owns the aura ledger: awarding points, the leaderboard, and
// per-user history. users.aura_points is only ever changed through Award
// or Adjust so the ledger and the denormalized total stay consistent.
type Service struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewService creates a new aura service
func NewService() *Service {
	return &Service{
		db:    database.DB,
		cache: cache.GetStore(),
	}
}

// PointsFor returns the standard point value for an event type. Moderator
// adjustments have no standard value and return 0.
func PointsFor(eventType models.AuraEventType) int {
	switch eventType {
	case models.AuraEventUpload:
		return models.AuraPointsUpload
	case models.AuraEventUpvoteReceived:
		return models.AuraPointsUpvoteReceived
	case models.AuraEventDownvoteReceived:
		return models.AuraPointsDownvoteReceived
	case models.AuraEventSaveReceived:
		return models.AuraPointsSaveReceived
	case models.AuraEventReportActioned:
		return models.AuraPointsReportActioned
	default:
		return 0
	}
}

// Award inserts an aura event and applies its points to the user's total
// inside the caller's transaction. When event.Points is zero the standard
// value for the event type is used.
func (s *Service) Award(tx *gorm.DB, event *models.AuraEvent) error {
	if event.Points == 0 {
		event.Points = PointsFor(event.Type)
	}

	if err := tx.Create(event).Error; err != nil {
		return fmt.Errorf("failed to record aura event: %w", err)
	}

	err := tx.Model(&models.User{}).
		Where("id = ?", event.UserID).
		UpdateColumn("aura_points", gorm.Expr("aura_points + ?", event.Points)).Error
	if err != nil {
		return fmt.Errorf("failed to apply aura points: %w", err)
	}

	return nil
}

// Adjust applies a moderator adjustment in its own transaction and
// invalidates the cached leaderboard.
func (s *Service) Adjust(ctx context.Context, moderatorID, userID string, points int, reason string) (*models.AuraEvent, error) {
	if points == 0 {
		return nil, fmt.Errorf("adjustment points must be non-zero")
	}

	event := &models.AuraEvent{
		UserID:  userID,
		ActorID: &moderatorID,
		Type:    models.AuraEventModeratorAdjust,
		Points:  points,
		Reason:  reason,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.Award(tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateLeaderboard()
	return event, nil
}

// Leaderboard returns the top users by aura points, optionally scoped to
// one university. Results are served through the query cache.
func (s *Service) Leaderboard(ctx context.Context, limit int, university string) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = LeaderboardLimit
	}

	params := map[string]string{"limit": strconv.Itoa(limit)}
	if university != "" {
		params["university"] = university
	}
	key := cache.GenerateCacheKey(routeLeaderboard, params)

	var entries []LeaderboardEntry
	err := s.cache.Remember(ctx, key, LeaderboardTTL, &entries, func(ctx context.Context) (interface{}, error) {
		return s.queryLeaderboard(ctx, limit, university)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// queryLeaderboard runs the uncached leaderboard query
func (s *Service) queryLeaderboard(ctx context.Context, limit int, university string) ([]LeaderboardEntry, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).
		Select("id", "username", "display_name", "avatar_url", "university", "aura_points", "note_count").
		Order("aura_points DESC").
		Order("created_at ASC").
		Limit(limit)
	if university != "" {
		query = query.Where("university = ?", university)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:        i + 1,
			UserID:      user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
			AvatarURL:   user.AvatarURL,
			University:  user.University,
			AuraPoints:  user.AuraPoints,
			NoteCount:   user.NoteCount,
		})
	}
	return entries, nil
}

// History returns a page of the user's aura ledger, newest first, with
// the total event count for pagination.
func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]models.AuraEvent, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	err := s.db.WithContext(ctx).Model(&models.AuraEvent{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count aura events: %w", err)
	}

	var events []models.AuraEvent
	err = s.db.WithContext(ctx).
		Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query aura history: %w", err)
	}

	return events, total, nil
}

// InvalidateLeaderboard drops cached leaderboard pages. Best effort, in
// process only.
func (s *Service) InvalidateLeaderboard() {
	s.cache.ClearByPrefix(routeLeaderboard)
}
