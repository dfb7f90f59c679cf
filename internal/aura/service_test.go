package aura

import (
	"context"
	"testing"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/cache"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// AuraServiceTestSuite exercises the reputation ledger against an
// in-memory sqlite database.
type AuraServiceTestSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context
}

func (s *AuraServiceTestSuite) SetupSuite() {
	logger.Initialize("error", "/tmp/uolink-aura-test.log")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)

	ddl := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			username TEXT UNIQUE NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			bio TEXT DEFAULT '',
			university TEXT DEFAULT '',
			major TEXT DEFAULT '',
			semester INTEGER DEFAULT 1,
			graduation_year INTEGER DEFAULT 0,
			interests TEXT,
			password_hash TEXT,
			email_verified BOOLEAN DEFAULT 0,
			google_id TEXT,
			two_factor_enabled BOOLEAN DEFAULT 0,
			two_factor_type TEXT DEFAULT '',
			two_factor_secret TEXT,
			hotp_counter INTEGER DEFAULT 0,
			backup_codes TEXT,
			avatar_url TEXT DEFAULT '',
			social_links TEXT,
			aura_points INTEGER DEFAULT 0,
			note_count INTEGER DEFAULT 0,
			is_moderator BOOLEAN DEFAULT 0,
			is_admin BOOLEAN DEFAULT 0,
			last_active_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE aura_events (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			actor_id TEXT,
			note_id TEXT,
			type TEXT NOT NULL,
			points INTEGER NOT NULL,
			reason TEXT DEFAULT '',
			created_at DATETIME
		)`,
	}
	for _, stmt := range ddl {
		s.Require().NoError(db.Exec(stmt).Error)
	}

	database.DB = db
	cache.NewStore(nil)
	s.service = NewService()
	s.ctx = context.Background()
}

func (s *AuraServiceTestSuite) SetupTest() {
	database.DB.Exec("DELETE FROM aura_events")
	database.DB.Exec("DELETE FROM users")
	cache.GetStore().Flush(s.ctx)
}

func (s *AuraServiceTestSuite) createUser(username string, points int) *models.User {
	user := &models.User{
		Email:      username + "@uni.edu",
		Username:   username,
		University: "Test University",
		AuraPoints: points,
	}
	s.Require().NoError(database.DB.Create(user).Error)
	return user
}

func (s *AuraServiceTestSuite) TestAwardUsesStandardPoints() {
	user := s.createUser("earner", 0)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return s.service.Award(tx, &models.AuraEvent{
			UserID: user.ID,
			Type:   models.AuraEventUpload,
		})
	})
	s.Require().NoError(err)

	var row models.User
	s.Require().NoError(database.DB.First(&row, "id = ?", user.ID).Error)
	s.Equal(models.AuraPointsUpload, row.AuraPoints)

	var event models.AuraEvent
	s.Require().NoError(database.DB.First(&event, "user_id = ?", user.ID).Error)
	s.Equal(models.AuraPointsUpload, event.Points)
}

func (s *AuraServiceTestSuite) TestAwardKeepsExplicitPoints() {
	user := s.createUser("penalized", 50)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return s.service.Award(tx, &models.AuraEvent{
			UserID: user.ID,
			Type:   models.AuraEventSaveReceived,
			Points: -models.AuraPointsSaveReceived,
			Reason: "save removed",
		})
	})
	s.Require().NoError(err)

	var row models.User
	s.Require().NoError(database.DB.First(&row, "id = ?", user.ID).Error)
	s.Equal(50-models.AuraPointsSaveReceived, row.AuraPoints)
}

func (s *AuraServiceTestSuite) TestAdjust() {
	mod := s.createUser("themod", 0)
	target := s.createUser("target", 10)

	_, err := s.service.Adjust(s.ctx, mod.ID, target.ID, 0, "no-op")
	s.Error(err)

	event, err := s.service.Adjust(s.ctx, mod.ID, target.ID, -5, "spam cleanup")
	s.Require().NoError(err)
	s.Equal(models.AuraEventModeratorAdjust, event.Type)
	s.Require().NotNil(event.ActorID)
	s.Equal(mod.ID, *event.ActorID)

	var row models.User
	s.Require().NoError(database.DB.First(&row, "id = ?", target.ID).Error)
	s.Equal(5, row.AuraPoints)
}

func (s *AuraServiceTestSuite) TestLeaderboardRanksAndScopes() {
	s.createUser("third", 10)
	s.createUser("first", 100)
	other := s.createUser("elsewhere", 50)
	s.Require().NoError(database.DB.Model(&models.User{}).Where("id = ?", other.ID).Update("university", "Other University").Error)

	entries, err := s.service.Leaderboard(s.ctx, 10, "")
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal("first", entries[0].Username)
	s.Equal(1, entries[0].Rank)
	s.Equal("elsewhere", entries[1].Username)
	s.Equal("third", entries[2].Username)
	s.Equal(3, entries[2].Rank)

	scoped, err := s.service.Leaderboard(s.ctx, 10, "Test University")
	s.Require().NoError(err)
	s.Require().Len(scoped, 2)
	s.Equal("first", scoped[0].Username)
}

func (s *AuraServiceTestSuite) TestLeaderboardCached() {
	user := s.createUser("cachedtop", 100)

	entries, err := s.service.Leaderboard(s.ctx, 10, "")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(100, entries[0].AuraPoints)

	// Direct writes bypass invalidation; the cached page stays stale.
	s.Require().NoError(database.DB.Model(&models.User{}).Where("id = ?", user.ID).Update("aura_points", 999).Error)

	stale, err := s.service.Leaderboard(s.ctx, 10, "")
	s.Require().NoError(err)
	s.Equal(100, stale[0].AuraPoints)

	s.service.InvalidateLeaderboard()
	fresh, err := s.service.Leaderboard(s.ctx, 10, "")
	s.Require().NoError(err)
	s.Equal(999, fresh[0].AuraPoints)
}

func (s *AuraServiceTestSuite) TestHistoryPagination() {
	mod := s.createUser("historymod", 0)
	user := s.createUser("historic", 0)

	for i := 0; i < 5; i++ {
		_, err := s.service.Adjust(s.ctx, mod.ID, user.ID, 1, "drip")
		s.Require().NoError(err)
	}

	events, total, err := s.service.History(s.ctx, user.ID, 3, 0)
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Len(events, 3)

	rest, _, err := s.service.History(s.ctx, user.ID, 3, 3)
	s.Require().NoError(err)
	s.Len(rest, 2)

	// The moderator's own ledger is untouched.
	_, modTotal, err := s.service.History(s.ctx, mod.ID, 10, 0)
	s.Require().NoError(err)
	s.Zero(modTotal)
}

func TestAuraServiceSuite(t *testing.T) {
	suite.Run(t, new(AuraServiceTestSuite))
}
