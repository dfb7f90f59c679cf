package notes

import (
	"context"
	"fmt"
	"testing"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/aura"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/cache"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NotesServiceTestSuite exercises listings, the note lifecycle, and
// engagement against an in-memory sqlite database. Tables are created by
// hand because the models carry postgres column types that AutoMigrate
// cannot express on sqlite.
type NotesServiceTestSuite struct {
	suite.Suite
	service *Service
	aura    *aura.Service
	ctx     context.Context
}

func (s *NotesServiceTestSuite) SetupSuite() {
	logger.Initialize("error", "/tmp/uolink-notes-test.log")

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
		`CREATE TABLE notes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT DEFAULT '',
			subject TEXT DEFAULT '',
			course_code TEXT DEFAULT '',
			semester INTEGER DEFAULT 0,
			university TEXT DEFAULT '',
			tags TEXT,
			file_key TEXT NOT NULL DEFAULT '',
			file_url TEXT NOT NULL DEFAULT '',
			file_name TEXT DEFAULT '',
			file_size INTEGER DEFAULT 0,
			content_type TEXT DEFAULT '',
			page_count INTEGER DEFAULT 0,
			download_count INTEGER DEFAULT 0,
			vote_score INTEGER DEFAULT 0,
			save_count INTEGER DEFAULT 0,
			status TEXT DEFAULT 'active',
			moderation_labels TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE note_votes (
			id TEXT PRIMARY KEY,
			note_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			value INTEGER NOT NULL,
			created_at DATETIME,
			updated_at DATETIME,
			UNIQUE(note_id, user_id)
		)`,
		`CREATE TABLE saved_notes (
			id TEXT PRIMARY KEY,
			note_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created_at DATETIME,
			UNIQUE(note_id, user_id)
		)`,
		`CREATE TABLE note_downloads (
			id TEXT PRIMARY KEY,
			note_id TEXT NOT NULL,
			user_id TEXT,
			created_at DATETIME
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
	s.aura = aura.NewService()
	s.service = NewService(s.aura)
	s.ctx = context.Background()
}

func (s *NotesServiceTestSuite) SetupTest() {
	for _, table := range []string{"aura_events", "note_downloads", "saved_notes", "note_votes", "notes", "users"} {
		database.DB.Exec("DELETE FROM " + table)
	}
	cache.GetStore().Flush(s.ctx)
}

func (s *NotesServiceTestSuite) createUser(username string) *models.User {
	user := &models.User{
		Email:       username + "@uni.edu",
		Username:    username,
		DisplayName: "Student " + username,
		University:  "Test University",
	}
	s.Require().NoError(database.DB.Create(user).Error)
	return user
}

func (s *NotesServiceTestSuite) createNote(userID, title string, mutate ...func(*models.Note)) *models.Note {
	note := &models.Note{
		UserID:     userID,
		Title:      title,
		Subject:    "Operating Systems",
		CourseCode: "CS301",
		Semester:   5,
		University: "Test University",
		FileKey:    "notes/" + title,
		FileURL:    "https://cdn.example.com/notes/" + title,
		FileName:   title + ".pdf",
	}
	for _, fn := range mutate {
		fn(note)
	}
	s.Require().NoError(s.service.Create(s.ctx, note))
	return note
}

func (s *NotesServiceTestSuite) userAura(userID string) int {
	var user models.User
	s.Require().NoError(database.DB.First(&user, "id = ?", userID).Error)
	return user.AuraPoints
}

func (s *NotesServiceTestSuite) TestCreateAwardsUploadAura() {
	uploader := s.createUser("uploader")
	note := s.createNote(uploader.ID, "os-scheduling")

	s.NotEmpty(note.ID)
	s.Equal(models.NoteStatusActive, note.Status)

	var user models.User
	s.Require().NoError(database.DB.First(&user, "id = ?", uploader.ID).Error)
	s.Equal(1, user.NoteCount)
	s.Equal(models.AuraPointsUpload, user.AuraPoints)

	var events []models.AuraEvent
	s.Require().NoError(database.DB.Find(&events, "user_id = ?", uploader.ID).Error)
	s.Require().Len(events, 1)
	s.Equal(models.AuraEventUpload, events[0].Type)
	s.Equal(models.AuraPointsUpload, events[0].Points)
}

func (s *NotesServiceTestSuite) TestListFilters() {
	uploader := s.createUser("lister")
	s.createNote(uploader.ID, "os-notes")
	s.createNote(uploader.ID, "db-notes", func(n *models.Note) {
		n.Subject = "Databases"
		n.CourseCode = "CS305"
		n.Semester = 6
	})

	all, err := s.service.List(s.ctx, ListOptions{})
	s.Require().NoError(err)
	s.Len(all.Notes, 2)
	s.Equal(int64(2), all.Meta.Total)

	db, err := s.service.List(s.ctx, ListOptions{Subject: "Databases"})
	s.Require().NoError(err)
	s.Require().Len(db.Notes, 1)
	s.Equal("db-notes", db.Notes[0].Title)
	s.Equal("lister", db.Notes[0].Uploader.Username)

	sem, err := s.service.List(s.ctx, ListOptions{Semester: 5})
	s.Require().NoError(err)
	s.Require().Len(sem.Notes, 1)
	s.Equal("os-notes", sem.Notes[0].Title)
}

func (s *NotesServiceTestSuite) TestListServedFromCache() {
	uploader := s.createUser("cacher")
	s.createNote(uploader.ID, "first")

	initial, err := s.service.List(s.ctx, ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(initial.Notes, 1)

	// Insert behind the service's back; the cached page must not see it.
	hidden := &models.Note{UserID: uploader.ID, Title: "sneaky", FileKey: "k", FileURL: "u"}
	s.Require().NoError(database.DB.Create(hidden).Error)

	cached, err := s.service.List(s.ctx, ListOptions{})
	s.Require().NoError(err)
	s.Len(cached.Notes, 1)

	s.service.InvalidateListings()
	fresh, err := s.service.List(s.ctx, ListOptions{})
	s.Require().NoError(err)
	s.Len(fresh.Notes, 2)
}

func (s *NotesServiceTestSuite) TestListSortsByScore() {
	uploader := s.createUser("sorter")
	low := s.createNote(uploader.ID, "low")
	high := s.createNote(uploader.ID, "high")
	s.Require().NoError(database.DB.Model(&models.Note{}).Where("id = ?", high.ID).Update("vote_score", 9).Error)
	s.Require().NoError(database.DB.Model(&models.Note{}).Where("id = ?", low.ID).Update("vote_score", 1).Error)
	s.service.InvalidateListings()

	top, err := s.service.List(s.ctx, ListOptions{Sort: "top"})
	s.Require().NoError(err)
	s.Require().Len(top.Notes, 2)
	s.Equal("high", top.Notes[0].Title)
}

func (s *NotesServiceTestSuite) TestRecentValidatesSemester() {
	_, err := s.service.Recent(s.ctx, 0, 10)
	s.Error(err)
	_, err = s.service.Recent(s.ctx, MaxSemester+1, 10)
	s.Error(err)

	uploader := s.createUser("recenter")
	s.createNote(uploader.ID, "sem5")
	resp, err := s.service.Recent(s.ctx, 5, 10)
	s.Require().NoError(err)
	s.Len(resp.Notes, 1)
}

func (s *NotesServiceTestSuite) TestGetHidesPendingFromStrangers() {
	uploader := s.createUser("owner")
	stranger := s.createUser("stranger")
	mod := s.createUser("moderator")
	note := s.createNote(uploader.ID, "pending-note", func(n *models.Note) {
		n.Status = models.NoteStatusPending
	})

	_, err := s.service.Get(s.ctx, note.ID, stranger.ID, false)
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	own, err := s.service.Get(s.ctx, note.ID, uploader.ID, false)
	s.Require().NoError(err)
	s.Equal(models.NoteStatusPending, own.Status)

	reviewed, err := s.service.Get(s.ctx, note.ID, mod.ID, true)
	s.Require().NoError(err)
	s.Equal(note.ID, reviewed.ID)
}

func (s *NotesServiceTestSuite) TestVoteLifecycle() {
	uploader := s.createUser("voted")
	voter := s.createUser("voter")
	note := s.createNote(uploader.ID, "vote-target")
	baseline := s.userAura(uploader.ID)

	up, err := s.service.Vote(s.ctx, note.ID, voter.ID, 1)
	s.Require().NoError(err)
	s.Equal(1, up.VoteScore)
	s.Equal(1, up.UserVote)
	s.Equal(baseline+models.AuraPointsUpvoteReceived, s.userAura(uploader.ID))

	// Repeating the same vote changes nothing.
	again, err := s.service.Vote(s.ctx, note.ID, voter.ID, 1)
	s.Require().NoError(err)
	s.Equal(1, again.VoteScore)
	s.Equal(baseline+models.AuraPointsUpvoteReceived, s.userAura(uploader.ID))

	down, err := s.service.Vote(s.ctx, note.ID, voter.ID, -1)
	s.Require().NoError(err)
	s.Equal(-1, down.VoteScore)
	s.Equal(baseline+models.AuraPointsDownvoteReceived, s.userAura(uploader.ID))

	cleared, err := s.service.Vote(s.ctx, note.ID, voter.ID, 0)
	s.Require().NoError(err)
	s.Equal(0, cleared.VoteScore)
	s.Equal(0, cleared.UserVote)
	s.Equal(baseline, s.userAura(uploader.ID))
}

func (s *NotesServiceTestSuite) TestVoteRejectsSelfAndBadValues() {
	uploader := s.createUser("selfvoter")
	note := s.createNote(uploader.ID, "own-note")

	_, err := s.service.Vote(s.ctx, note.ID, uploader.ID, 1)
	s.ErrorIs(err, ErrSelfVote)

	other := s.createUser("othervoter")
	_, err = s.service.Vote(s.ctx, note.ID, other.ID, 5)
	s.Error(err)
}

func (s *NotesServiceTestSuite) TestSaveAndUnsave() {
	uploader := s.createUser("savee")
	saver := s.createUser("saver")
	note := s.createNote(uploader.ID, "save-target")
	baseline := s.userAura(uploader.ID)

	saved, err := s.service.Save(s.ctx, note.ID, saver.ID)
	s.Require().NoError(err)
	s.Equal(1, saved.SaveCount)
	s.True(saved.IsSaved)
	s.Equal(baseline+models.AuraPointsSaveReceived, s.userAura(uploader.ID))

	// Double save is a no-op.
	dup, err := s.service.Save(s.ctx, note.ID, saver.ID)
	s.Require().NoError(err)
	s.Equal(1, dup.SaveCount)
	s.Equal(baseline+models.AuraPointsSaveReceived, s.userAura(uploader.ID))

	unsaved, err := s.service.Unsave(s.ctx, note.ID, saver.ID)
	s.Require().NoError(err)
	s.Equal(0, unsaved.SaveCount)
	s.False(unsaved.IsSaved)
	s.Equal(baseline, s.userAura(uploader.ID))
}

func (s *NotesServiceTestSuite) TestSelfSaveAwardsNothing() {
	uploader := s.createUser("selfsaver")
	note := s.createNote(uploader.ID, "bookmark")
	baseline := s.userAura(uploader.ID)

	result, err := s.service.Save(s.ctx, note.ID, uploader.ID)
	s.Require().NoError(err)
	s.True(result.IsSaved)
	s.Equal(baseline, s.userAura(uploader.ID))
}

func (s *NotesServiceTestSuite) TestSavedNotesSkipsRemoved() {
	uploader := s.createUser("savedlister")
	saver := s.createUser("savedsaver")
	keep := s.createNote(uploader.ID, "keep")
	gone := s.createNote(uploader.ID, "gone")

	_, err := s.service.Save(s.ctx, keep.ID, saver.ID)
	s.Require().NoError(err)
	_, err = s.service.Save(s.ctx, gone.ID, saver.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.service.SetStatus(s.ctx, gone.ID, models.NoteStatusRemoved))

	resp, err := s.service.SavedNotes(s.ctx, saver.ID, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(resp.Notes, 1)
	s.Equal("keep", resp.Notes[0].Title)
}

func (s *NotesServiceTestSuite) TestUserNotesHiddenVisibility() {
	uploader := s.createUser("profiled")
	s.createNote(uploader.ID, "visible")
	s.createNote(uploader.ID, "hidden", func(n *models.Note) {
		n.Status = models.NoteStatusPending
	})

	public, err := s.service.UserNotes(s.ctx, uploader.ID, false, 10, 0)
	s.Require().NoError(err)
	s.Len(public.Notes, 1)

	own, err := s.service.UserNotes(s.ctx, uploader.ID, true, 10, 0)
	s.Require().NoError(err)
	s.Len(own.Notes, 2)
}

func (s *NotesServiceTestSuite) TestUpdateRequiresOwner() {
	uploader := s.createUser("editor")
	other := s.createUser("noteditor")
	note := s.createNote(uploader.ID, "editable")

	_, err := s.service.Update(s.ctx, note.ID, other.ID, map[string]interface{}{"title": "stolen"})
	s.ErrorIs(err, ErrNotOwner)

	_, err = s.service.Update(s.ctx, note.ID, uploader.ID, map[string]interface{}{"title": "renamed"})
	s.Require().NoError(err)

	var row models.Note
	s.Require().NoError(database.DB.First(&row, "id = ?", note.ID).Error)
	s.Equal("renamed", row.Title)
}

func (s *NotesServiceTestSuite) TestDeleteDecrementsNoteCount() {
	uploader := s.createUser("deleter")
	other := s.createUser("notdeleter")
	note := s.createNote(uploader.ID, "doomed")

	s.ErrorIs(s.service.Delete(s.ctx, note.ID, other.ID, false), ErrNotOwner)
	s.Require().NoError(s.service.Delete(s.ctx, note.ID, other.ID, true))

	var user models.User
	s.Require().NoError(database.DB.First(&user, "id = ?", uploader.ID).Error)
	s.Equal(0, user.NoteCount)

	_, err := s.service.Get(s.ctx, note.ID, uploader.ID, false)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *NotesServiceTestSuite) TestRecordDownload() {
	uploader := s.createUser("downloaded")
	reader := s.createUser("reader")
	note := s.createNote(uploader.ID, "dl-target")

	count, err := s.service.RecordDownload(s.ctx, note.ID, &reader.ID)
	s.Require().NoError(err)
	s.Equal(1, count)

	// Anonymous downloads count too.
	count, err = s.service.RecordDownload(s.ctx, note.ID, nil)
	s.Require().NoError(err)
	s.Equal(2, count)

	var rows int64
	database.DB.Model(&models.NoteDownload{}).Where("note_id = ?", note.ID).Count(&rows)
	s.Equal(int64(2), rows)

	s.Require().NoError(s.service.SetStatus(s.ctx, note.ID, models.NoteStatusRemoved))
	_, err = s.service.RecordDownload(s.ctx, note.ID, nil)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *NotesServiceTestSuite) TestPaginationMeta() {
	uploader := s.createUser("paginator")
	for i := 0; i < 25; i++ {
		s.createNote(uploader.ID, fmt.Sprintf("note-%02d", i))
	}

	page, err := s.service.List(s.ctx, ListOptions{Limit: 10, Offset: 20})
	s.Require().NoError(err)
	s.Len(page.Notes, 5)
	s.Equal(int64(25), page.Meta.Total)
	s.False(page.Meta.HasMore)

	first, err := s.service.List(s.ctx, ListOptions{Limit: 10})
	s.Require().NoError(err)
	s.Len(first.Notes, 10)
	s.True(first.Meta.HasMore)
}

func TestNotesServiceSuite(t *testing.T) {
	suite.Run(t, new(NotesServiceTestSuite))
}
