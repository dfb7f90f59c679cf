package timetable

import (
	"context"
	"testing"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type TimetableServiceTestSuite struct {
	suite.Suite
	service *Service
}

func (s *TimetableServiceTestSuite) SetupSuite() {
	logger.Initialize("error", "/tmp/uolink-timetable-test.log")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)

	s.Require().NoError(db.Exec(`CREATE TABLE timetable_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		day_of_week INTEGER NOT NULL,
		start_minute INTEGER NOT NULL,
		end_minute INTEGER NOT NULL,
		course_code TEXT NOT NULL,
		title TEXT DEFAULT '',
		location TEXT DEFAULT '',
		instructor TEXT DEFAULT '',
		color TEXT DEFAULT '',
		semester INTEGER DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)

	database.DB = db
	s.service = NewService()
}

func (s *TimetableServiceTestSuite) SetupTest() {
	database.DB.Exec("DELETE FROM timetable_entries")
}

func slot(day, start, end int, course string) EntryInput {
	return EntryInput{
		DayOfWeek:   day,
		StartMinute: start,
		EndMinute:   end,
		CourseCode:  course,
	}
}

func (s *TimetableServiceTestSuite) TestCreateAndList() {
	ctx := context.Background()

	// Monday 9:00-10:30 and 11:00-12:00
	_, err := s.service.Create(ctx, "u1", slot(0, 540, 630, "CS-301"))
	s.Require().NoError(err)
	_, err = s.service.Create(ctx, "u1", slot(0, 660, 720, "MATH-210"))
	s.Require().NoError(err)

	entries, err := s.service.List(ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("CS-301", entries[0].CourseCode)
	s.Equal("MATH-210", entries[1].CourseCode)
}

func (s *TimetableServiceTestSuite) TestOverlapRejected() {
	ctx := context.Background()

	_, err := s.service.Create(ctx, "u1", slot(1, 540, 630, "CS-301"))
	s.Require().NoError(err)

	// Fully inside
	_, err = s.service.Create(ctx, "u1", slot(1, 560, 600, "PHY-101"))
	s.ErrorIs(err, ErrOverlap)

	// Straddles the start
	_, err = s.service.Create(ctx, "u1", slot(1, 500, 560, "PHY-101"))
	s.ErrorIs(err, ErrOverlap)

	// Straddles the end
	_, err = s.service.Create(ctx, "u1", slot(1, 620, 700, "PHY-101"))
	s.ErrorIs(err, ErrOverlap)

	// Same slot, different day is fine
	_, err = s.service.Create(ctx, "u1", slot(2, 540, 630, "PHY-101"))
	s.NoError(err)

	// Same slot, different user is fine
	_, err = s.service.Create(ctx, "u2", slot(1, 540, 630, "PHY-101"))
	s.NoError(err)
}

func (s *TimetableServiceTestSuite) TestBackToBackAllowed() {
	ctx := context.Background()

	_, err := s.service.Create(ctx, "u1", slot(3, 540, 630, "CS-301"))
	s.Require().NoError(err)

	// Ends exactly where the next begins
	_, err = s.service.Create(ctx, "u1", slot(3, 630, 720, "MATH-210"))
	s.NoError(err)
}

func (s *TimetableServiceTestSuite) TestUpdateRechecksOverlap() {
	ctx := context.Background()

	first, err := s.service.Create(ctx, "u1", slot(0, 540, 630, "CS-301"))
	s.Require().NoError(err)
	second, err := s.service.Create(ctx, "u1", slot(0, 660, 720, "MATH-210"))
	s.Require().NoError(err)

	// Moving second onto first fails
	_, err = s.service.Update(ctx, "u1", second.ID, slot(0, 600, 660, "MATH-210"))
	s.ErrorIs(err, ErrOverlap)

	// An entry may be updated in place without colliding with itself
	updated, err := s.service.Update(ctx, "u1", first.ID, EntryInput{
		DayOfWeek:   0,
		StartMinute: 540,
		EndMinute:   630,
		CourseCode:  "CS-301",
		Location:    "Room 204",
	})
	s.Require().NoError(err)
	s.Equal("Room 204", updated.Location)
}

func (s *TimetableServiceTestSuite) TestUpdateUnknownEntry() {
	_, err := s.service.Update(context.Background(), "u1", "missing-id", slot(0, 540, 630, "CS-301"))
	s.ErrorIs(err, ErrNotFound)
}

func (s *TimetableServiceTestSuite) TestDelete() {
	ctx := context.Background()

	entry, err := s.service.Create(ctx, "u1", slot(4, 540, 630, "CS-301"))
	s.Require().NoError(err)

	// Another user can't delete it
	s.ErrorIs(s.service.Delete(ctx, "u2", entry.ID), ErrNotFound)

	s.Require().NoError(s.service.Delete(ctx, "u1", entry.ID))
	s.ErrorIs(s.service.Delete(ctx, "u1", entry.ID), ErrNotFound)

	entries, err := s.service.List(ctx, "u1")
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *TimetableServiceTestSuite) TestInvalidSlots() {
	ctx := context.Background()

	cases := []EntryInput{
		slot(7, 540, 630, "CS-301"),  // bad day
		slot(-1, 540, 630, "CS-301"), // bad day
		slot(0, 630, 540, "CS-301"),  // start after end
		slot(0, 540, 540, "CS-301"),  // zero length
		slot(0, -10, 60, "CS-301"),   // negative start
		slot(0, 1380, 1500, "CS-301"), // past midnight
		slot(0, 540, 630, ""),         // missing course code
	}
	for _, in := range cases {
		_, err := s.service.Create(ctx, "u1", in)
		s.ErrorIs(err, ErrInvalidSlot)
	}
}

func TestTimetableServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TimetableServiceTestSuite))
}
