package notifications

import (
	"context"
	"testing"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/realtime"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// recordingPusher captures pushed messages instead of delivering them
type recordingPusher struct {
	sent []pushedMessage
}

type pushedMessage struct {
	userID  string
	message *realtime.Message
}

func (p *recordingPusher) SendToUser(userID string, message *realtime.Message) {
	p.sent = append(p.sent, pushedMessage{userID: userID, message: message})
}

func (p *recordingPusher) byType(msgType string) []pushedMessage {
	var out []pushedMessage
	for _, m := range p.sent {
		if m.message.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

type NotificationServiceTestSuite struct {
	suite.Suite
	service *Service
	pusher  *recordingPusher
}

func (s *NotificationServiceTestSuite) SetupSuite() {
	logger.Initialize("error", "/tmp/uolink-notifications-test.log")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)

	s.Require().NoError(db.Exec(`CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT DEFAULT '',
		data TEXT,
		read_at DATETIME,
		created_at DATETIME
	)`).Error)

	database.DB = db
}

func (s *NotificationServiceTestSuite) SetupTest() {
	database.DB.Exec("DELETE FROM notifications")
	s.pusher = &recordingPusher{}
	s.service = NewService(s.pusher)
}

func (s *NotificationServiceTestSuite) TestNotifyStoresAndPushes() {
	n, err := s.service.Notify(context.Background(), "user-1",
		models.NotificationNoteVoted,
		"Your note got an upvote",
		"Someone upvoted Linear Algebra Week 3",
		map[string]interface{}{"note_id": "note-1", "delta": 5},
	)
	s.Require().NoError(err)
	s.NotEmpty(n.ID)

	list, err := s.service.List(context.Background(), "user-1", 10, 0)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(models.NotificationNoteVoted, list[0].Type)
	s.False(list[0].IsRead())

	pushed := s.pusher.byType(realtime.MessageTypeNotification)
	s.Require().Len(pushed, 1)
	s.Equal("user-1", pushed[0].userID)

	counts := s.pusher.byType(realtime.MessageTypeNotificationCount)
	s.Require().Len(counts, 1)
	payload, ok := counts[0].message.Payload.(realtime.NotificationCountPayload)
	s.Require().True(ok)
	s.Equal(1, payload.UnreadCount)
}

func (s *NotificationServiceTestSuite) TestNilPusherStillStores() {
	svc := NewService(nil)
	_, err := svc.Notify(context.Background(), "user-2",
		models.NotificationAuraChanged, "Aura changed", "", nil)
	s.Require().NoError(err)

	count, err := svc.UnreadCount(context.Background(), "user-2")
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *NotificationServiceTestSuite) TestMarkRead() {
	n, err := s.service.Notify(context.Background(), "user-1",
		models.NotificationNoteSaved, "Your note was saved", "", nil)
	s.Require().NoError(err)

	s.Require().NoError(s.service.MarkRead(context.Background(), "user-1", n.ID))

	count, err := s.service.UnreadCount(context.Background(), "user-1")
	s.Require().NoError(err)
	s.Equal(int64(0), count)

	// Marking twice is a no-op
	s.Require().NoError(s.service.MarkRead(context.Background(), "user-1", n.ID))
}

func (s *NotificationServiceTestSuite) TestMarkReadRejectsOtherUsers() {
	n, err := s.service.Notify(context.Background(), "user-1",
		models.NotificationNoteRemoved, "Note removed", "", nil)
	s.Require().NoError(err)

	err = s.service.MarkRead(context.Background(), "user-2", n.ID)
	s.ErrorIs(err, ErrNotFound)

	// Still unread for the owner
	count, err := s.service.UnreadCount(context.Background(), "user-1")
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *NotificationServiceTestSuite) TestMarkAllRead() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.service.Notify(ctx, "user-1", models.NotificationAuraChanged, "Aura changed", "", nil)
		s.Require().NoError(err)
	}
	_, err := s.service.Notify(ctx, "user-2", models.NotificationAuraChanged, "Aura changed", "", nil)
	s.Require().NoError(err)

	affected, err := s.service.MarkAllRead(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(int64(3), affected)

	count, err := s.service.UnreadCount(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(int64(0), count)

	// Other users untouched
	count, err = s.service.UnreadCount(ctx, "user-2")
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *NotificationServiceTestSuite) TestListPagination() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.service.Notify(ctx, "user-1", models.NotificationNoteVoted, "Vote", "", nil)
		s.Require().NoError(err)
	}

	page1, err := s.service.List(ctx, "user-1", 3, 0)
	s.Require().NoError(err)
	s.Len(page1, 3)

	page2, err := s.service.List(ctx, "user-1", 3, 3)
	s.Require().NoError(err)
	s.Len(page2, 2)
}

func TestNotificationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}
