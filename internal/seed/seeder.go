// Package seed fills the development database with realistic students,
// notes, votes, saves, downloads, and timetables. The aura ledger is
// written alongside the denormalized counters so seeded data obeys the
// same bookkeeping as live traffic.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

var universities = []string{
	"National University of Sciences and Technology",
	"Lahore University of Management Sciences",
	"University of the Punjab",
	"COMSATS University",
	"Institute of Business Administration",
}

var majors = []string{
	"Computer Science", "Software Engineering", "Electrical Engineering",
	"Business Administration", "Mathematics", "Physics", "Economics",
}

var subjects = map[string][]string{
	"Operating Systems":      {"CS301", "CS302"},
	"Data Structures":        {"CS201", "CS202"},
	"Database Systems":       {"CS305", "CS306"},
	"Computer Networks":      {"CS401"},
	"Linear Algebra":         {"MATH201"},
	"Calculus":               {"MATH101", "MATH102"},
	"Digital Logic Design":   {"EE221"},
	"Microeconomics":         {"ECON101"},
	"Financial Accounting":   {"ACC201"},
	"Software Engineering":   {"SE301", "SE302"},
	"Artificial Intelligence": {"CS451"},
}

var noteTags = []string{
	"exam-prep", "midterm", "final", "lecture-notes", "solved-examples",
	"cheat-sheet", "lab-manual", "past-papers", "summary", "handwritten",
}

var noteExtensions = []string{".pdf", ".docx", ".pptx", ".md"}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) { logger.Log.Info(msg) }

	log("Creating users...")
	users, err := s.seedUsers(100)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating notes...")
	notes, err := s.seedNotesWithVariedDistribution(users, 400)
	if err != nil {
		return fmt.Errorf("failed to seed notes: %w", err)
	}

	log("Creating votes...")
	if err := s.seedVotes(users, notes, 2000); err != nil {
		return fmt.Errorf("failed to seed votes: %w", err)
	}

	log("Creating saves...")
	if err := s.seedSaves(users, notes, 800); err != nil {
		return fmt.Errorf("failed to seed saves: %w", err)
	}

	log("Creating downloads...")
	if err := s.seedDownloads(users, notes, 3000); err != nil {
		return fmt.Errorf("failed to seed downloads: %w", err)
	}

	log("Creating timetables...")
	if err := s.seedTimetables(users); err != nil {
		return fmt.Errorf("failed to seed timetables: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with a small fixed cast
func (s *Seeder) SeedTest() error {
	specs := []struct {
		username    string
		email       string
		displayName string
		moderator   bool
	}{
		{"alice", "alice@example.com", "Alice Smith", true},
		{"bob", "bob@example.com", "Bob Johnson", false},
		{"charlie", "charlie@example.com", "Charlie Brown", false},
		{"diana", "diana@example.com", "Diana Prince", false},
		{"eve", "eve@example.com", "Eve Wilson", false},
	}

	var users []models.User
	for _, spec := range specs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hashedStr := string(hashed)

		user = models.User{
			Email:         spec.email,
			Username:      spec.username,
			DisplayName:   spec.displayName,
			PasswordHash:  &hashedStr,
			EmailVerified: true,
			University:    universities[0],
			Major:         majors[0],
			Semester:      1 + rand.Intn(8),
			IsModerator:   spec.moderator,
			AvatarURL:     fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	if _, err := s.seedNotes(users, 10); err != nil {
		return fmt.Errorf("failed to seed notes: %w", err)
	}
	return nil
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean() error {
	tables := []string{
		"note_downloads", "saved_notes", "note_votes", "aura_events",
		"notifications", "reports", "timetable_entries", "notes",
		"email_verifications", "password_resets", "users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

// seedUsers creates students with realistic academic profiles
func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var users []models.User

	var seedUserCount int64
	s.db.Model(&models.User{}).Where("email LIKE '%@example.com'").Count(&seedUserCount)
	if seedUserCount >= int64(count) {
		if err := s.db.Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing seed users, skipping creation",
			zap.Int("total_users", len(users)))
		return users, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashedStr := string(hashed)

	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := fmt.Sprintf("%s%d@example.com", gofakeit.Username(), i)

		var existing models.User
		for {
			if err := s.db.Where("username = ? OR email = ?", username, email).First(&existing).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
			email = fmt.Sprintf("%s%d@example.com", gofakeit.Username(), i)
		}

		interestCount := 1 + rand.Intn(3)
		interests := make(models.StringArray, 0, interestCount)
		seen := make(map[string]bool)
		for len(interests) < interestCount {
			tag := noteTags[rand.Intn(len(noteTags))]
			if !seen[tag] {
				seen[tag] = true
				interests = append(interests, tag)
			}
		}

		user := models.User{
			Email:          email,
			Username:       username,
			DisplayName:    gofakeit.Name(),
			Bio:            gofakeit.Sentence(10),
			University:     universities[rand.Intn(len(universities))],
			Major:          majors[rand.Intn(len(majors))],
			Semester:       1 + rand.Intn(8),
			GraduationYear: 2026 + rand.Intn(4),
			Interests:      interests,
			PasswordHash:   &hashedStr,
			EmailVerified:  true,
			AvatarURL:      fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			IsModerator:    i == 0, // the first seed user moderates
		}

		lastActive := gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now())
		user.LastActiveAt = &lastActive

		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Created seed users", zap.Int("count", len(users)))
	return users, nil
}

// createNote inserts one note plus the upload ledger entry
func (s *Seeder) createNote(user models.User) (*models.Note, error) {
	subjectNames := make([]string, 0, len(subjects))
	for name := range subjects {
		subjectNames = append(subjectNames, name)
	}
	subject := subjectNames[rand.Intn(len(subjectNames))]
	courses := subjects[subject]
	courseCode := courses[rand.Intn(len(courses))]

	tagCount := 1 + rand.Intn(3)
	tags := make(models.StringArray, 0, tagCount)
	seen := make(map[string]bool)
	for len(tags) < tagCount {
		tag := noteTags[rand.Intn(len(noteTags))]
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	ext := noteExtensions[rand.Intn(len(noteExtensions))]
	key := fmt.Sprintf("notes/%d/%02d/%s/%s%s",
		time.Now().Year(), time.Now().Month(), user.ID, gofakeit.UUID(), ext)

	note := models.Note{
		UserID:      user.ID,
		Title:       fmt.Sprintf("%s %s", subject, gofakeit.RandomString([]string{"Summary", "Lecture Notes", "Exam Prep", "Solved Problems", "Cheat Sheet"})),
		Description: gofakeit.Sentence(15),
		Subject:     subject,
		CourseCode:  courseCode,
		Semester:    1 + rand.Intn(8),
		University:  user.University,
		Tags:        tags,
		FileKey:     key,
		FileURL:     "/" + key,
		FileName:    fmt.Sprintf("%s%s", gofakeit.Word(), ext),
		FileSize:    int64(rand.Intn(5_000_000) + 100_000),
		ContentType: models.NoteFileExtensions[ext],
		PageCount:   1 + rand.Intn(60),
		Status:      models.NoteStatusActive,
	}

	createdAt := gofakeit.DateRange(time.Now().AddDate(0, 0, -60), time.Now())
	note.CreatedAt = createdAt
	note.UpdatedAt = createdAt

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&note).Error; err != nil {
			return err
		}
		event := models.AuraEvent{
			UserID: user.ID,
			NoteID: &note.ID,
			Type:   models.AuraEventUpload,
			Points: models.AuraPointsUpload,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"aura_points": gorm.Expr("aura_points + ?", models.AuraPointsUpload),
			"note_count":  gorm.Expr("note_count + 1"),
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return &note, nil
}

// seedNotes creates count notes spread evenly over users
func (s *Seeder) seedNotes(users []models.User, count int) ([]models.Note, error) {
	var notes []models.Note
	if len(users) == 0 {
		return notes, nil
	}
	for i := 0; i < count; i++ {
		note, err := s.createNote(users[rand.Intn(len(users))])
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	logger.Log.Info("Created notes", zap.Int("count", len(notes)))
	return notes, nil
}

// seedNotesWithVariedDistribution creates notes with a power-law spread:
// a few heavy uploaders, a broad middle, and many lurkers.
func (s *Seeder) seedNotesWithVariedDistribution(users []models.User, totalCount int) ([]models.Note, error) {
	var notes []models.Note
	if len(users) == 0 {
		return notes, nil
	}

	shuffled := make([]models.User, len(users))
	copy(shuffled, users)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	powerCount := len(shuffled) / 10
	activeCount := len(shuffled) * 3 / 10
	created := 0
	idx := 0

	addNotes := func(user models.User, n int) error {
		for j := 0; j < n && created < totalCount; j++ {
			note, err := s.createNote(user)
			if err != nil {
				return err
			}
			notes = append(notes, *note)
			created++
		}
		return nil
	}

	for i := 0; i < powerCount && created < totalCount; i++ {
		if err := addNotes(shuffled[idx], 10+rand.Intn(16)); err != nil {
			return nil, err
		}
		idx++
	}
	for i := 0; i < activeCount && created < totalCount; i++ {
		if err := addNotes(shuffled[idx], 3+rand.Intn(5)); err != nil {
			return nil, err
		}
		idx++
	}
	for idx < len(shuffled) && created < totalCount {
		if err := addNotes(shuffled[idx], rand.Intn(3)); err != nil {
			return nil, err
		}
		idx++
	}
	for created < totalCount {
		if err := addNotes(shuffled[rand.Intn(len(shuffled))], 1); err != nil {
			return nil, err
		}
	}

	logger.Log.Info("Created notes with varied distribution",
		zap.Int("total_notes", len(notes)))
	return notes, nil
}

// seedVotes creates up/down votes, maintaining vote scores and the
// uploader's aura exactly like the live vote path.
func (s *Seeder) seedVotes(users []models.User, notes []models.Note, count int) error {
	if len(users) == 0 || len(notes) == 0 {
		return nil
	}

	created := 0
	for attempts := 0; created < count && attempts < count*3; attempts++ {
		voter := users[rand.Intn(len(users))]
		note := notes[rand.Intn(len(notes))]
		if voter.ID == note.UserID {
			continue
		}

		var existing models.NoteVote
		if err := s.db.Where("note_id = ? AND user_id = ?", note.ID, voter.ID).First(&existing).Error; err == nil {
			continue
		}

		// Upvotes dominate; roughly 1 in 5 votes is a downvote
		value := 1
		auraType := models.AuraEventUpvoteReceived
		points := models.AuraPointsUpvoteReceived
		if rand.Float32() < 0.2 {
			value = -1
			auraType = models.AuraEventDownvoteReceived
			points = models.AuraPointsDownvoteReceived
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			vote := models.NoteVote{NoteID: note.ID, UserID: voter.ID, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Note{}).Where("id = ?", note.ID).
				Update("vote_score", gorm.Expr("vote_score + ?", value)).Error; err != nil {
				return err
			}
			event := models.AuraEvent{
				UserID:  note.UserID,
				ActorID: &voter.ID,
				NoteID:  &note.ID,
				Type:    auraType,
				Points:  points,
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ?", note.UserID).
				Update("aura_points", gorm.Expr("aura_points + ?", points)).Error
		})
		if err != nil {
			return fmt.Errorf("failed to create vote: %w", err)
		}
		created++
	}

	logger.Log.Info("Created votes", zap.Int("count", created))
	return nil
}

// seedSaves bookmarks notes and credits the uploader
func (s *Seeder) seedSaves(users []models.User, notes []models.Note, count int) error {
	if len(users) == 0 || len(notes) == 0 {
		return nil
	}

	created := 0
	for attempts := 0; created < count && attempts < count*3; attempts++ {
		saver := users[rand.Intn(len(users))]
		note := notes[rand.Intn(len(notes))]
		if saver.ID == note.UserID {
			continue
		}

		var existing models.SavedNote
		if err := s.db.Where("note_id = ? AND user_id = ?", note.ID, saver.ID).First(&existing).Error; err == nil {
			continue
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			save := models.SavedNote{NoteID: note.ID, UserID: saver.ID}
			if err := tx.Create(&save).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Note{}).Where("id = ?", note.ID).
				Update("save_count", gorm.Expr("save_count + 1")).Error; err != nil {
				return err
			}
			event := models.AuraEvent{
				UserID:  note.UserID,
				ActorID: &saver.ID,
				NoteID:  &note.ID,
				Type:    models.AuraEventSaveReceived,
				Points:  models.AuraPointsSaveReceived,
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ?", note.UserID).
				Update("aura_points", gorm.Expr("aura_points + ?", models.AuraPointsSaveReceived)).Error
		})
		if err != nil {
			return fmt.Errorf("failed to create save: %w", err)
		}
		created++
	}

	logger.Log.Info("Created saves", zap.Int("count", created))
	return nil
}

// seedDownloads records downloads, about a third of them anonymous
func (s *Seeder) seedDownloads(users []models.User, notes []models.Note, count int) error {
	if len(notes) == 0 {
		return nil
	}

	for i := 0; i < count; i++ {
		note := notes[rand.Intn(len(notes))]

		download := models.NoteDownload{NoteID: note.ID}
		if rand.Float32() > 0.33 && len(users) > 0 {
			userID := users[rand.Intn(len(users))].ID
			download.UserID = &userID
		}
		download.CreatedAt = gofakeit.DateRange(note.CreatedAt, time.Now())

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&download).Error; err != nil {
				return err
			}
			return tx.Model(&models.Note{}).Where("id = ?", note.ID).
				Update("download_count", gorm.Expr("download_count + 1")).Error
		})
		if err != nil {
			return fmt.Errorf("failed to create download: %w", err)
		}
	}

	logger.Log.Info("Created downloads", zap.Int("count", count))
	return nil
}

// seedTimetables gives each user a clash-free weekly schedule built
// from hour-aligned slots.
func (s *Seeder) seedTimetables(users []models.User) error {
	colors := []string{"#4F46E5", "#059669", "#DC2626", "#D97706", "#7C3AED", "#0891B2"}

	for _, user := range users {
		var existing int64
		s.db.Model(&models.TimetableEntry{}).Where("user_id = ?", user.ID).Count(&existing)
		if existing > 0 {
			continue
		}

		entryCount := 3 + rand.Intn(3)
		type slot struct{ day, hour int }
		used := make(map[slot]bool)

		for len(used) < entryCount {
			sl := slot{day: rand.Intn(5), hour: 8 + rand.Intn(9)} // 08:00-17:00, Mon-Fri
			if used[sl] {
				continue
			}
			used[sl] = true

			subjectNames := make([]string, 0, len(subjects))
			for name := range subjects {
				subjectNames = append(subjectNames, name)
			}
			subject := subjectNames[rand.Intn(len(subjectNames))]
			courses := subjects[subject]

			entry := models.TimetableEntry{
				UserID:      user.ID,
				DayOfWeek:   sl.day,
				StartMinute: sl.hour * 60,
				EndMinute:   sl.hour*60 + 50, // 50 minute classes keep hour slots clash-free
				CourseCode:  courses[rand.Intn(len(courses))],
				Title:       subject,
				Location:    fmt.Sprintf("Room %d%02d", 1+rand.Intn(4), 1+rand.Intn(30)),
				Instructor:  "Dr. " + gofakeit.LastName(),
				Color:       colors[rand.Intn(len(colors))],
				Semester:    user.Semester,
			}
			if err := s.db.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to create timetable entry: %w", err)
			}
		}
	}

	logger.Log.Info("Created timetables", zap.Int("users", len(users)))
	return nil
}
