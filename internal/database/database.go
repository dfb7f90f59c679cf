package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/telemetry"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "uolink")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	// Configure GORM logger
	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	// Open database connection
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if os.Getenv("OTEL_ENABLED") == "true" {
		if err := db.Use(telemetry.GORMTracingPlugin()); err != nil {
			log.Printf("Warning: could not register query tracing: %v", err)
		}
	}

	DB = db
	log.Println("Database connected successfully")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	// Enable UUID extension for PostgreSQL
	err := DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
	if err != nil {
		log.Printf("Warning: Could not create uuid-ossp extension: %v", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.EmailVerification{},
		&models.Note{},
		&models.NoteVote{},
		&models.SavedNote{},
		&models.NoteDownload{},
		&models.AuraEvent{},
		&models.Report{},
		&models.TimetableEntry{},
		&models.Notification{},
		&models.ClientError{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes for performance
	err = createIndexes()
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// createIndexes creates performance indexes
func createIndexes() error {
	// User indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_aura_points ON users (aura_points DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_university_aura ON users (university, aura_points DESC)")

	// Note indexes for listing queries
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notes_user_created ON notes (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notes_status_created ON notes (status, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notes_subject_semester ON notes (subject, semester)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notes_course_code ON notes (course_code) WHERE course_code <> ''")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notes_vote_score ON notes (vote_score DESC) WHERE status = 'active'")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notes_tags ON notes USING GIN (tags)")

	// Full-text search fallback index when Elasticsearch is unavailable
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notes_title_search ON notes USING gin(to_tsvector('english', title || ' ' || coalesce(description, ''))) WHERE deleted_at IS NULL")

	// Vote and save lookup indexes
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_note_votes_unique ON note_votes (note_id, user_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_note_votes_user ON note_votes (user_id)")
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_saved_notes_unique ON saved_notes (note_id, user_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_saved_notes_user_created ON saved_notes (user_id, created_at DESC)")

	// Download tracking indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_note_downloads_note ON note_downloads (note_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_note_downloads_user ON note_downloads (user_id) WHERE user_id IS NOT NULL")

	// Aura event indexes for history queries
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_aura_events_user_created ON aura_events (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_aura_events_note ON aura_events (note_id) WHERE note_id IS NOT NULL")

	// Report indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_reports_reporter ON reports (reporter_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_reports_target ON reports (target_type, target_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_reports_target_user ON reports (target_user_id) WHERE target_user_id IS NOT NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_reports_status ON reports (status)")
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_reports_unique ON reports (reporter_id, target_type, target_id) WHERE deleted_at IS NULL")

	// Timetable indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_timetable_entries_user ON timetable_entries (user_id, day_of_week, start_minute)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_timetable_entries_user_semester ON timetable_entries (user_id, semester)")

	// Notification indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications (user_id) WHERE read_at IS NULL")

	// Client error report indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_client_errors_created ON client_errors (created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_client_errors_fingerprint ON client_errors (fingerprint)")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
