package search

import (
	"context"
	"sync"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"go.uber.org/zap"
)

// ReconciliationService periodically resynchronizes notes and users
// between Postgres and Elasticsearch. Index writes on the hot path are
// best effort, so drift accumulates; the reconciler repairs it by
// reindexing random samples each pass.
type ReconciliationService struct {
	client    *Client
	interval  time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.Mutex
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(client *Client, interval time.Duration) *ReconciliationService {
	return &ReconciliationService{
		client:   client,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic reconciliation loop
func (rs *ReconciliationService) Start() {
	rs.mu.Lock()
	if rs.isRunning {
		rs.mu.Unlock()
		return
	}
	rs.isRunning = true
	rs.mu.Unlock()

	logger.Log.Info("Starting Elasticsearch reconciliation service",
		zap.Duration("interval", rs.interval),
	)

	rs.wg.Add(1)
	go rs.reconciliationLoop()
}

// Stop gracefully stops the reconciliation service
func (rs *ReconciliationService) Stop() {
	rs.mu.Lock()
	if !rs.isRunning {
		rs.mu.Unlock()
		return
	}
	rs.isRunning = false
	rs.mu.Unlock()

	close(rs.stopChan)
	rs.wg.Wait()
	logger.Log.Info("Elasticsearch reconciliation service stopped")
}

func (rs *ReconciliationService) reconciliationLoop() {
	defer rs.wg.Done()

	// Run once immediately on startup
	rs.performReconciliation()

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-rs.stopChan:
			return
		case <-ticker.C:
			rs.performReconciliation()
		}
	}
}

func (rs *ReconciliationService) performReconciliation() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	startTime := time.Now()
	logger.Log.Info("Starting Elasticsearch reconciliation check")

	notesResynced := rs.reconcileNotes(ctx)
	usersResynced := rs.reconcileUsers(ctx)

	logger.Log.Info("Elasticsearch reconciliation completed",
		zap.Int("notes_resync", notesResynced),
		zap.Int("users_resync", usersResynced),
		zap.Duration("duration", time.Since(startTime)),
	)
}

// reconcileNotes reindexes a random sample of active notes so vote and
// download counters in the index catch up with the database.
func (rs *ReconciliationService) reconcileNotes(ctx context.Context) int {
	if rs.client == nil {
		return 0
	}

	var notes []models.Note
	// Random sample, capped to keep each pass cheap.
	if err := database.DB.
		Where("status = ? AND deleted_at IS NULL", models.NoteStatusActive).
		Order("RANDOM()").
		Limit(100).
		Find(&notes).Error; err != nil {
		logger.Log.Warn("Failed to query notes for reconciliation",
			zap.Error(err),
		)
		return 0
	}

	resynced := 0
	for _, note := range notes {
		var uploader models.User
		if err := database.DB.Select("username", "aura_points").
			First(&uploader, "id = ?", note.UserID).Error; err != nil {
			continue
		}

		doc := NoteToSearchDoc(&note, uploader.Username, uploader.AuraPoints)
		if err := rs.client.IndexNote(ctx, note.ID, doc); err != nil {
			logger.Log.Warn("Failed to reconcile note",
				zap.String("note_id", note.ID),
				zap.Error(err),
			)
		} else {
			resynced++
		}
	}

	return resynced
}

// reconcileUsers reindexes a random sample of users so aura points and
// note counts in the index catch up with the database.
func (rs *ReconciliationService) reconcileUsers(ctx context.Context) int {
	if rs.client == nil {
		return 0
	}

	var users []models.User
	if err := database.DB.
		Where("deleted_at IS NULL").
		Order("RANDOM()").
		Limit(50).
		Find(&users).Error; err != nil {
		logger.Log.Warn("Failed to query users for reconciliation",
			zap.Error(err),
		)
		return 0
	}

	resynced := 0
	for _, user := range users {
		if err := rs.client.IndexUser(ctx, user.ID, UserToSearchDoc(&user)); err != nil {
			logger.Log.Warn("Failed to reconcile user",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		} else {
			resynced++
		}
	}

	return resynced
}
