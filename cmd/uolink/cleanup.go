package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/storage"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var cleanupDryRun bool

// Soft-deleted notes linger so moderators can restore them; after this
// window their files and rows are gone for good.
const purgeAfter = 30 * 24 * time.Hour

var cleanupCmd = &cobra.Command{
	Use:   "cleanup-orphans",
	Short: "Purge expired tokens, long-deleted notes, and abandoned unverified accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()

		var expiredResets, expiredVerifications int64
		database.DB.Model(&models.PasswordReset{}).
			Where("used = ? OR expires_at < ?", true, now).Count(&expiredResets)
		database.DB.Model(&models.EmailVerification{}).
			Where("used = ? OR expires_at < ?", true, now).Count(&expiredVerifications)

		var staleNotes []models.Note
		database.DB.Unscoped().
			Where("deleted_at IS NOT NULL AND deleted_at < ?", now.Add(-purgeAfter)).
			Find(&staleNotes)

		// Accounts that never verified and never came back. Uploading
		// requires verification, so these cannot own notes.
		staleAccountFilter := database.DB.Model(&models.User{}).
			Where("email_verified = ? AND created_at < ? AND note_count = 0", false, now.Add(-purgeAfter)).
			Where("last_active_at IS NULL OR last_active_at < ?", now.Add(-purgeAfter))
		var staleAccounts int64
		staleAccountFilter.Count(&staleAccounts)

		fmt.Printf("Expired password resets:      %d\n", expiredResets)
		fmt.Printf("Expired email verifications:  %d\n", expiredVerifications)
		fmt.Printf("Notes past the purge window:  %d\n", len(staleNotes))
		fmt.Printf("Abandoned unverified accounts: %d\n", staleAccounts)

		if cleanupDryRun {
			fmt.Println("Dry run, nothing deleted")
			return nil
		}

		if err := database.DB.
			Where("used = ? OR expires_at < ?", true, now).
			Delete(&models.PasswordReset{}).Error; err != nil {
			return fmt.Errorf("failed to purge password resets: %w", err)
		}
		if err := database.DB.
			Where("used = ? OR expires_at < ?", true, now).
			Delete(&models.EmailVerification{}).Error; err != nil {
			return fmt.Errorf("failed to purge email verifications: %w", err)
		}

		// R2 is optional here; without credentials only the rows go.
		var r2 *storage.R2Client
		if os.Getenv("R2_ENDPOINT") != "" {
			client, err := storage.NewR2Client(storage.R2Config{
				Endpoint:        os.Getenv("R2_ENDPOINT"),
				AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
				Bucket:          os.Getenv("R2_BUCKET"),
				PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
			})
			if err != nil {
				fmt.Printf("Warning: R2 unavailable, leaving files in place: %v\n", err)
			} else {
				r2 = client
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		purged := 0
		for i := range staleNotes {
			note := &staleNotes[i]
			if r2 != nil && note.FileKey != "" {
				if err := r2.DeleteFile(ctx, note.FileKey); err != nil {
					fmt.Printf("  keeping note %s, file delete failed: %v\n", note.ID, err)
					continue
				}
			}
			err := database.DB.Transaction(func(tx *gorm.DB) error {
				for _, m := range []interface{}{
					&models.NoteDownload{}, &models.SavedNote{}, &models.NoteVote{},
				} {
					if err := tx.Where("note_id = ?", note.ID).Delete(m).Error; err != nil {
						return err
					}
				}
				return tx.Unscoped().Delete(note).Error
			})
			if err != nil {
				fmt.Printf("  keeping note %s: %v\n", note.ID, err)
				continue
			}
			purged++
		}
		fmt.Printf("Purged %d notes\n", purged)

		if staleAccounts > 0 {
			result := database.DB.
				Where("email_verified = ? AND created_at < ? AND note_count = 0", false, now.Add(-purgeAfter)).
				Where("last_active_at IS NULL OR last_active_at < ?", now.Add(-purgeAfter)).
				Delete(&models.User{})
			if result.Error != nil {
				return fmt.Errorf("failed to purge unverified accounts: %w", result.Error)
			}
			fmt.Printf("Purged %d unverified accounts\n", result.RowsAffected)
		}
		return nil
	},
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "Report what would be deleted without deleting")
}
