package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/joho/godotenv"
)

// Prints record counts and a few sample rows so a developer can eyeball
// whether `uolink seed` produced sane data.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	fmt.Println("Verifying seed data...")
	fmt.Println()

	var userCount, noteCount, voteCount, saveCount, downloadCount, auraCount, timetableCount int64
	database.DB.Model(&models.User{}).Where("deleted_at IS NULL").Count(&userCount)
	database.DB.Model(&models.Note{}).Where("deleted_at IS NULL").Count(&noteCount)
	database.DB.Model(&models.NoteVote{}).Count(&voteCount)
	database.DB.Model(&models.SavedNote{}).Count(&saveCount)
	database.DB.Model(&models.NoteDownload{}).Count(&downloadCount)
	database.DB.Model(&models.AuraEvent{}).Count(&auraCount)
	database.DB.Model(&models.TimetableEntry{}).Count(&timetableCount)

	fmt.Println("Record counts:")
	fmt.Printf("  Users:             %d\n", userCount)
	fmt.Printf("  Notes:             %d\n", noteCount)
	fmt.Printf("  Votes:             %d\n", voteCount)
	fmt.Printf("  Saves:             %d\n", saveCount)
	fmt.Printf("  Downloads:         %d\n", downloadCount)
	fmt.Printf("  Aura events:       %d\n", auraCount)
	fmt.Printf("  Timetable entries: %d\n", timetableCount)
	fmt.Println()

	var users []models.User
	database.DB.Where("deleted_at IS NULL").Order("aura_points DESC").Limit(3).Find(&users)
	fmt.Println("Top users by aura:")
	for _, u := range users {
		fmt.Printf("  - %s (@%s) - %d aura, %d notes\n", u.DisplayName, u.Username, u.AuraPoints, u.NoteCount)
	}
	fmt.Println()

	var notes []models.Note
	database.DB.Where("deleted_at IS NULL").Order("vote_score DESC").Limit(3).Find(&notes)
	fmt.Println("Top notes by score:")
	for _, n := range notes {
		fmt.Printf("  - %s [%s] score %d, %d downloads\n", n.Title, n.CourseCode, n.VoteScore, n.DownloadCount)
	}
	fmt.Println()

	// The ledger must sum to the denormalized totals.
	type mismatch struct {
		Username string
		Stored   int
		Ledger   int
	}
	var mismatches []mismatch
	rows, err := database.DB.Raw(`
		SELECT u.username, u.aura_points,
		       COALESCE((SELECT SUM(points) FROM aura_events e WHERE e.user_id = u.id), 0) AS ledger
		FROM users u WHERE u.deleted_at IS NULL`).Rows()
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var m mismatch
			if err := rows.Scan(&m.Username, &m.Stored, &m.Ledger); err != nil {
				continue
			}
			if m.Stored != m.Ledger {
				mismatches = append(mismatches, m)
			}
		}
	}
	if len(mismatches) == 0 {
		fmt.Println("Aura ledger matches stored totals for every user")
	} else {
		fmt.Printf("WARNING: %d users with ledger drift:\n", len(mismatches))
		for _, m := range mismatches {
			fmt.Printf("  - %s stored=%d ledger=%d\n", m.Username, m.Stored, m.Ledger)
		}
	}
	fmt.Println()

	// Sample IDs for exercising the API by hand
	if len(os.Args) > 1 && os.Args[1] == "--json" && len(users) > 0 && len(notes) > 0 {
		sample := map[string]interface{}{
			"user_id":  users[0].ID,
			"username": users[0].Username,
			"note_id":  notes[0].ID,
		}
		jsonData, _ := json.MarshalIndent(sample, "", "  ")
		fmt.Println("Sample IDs for API testing:")
		fmt.Println(string(jsonData))
	}

	fmt.Println("Seed data verification complete")
}
