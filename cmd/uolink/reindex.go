package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/search"
	"github.com/spf13/cobra"
)

const reindexBatchSize = 200

var reindexCmd = &cobra.Command{
	Use:   "reindex-search",
	Short: "Rebuild the Elasticsearch indices from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := search.NewClient()
		if err != nil {
			return fmt.Errorf("search unavailable: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		if err := client.InitializeIndices(ctx); err != nil {
			return fmt.Errorf("failed to initialize indices: %w", err)
		}

		indexed := 0
		for offset := 0; ; offset += reindexBatchSize {
			var notes []models.Note
			err := database.DB.Preload("User").
				Where("status = ?", models.NoteStatusActive).
				Order("created_at").
				Offset(offset).Limit(reindexBatchSize).
				Find(&notes).Error
			if err != nil {
				return fmt.Errorf("failed to load notes: %w", err)
			}
			if len(notes) == 0 {
				break
			}
			for i := range notes {
				doc := search.NoteToSearchDoc(&notes[i], notes[i].User.Username, notes[i].User.AuraPoints)
				if err := client.IndexNote(ctx, notes[i].ID, doc); err != nil {
					fmt.Printf("  skipped note %s: %v\n", notes[i].ID, err)
					continue
				}
				indexed++
			}
			fmt.Printf("Indexed %d notes...\n", indexed)
		}
		fmt.Printf("Done: %d notes indexed\n", indexed)

		indexed = 0
		for offset := 0; ; offset += reindexBatchSize {
			var users []models.User
			err := database.DB.Order("created_at").
				Offset(offset).Limit(reindexBatchSize).
				Find(&users).Error
			if err != nil {
				return fmt.Errorf("failed to load users: %w", err)
			}
			if len(users) == 0 {
				break
			}
			for i := range users {
				if err := client.IndexUser(ctx, users[i].ID, search.UserToSearchDoc(&users[i])); err != nil {
					fmt.Printf("  skipped user %s: %v\n", users[i].ID, err)
					continue
				}
				indexed++
			}
			fmt.Printf("Indexed %d users...\n", indexed)
		}
		fmt.Printf("Done: %d users indexed\n", indexed)
		return nil
	},
}
