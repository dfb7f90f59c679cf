package main

import (
	"fmt"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("Migrations applied")
		return nil
	},
}
