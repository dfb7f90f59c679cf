package main

import (
	"fmt"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/seed"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with sample data",
}

var seedDevCmd = &cobra.Command{
	Use:   "dev",
	Short: "Seed a full dev dataset (users, notes, votes, timetables)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		return seed.NewSeeder(database.DB).SeedDev()
	},
}

var seedTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Seed a small fixed dataset for manual testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		return seed.NewSeeder(database.DB).SeedTest()
	},
}

var seedCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete all seeded data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := seed.NewSeeder(database.DB).Clean(); err != nil {
			return err
		}
		fmt.Println("Database cleaned")
		return nil
	},
}

func init() {
	seedCmd.AddCommand(seedDevCmd)
	seedCmd.AddCommand(seedTestCmd)
	seedCmd.AddCommand(seedCleanCmd)
}
