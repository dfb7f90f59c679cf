package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "uolink",
	Short: "UOLink admin CLI - database, seeding, and maintenance tasks",
	Long: `UOLink admin CLI runs operational tasks directly against the
backing services: schema migration, dev/test data seeding, role
promotion, search reindexing, and orphan cleanup.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}
		if err := database.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to connect to database: %v\n", err)
			os.Exit(1)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		database.Close()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(cleanupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
