// uolinkctl is the operator CLI for a running UOLink API server. It
// talks to the moderation and ops endpoints over HTTP; the server
// itself does not need to run on the same host.
//
// Configuration comes from the environment:
//
//	UOLINK_API_URL — base URL of the API (default http://localhost:8080)
//	UOLINK_TOKEN   — JWT of a moderator account
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "uolinkctl",
	Short: "UOLink operator CLI",
	Long: `uolinkctl administers a running UOLink server: browse and remove
notes, review the report queue, adjust aura, and manage caches. Most
commands need UOLINK_TOKEN set to a moderator's token.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(auraCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(alertsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
