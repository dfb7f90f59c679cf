package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	auraPoints        int
	auraReason        string
	leaderboardLimit  int
	leaderboardSchool string
)

var auraCmd = &cobra.Command{
	Use:   "aura",
	Short: "Manage aura points",
}

var auraAdjustCmd = &cobra.Command{
	Use:   "adjust <user-id>",
	Short: "Apply a manual aura adjustment",
	Long:  "Credit or debit a user's aura. Points may be negative; the reason is recorded in the ledger and shown to the user.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]interface{}{
			"points": auraPoints,
			"reason": auraReason,
		}
		var result struct {
			Event struct {
				ID     string `json:"id"`
				Points int    `json:"points"`
			} `json:"event"`
		}
		if err := postJSON("/api/v1/moderation/users/"+args[0]+"/aura", body, &result); err != nil {
			return err
		}
		fmt.Printf("Adjusted aura by %+d (event %s)\n", result.Event.Points, result.Event.ID)
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the aura leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]string{"limit": fmt.Sprintf("%d", leaderboardLimit)}
		if leaderboardSchool != "" {
			params["university"] = leaderboardSchool
		}

		var result struct {
			Leaderboard []struct {
				Rank        int    `json:"rank"`
				Username    string `json:"username"`
				DisplayName string `json:"display_name"`
				University  string `json:"university"`
				AuraPoints  int    `json:"aura_points"`
				NoteCount   int    `json:"note_count"`
			} `json:"leaderboard"`
		}
		if err := getJSON("/api/v1/leaderboard", params, &result); err != nil {
			return err
		}
		if len(result.Leaderboard) == 0 {
			fmt.Println("Leaderboard is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tUSERNAME\tNAME\tUNIVERSITY\tAURA\tNOTES")
		for _, e := range result.Leaderboard {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
				e.Rank, e.Username, e.DisplayName, e.University,
				humanize.Comma(int64(e.AuraPoints)), e.NoteCount)
		}
		w.Flush()
		return nil
	},
}

func init() {
	auraAdjustCmd.Flags().IntVar(&auraPoints, "points", 0, "Points to add (negative to deduct)")
	auraAdjustCmd.Flags().StringVar(&auraReason, "reason", "", "Reason recorded in the ledger")
	auraAdjustCmd.MarkFlagRequired("points")
	auraAdjustCmd.MarkFlagRequired("reason")

	leaderboardCmd.Flags().IntVar(&leaderboardLimit, "limit", 25, "Number of entries")
	leaderboardCmd.Flags().StringVar(&leaderboardSchool, "university", "", "Filter by university")

	auraCmd.AddCommand(auraAdjustCmd)
}
