package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	reportsLimit int
	reviewAction string
	reviewReason string
)

type reportRow struct {
	ID          string    `json:"id"`
	TargetType  string    `json:"target_type"`
	TargetID    string    `json:"target_id"`
	Reason      string    `json:"reason"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	ActionTaken string    `json:"action_taken"`
	CreatedAt   time.Time `json:"created_at"`
	Reporter    struct {
		Username string `json:"username"`
	} `json:"reporter"`
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Work the report queue",
}

var reportsListCmd = &cobra.Command{
	Use:   "list [status]",
	Short: "List reports, oldest first",
	Long:  "List reports filtered by status (pending, reviewing, resolved, dismissed, all). Defaults to pending.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]string{"limit": fmt.Sprintf("%d", reportsLimit)}
		if len(args) > 0 {
			params["status"] = args[0]
		}

		var result struct {
			Reports []reportRow `json:"reports"`
			Total   int64       `json:"total"`
		}
		if err := getJSON("/api/v1/moderation/reports", params, &result); err != nil {
			return err
		}
		if len(result.Reports) == 0 {
			fmt.Println("No reports in the queue.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTARGET\tREASON\tREPORTER\tSTATUS\tFILED")
		for _, r := range result.Reports {
			fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\t%s\n",
				r.ID, r.TargetType, r.TargetID, r.Reason,
				r.Reporter.Username, r.Status, humanize.Time(r.CreatedAt))
		}
		w.Flush()
		fmt.Printf("\n%s reports total\n", humanize.Comma(result.Total))
		return nil
	},
}

var reportsReviewCmd = &cobra.Command{
	Use:   "review <report-id>",
	Short: "Resolve or dismiss a report",
	Long:  "Review a report with --action remove_note (removes the note, penalizes the uploader) or --action dismiss.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if reviewAction != "remove_note" && reviewAction != "dismiss" {
			return fmt.Errorf("--action must be 'remove_note' or 'dismiss'")
		}

		body := map[string]string{"action": reviewAction, "reason": reviewReason}
		var result struct {
			Report reportRow `json:"report"`
		}
		if err := postJSON("/api/v1/moderation/reports/"+args[0]+"/review", body, &result); err != nil {
			return err
		}
		fmt.Printf("Report %s: %s\n", result.Report.Status, result.Report.ActionTaken)
		return nil
	},
}

func init() {
	reportsListCmd.Flags().IntVar(&reportsLimit, "limit", 20, "Page size")
	reportsReviewCmd.Flags().StringVar(&reviewAction, "action", "", "remove_note or dismiss")
	reportsReviewCmd.Flags().StringVar(&reviewReason, "reason", "", "Reason shown to the uploader")
	reportsReviewCmd.MarkFlagRequired("action")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsReviewCmd)
}
