package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	notesSubject string
	notesSort    string
	notesLimit   int
	notesOffset  int
	removeReason string
)

type noteRow struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Subject       string    `json:"subject"`
	CourseCode    string    `json:"course_code"`
	Semester      int       `json:"semester"`
	FileSize      int64     `json:"file_size"`
	DownloadCount int       `json:"download_count"`
	VoteScore     int       `json:"vote_score"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	Uploader      struct {
		Username string `json:"username"`
	} `json:"uploader"`
	User struct {
		Username string `json:"username"`
	} `json:"user"`
	ModerationLabels []string `json:"moderation_labels"`
}

// username works for both the listing projection (uploader) and the
// raw pending-queue rows (user)
func (n noteRow) username() string {
	if n.Uploader.Username != "" {
		return n.Uploader.Username
	}
	return n.User.Username
}

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Browse and moderate notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]string{
			"limit":  fmt.Sprintf("%d", notesLimit),
			"offset": fmt.Sprintf("%d", notesOffset),
		}
		if notesSubject != "" {
			params["subject"] = notesSubject
		}
		if notesSort != "" {
			params["sort"] = notesSort
		}

		var result struct {
			Notes []noteRow `json:"notes"`
			Meta  struct {
				Total int64 `json:"total"`
			} `json:"meta"`
		}
		if err := getJSON("/api/v1/notes", params, &result); err != nil {
			return err
		}
		if len(result.Notes) == 0 {
			fmt.Println("No notes found.")
			return nil
		}

		printNoteTable(result.Notes)
		fmt.Printf("\n%s notes total\n", humanize.Comma(result.Meta.Total))
		return nil
	},
}

var notesPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List notes flagged for moderation review",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Notes []noteRow `json:"notes"`
			Total int64     `json:"total"`
		}
		params := map[string]string{"limit": fmt.Sprintf("%d", notesLimit)}
		if err := getJSON("/api/v1/moderation/notes/pending", params, &result); err != nil {
			return err
		}
		if len(result.Notes) == 0 {
			fmt.Println("Moderation queue is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tUPLOADER\tLABELS\tFLAGGED")
		for _, n := range result.Notes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				n.ID, truncate(n.Title, 40), n.username(),
				strings.Join(n.ModerationLabels, ","),
				humanize.Time(n.CreatedAt))
		}
		w.Flush()
		fmt.Printf("\n%s notes pending review\n", humanize.Comma(result.Total))
		return nil
	},
}

var notesRemoveCmd = &cobra.Command{
	Use:   "remove <note-id>",
	Short: "Remove a note and apply the uploader aura penalty",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{"reason": removeReason}
		if err := postJSON("/api/v1/moderation/notes/"+args[0]+"/remove", body, nil); err != nil {
			return err
		}
		fmt.Println("Note removed.")
		return nil
	},
}

var notesRestoreCmd = &cobra.Command{
	Use:   "restore <note-id>",
	Short: "Restore a removed or pending note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := postJSON("/api/v1/moderation/notes/"+args[0]+"/restore", nil, nil); err != nil {
			return err
		}
		fmt.Println("Note restored.")
		return nil
	},
}

func printNoteTable(rows []noteRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCOURSE\tUPLOADER\tSIZE\tSCORE\tDOWNLOADS\tUPLOADED")
	for _, n := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			n.ID, truncate(n.Title, 40), n.CourseCode, n.username(),
			humanize.Bytes(uint64(n.FileSize)), n.VoteScore, n.DownloadCount,
			humanize.Time(n.CreatedAt))
	}
	w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func init() {
	notesListCmd.Flags().StringVar(&notesSubject, "subject", "", "Filter by subject")
	notesListCmd.Flags().StringVar(&notesSort, "sort", "", "Sort order: recent, top, downloads")
	notesListCmd.Flags().IntVar(&notesLimit, "limit", 20, "Page size")
	notesListCmd.Flags().IntVar(&notesOffset, "offset", 0, "Page offset")
	notesPendingCmd.Flags().IntVar(&notesLimit, "limit", 20, "Page size")
	notesRemoveCmd.Flags().StringVar(&removeReason, "reason", "", "Reason shown to the uploader")

	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesPendingCmd)
	notesCmd.AddCommand(notesRemoveCmd)
	notesCmd.AddCommand(notesRestoreCmd)
}
