package main

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var clearPrefix string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the query cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts and hit metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			LocalEntries int                    `json:"local_entries"`
			Metrics      map[string]interface{} `json:"metrics"`
		}
		if err := getJSON("/api/v1/moderation/ops/cache", nil, &result); err != nil {
			return err
		}

		fmt.Printf("Local entries: %s\n", humanize.Comma(int64(result.LocalEntries)))
		if len(result.Metrics) > 0 {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\nMETRIC\tVALUE")
			for name, value := range result.Metrics {
				fmt.Fprintf(w, "%s\t%v\n", name, value)
			}
			w.Flush()
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Flush the query cache",
	Long:  "Flush both cache tiers, or only in-process entries under --prefix.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/v1/moderation/ops/cache/clear"
		if clearPrefix != "" {
			path += "?prefix=" + url.QueryEscape(clearPrefix)
		}

		var result struct {
			Cleared int    `json:"cleared"`
			Message string `json:"message"`
		}
		if err := postJSON(path, nil, &result); err != nil {
			return err
		}
		if clearPrefix != "" {
			fmt.Printf("Cleared %d entries under %q\n", result.Cleared, clearPrefix)
		} else {
			fmt.Println(result.Message)
		}
		return nil
	},
}

var cacheWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Run a cache warming pass now",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := postJSON("/api/v1/moderation/ops/cache/warm", nil, nil); err != nil {
			return err
		}
		fmt.Println("Warming pass completed.")
		return nil
	},
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List and resolve operational alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Enabled bool `json:"enabled"`
			Alerts  []struct {
				ID        string    `json:"id"`
				RuleID    string    `json:"rule_id"`
				Level     string    `json:"level"`
				Message   string    `json:"message"`
				Timestamp time.Time `json:"timestamp"`
			} `json:"alerts"`
		}
		if err := getJSON("/api/v1/moderation/ops/alerts", nil, &result); err != nil {
			return err
		}
		if !result.Enabled {
			fmt.Println("Alerting is not enabled on this server.")
			return nil
		}
		if len(result.Alerts) == 0 {
			fmt.Println("No active alerts.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLEVEL\tRULE\tMESSAGE\tFIRED")
		for _, a := range result.Alerts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				a.ID, a.Level, a.RuleID, truncate(a.Message, 60), humanize.Time(a.Timestamp))
		}
		w.Flush()
		return nil
	},
}

var alertsResolveCmd = &cobra.Command{
	Use:   "resolve <alert-id>",
	Short: "Mark an alert as handled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := postJSON("/api/v1/moderation/ops/alerts/"+args[0]+"/resolve", nil, nil); err != nil {
			return err
		}
		fmt.Println("Alert resolved.")
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().StringVar(&clearPrefix, "prefix", "", "Only clear keys with this prefix")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheWarmCmd)
	alertsCmd.AddCommand(alertsResolveCmd)
}
