package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/sitescan/internal/config"
	"github.com/nao1215/sitescan/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [target]",
		Short: "Show crawl history from the database",
		Long: `History lists crawl runs recorded in the local database.

Without arguments it lists every crawled target. With a target name it
lists that target's runs, newest first, with their IDs, terminal
states, and page counts.

Examples:
  # List all crawled targets
  sitescan history

  # List runs for a target
  sitescan history example.com

  # Show only the five most recent runs
  sitescan history -n 5 example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 = all)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	// Open database
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if len(args) == 0 {
		return listCrawledTargets(ctx, db)
	}
	return listRunHistory(ctx, db, args[0], limit)
}

// listCrawledTargets lists all targets that have crawl records in the database.
func listCrawledTargets(ctx context.Context, db *database.CrawlDB) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if len(targets) == 0 {
		fmt.Println("No crawled targets found in the database.")
		fmt.Println("\nUse 'sitescan crawl <url>' to crawl a website.")
		return nil
	}

	fmt.Printf("Crawled targets (%d):\n\n", len(targets))
	for _, target := range targets {
		fmt.Printf("  • %s\n", target)
	}
	fmt.Println("\nUse 'sitescan history <target>' to see runs for a target.")

	return nil
}

// listRunHistory lists the recorded runs for one target, newest first.
func listRunHistory(ctx context.Context, db *database.CrawlDB, target string, limit int) error {
	records, err := db.ListRuns(ctx, target, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(records) == 0 {
		fmt.Printf("No crawl history found for %s\n", target)
		fmt.Println("\nUse 'sitescan crawl' to crawl this target.")
		return nil
	}

	fmt.Printf("Crawl history for %s (%d runs):\n\n", target, len(records))
	fmt.Printf("  %-6s  %-20s  %-10s  %8s  %8s  %8s\n",
		"ID", "Date", "State", "Visited", "Failed", "Skipped")
	fmt.Println("  " + strings.Repeat("-", 70))

	for _, rec := range records {
		fmt.Printf("  %-6d  %-20s  %-10s  %8d  %8d  %8d\n",
			rec.ID,
			rec.StartedAt.Format("2006-01-02 15:04:05"),
			rec.State,
			rec.PagesVisited,
			rec.PagesFailed,
			rec.PagesSkipped,
		)
	}

	fmt.Println("\nUse 'sitescan compare <target>' to compare the latest two runs.")
	fmt.Println("Use 'sitescan compare --with-run-id <id> <target>' to compare with a specific run.")

	return nil
}
