package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/sitescan/internal/config"
	"github.com/nao1215/sitescan/internal/database"
	"github.com/nao1215/sitescan/internal/model"
	"github.com/spf13/cobra"
)

const (
	changeDirectionGrew      = "grew"
	changeDirectionShrank    = "shrank"
	changeDirectionUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
// This command compares crawl runs recorded in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [target]",
		Short: "Compare two crawl runs of a target",
		Long: `Compare displays differences between two recorded crawl runs.

This command retrieves crawl history from the database and shows:
- Pages that appeared since the previous run
- Pages that are no longer reachable
- Changes in page counts and terminal state

The comparison requires at least two recorded runs for the target.
Use 'sitescan crawl' to record runs and 'sitescan history' to list them.

Examples:
  # Compare the latest two runs of a target
  sitescan compare example.com

  # Compare the latest run with a specific run by ID
  sitescan compare --with-run-id 5 example.com

  # Compare with the first run since a specific date
  sitescan compare --since "2026-01-01" example.com

  # Output comparison in JSON format
  sitescan compare --json example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use 'sitescan history <target>' to see IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	target := args[0]

	// Get comparison target flags
	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
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

	return runComparison(context.Background(), db, target, withRunID, sinceDate, jsonOutput, markdownOutput)
}

// runComparison loads the two runs to compare and outputs the diff.
func runComparison(ctx context.Context, db *database.CrawlDB, target string, withRunID int64, sinceDate string, jsonOutput, markdownOutput bool) error {
	records, err := db.ListRuns(ctx, target, 0)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(records) == 0 {
		return fmt.Errorf("no crawl history found for %s", target)
	}

	if len(records) < 2 && withRunID == 0 && sinceDate == "" {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(records))
	}

	// The latest run is always the current one
	currentReport, err := db.GetReport(ctx, records[0].RunID)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", records[0].RunID, err)
	}
	if currentReport == nil {
		return fmt.Errorf("no report recorded for run %s", records[0].RunID)
	}

	var previousReport *model.CrawlReport

	if withRunID > 0 {
		// Compare against the run with the specified row ID
		previousReport, err = db.GetReportByID(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
		// Validate that the run belongs to the same target
		if previousReport.Target != target {
			return fmt.Errorf("run ID %d belongs to %s, not %s", withRunID, previousReport.Target, target)
		}
	} else if sinceDate != "" {
		// Parse the date and find the oldest run at or after it
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Records are sorted newest first, so iterate in reverse to
		// find the oldest run at or after the date
		var since *database.RunRecord
		for i := len(records) - 1; i >= 0; i-- {
			rec := records[i]
			if rec.StartedAt.After(parsedDate) || rec.StartedAt.Equal(parsedDate) {
				since = &rec
				break
			}
		}
		if since == nil {
			return fmt.Errorf("no runs found since %s", sinceDate)
		}
		if since.RunID == currentReport.RunID {
			return fmt.Errorf("only one run found since %s; at least 2 runs are required for comparison", sinceDate)
		}

		previousReport, err = db.GetReport(ctx, since.RunID)
		if err != nil {
			return fmt.Errorf("failed to load run %s: %w", since.RunID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("no report recorded for run %s", since.RunID)
		}
	} else {
		// Default: compare with the previous run
		previousReport, err = db.GetReport(ctx, records[1].RunID)
		if err != nil {
			return fmt.Errorf("failed to load run %s: %w", records[1].RunID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("no report recorded for run %s", records[1].RunID)
		}
	}

	// Generate comparison result
	comparison := compareRuns(previousReport, currentReport)

	// Output the result
	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two crawl runs.
type ComparisonResult struct {
	// Target is the crawled target name.
	Target string `json:"target"`

	// PreviousRun contains metadata about the previous run.
	PreviousRun RunMetadata `json:"previous_run"`

	// CurrentRun contains metadata about the current run.
	CurrentRun RunMetadata `json:"current_run"`

	// NewPages lists pages visited in the current run but not the previous.
	NewPages []string `json:"new_pages,omitempty"`

	// RemovedPages lists pages visited in the previous run but not the current.
	RemovedPages []string `json:"removed_pages,omitempty"`

	// UnchangedCount is the number of pages visited by both runs.
	UnchangedCount int `json:"unchanged_count"`

	// Change describes the overall shift between the runs.
	Change CrawlChange `json:"change"`
}

// RunMetadata contains metadata about a run for comparison display.
type RunMetadata struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// StartedAt is when the run was started.
	StartedAt time.Time `json:"started_at"`

	// State is the run's terminal state.
	State string `json:"state"`

	// PagesVisited is the number of pages successfully crawled.
	PagesVisited int `json:"pages_visited"`

	// PagesFailed is the number of URLs that failed.
	PagesFailed int `json:"pages_failed"`

	// PagesSkipped is the number of URLs rejected before fetching.
	PagesSkipped int `json:"pages_skipped"`

	// TotalElements is the number of elements found across all pages.
	TotalElements int `json:"total_elements"`
}

// CrawlChange describes the shift in crawl coverage between two runs.
type CrawlChange struct {
	// Direction is "grew", "shrank", or "unchanged", tracking the
	// visited page count.
	Direction string `json:"direction"`

	// VisitedDelta is the change in visited page count.
	VisitedDelta int `json:"visited_delta"`

	// FailedDelta is the change in failed URL count.
	FailedDelta int `json:"failed_delta"`

	// SkippedDelta is the change in skipped URL count.
	SkippedDelta int `json:"skipped_delta"`

	// ElementsDelta is the change in total element count.
	ElementsDelta int `json:"elements_delta"`
}

// compareRuns compares two crawl runs and generates a comparison result.
func compareRuns(previous, current *model.CrawlReport) *ComparisonResult {
	result := &ComparisonResult{
		Target:      current.Target,
		PreviousRun: runMetadata(previous),
		CurrentRun:  runMetadata(current),
	}

	// Build page sets for comparison
	previousPages := make(map[string]bool, len(previous.VisitedURLs))
	for _, url := range previous.VisitedURLs {
		previousPages[url] = true
	}
	currentPages := make(map[string]bool, len(current.VisitedURLs))
	for _, url := range current.VisitedURLs {
		currentPages[url] = true
	}

	// New pages (in current but not in previous), in visit order
	for _, url := range current.VisitedURLs {
		if !previousPages[url] {
			result.NewPages = append(result.NewPages, url)
		} else {
			result.UnchangedCount++
		}
	}

	// Removed pages (in previous but not in current), in visit order
	for _, url := range previous.VisitedURLs {
		if !currentPages[url] {
			result.RemovedPages = append(result.RemovedPages, url)
		}
	}

	// Calculate the coverage change
	result.Change = calculateChange(result.PreviousRun, result.CurrentRun)

	return result
}

// runMetadata extracts the comparison metadata from a crawl report.
func runMetadata(report *model.CrawlReport) RunMetadata {
	return RunMetadata{
		RunID:         report.RunID,
		StartedAt:     report.StartedAt,
		State:         report.State.String(),
		PagesVisited:  report.PagesVisited,
		PagesFailed:   report.PagesFailed,
		PagesSkipped:  report.PagesSkipped,
		TotalElements: report.TotalElements(),
	}
}

// calculateChange calculates the coverage shift between two runs.
func calculateChange(previous, current RunMetadata) CrawlChange {
	change := CrawlChange{
		VisitedDelta:  current.PagesVisited - previous.PagesVisited,
		FailedDelta:   current.PagesFailed - previous.PagesFailed,
		SkippedDelta:  current.PagesSkipped - previous.PagesSkipped,
		ElementsDelta: current.TotalElements - previous.TotalElements,
	}

	switch {
	case change.VisitedDelta > 0:
		change.Direction = changeDirectionGrew
	case change.VisitedDelta < 0:
		change.Direction = changeDirectionShrank
	default:
		change.Direction = changeDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Crawl Comparison: %s\n\n", result.Target)

	// Coverage change summary
	fmt.Println("## Summary")
	fmt.Printf("\n**Coverage:** %s\n\n", formatDirection(result.Change.Direction))

	// Run metadata table
	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousRun.StartedAt.Format("2006-01-02 15:04"),
		result.CurrentRun.StartedAt.Format("2006-01-02 15:04"))
	fmt.Printf("| State | %s | %s | - |\n",
		result.PreviousRun.State,
		result.CurrentRun.State)
	fmt.Printf("| Visited | %d | %d | %s |\n",
		result.PreviousRun.PagesVisited,
		result.CurrentRun.PagesVisited,
		formatDelta(result.Change.VisitedDelta))
	fmt.Printf("| Failed | %d | %d | %s |\n",
		result.PreviousRun.PagesFailed,
		result.CurrentRun.PagesFailed,
		formatDelta(result.Change.FailedDelta))
	fmt.Printf("| Skipped | %d | %d | %s |\n",
		result.PreviousRun.PagesSkipped,
		result.CurrentRun.PagesSkipped,
		formatDelta(result.Change.SkippedDelta))
	fmt.Printf("| Elements | %d | %d | %s |\n",
		result.PreviousRun.TotalElements,
		result.CurrentRun.TotalElements,
		formatDelta(result.Change.ElementsDelta))

	// New pages
	if len(result.NewPages) > 0 {
		fmt.Printf("\n## New Pages (%d)\n\n", len(result.NewPages))
		for _, url := range result.NewPages {
			fmt.Printf("- %s\n", url)
		}
	}

	// Removed pages
	if len(result.RemovedPages) > 0 {
		fmt.Printf("\n## Removed Pages (%d)\n\n", len(result.RemovedPages))
		for _, url := range result.RemovedPages {
			fmt.Printf("- ~~%s~~\n", url)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d pages unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Crawl Comparison: %s\n", result.Target)
	fmt.Println(strings.Repeat("=", 60))

	// Coverage change summary
	fmt.Printf("\nCoverage: %s\n", formatDirection(result.Change.Direction))
	if result.PreviousRun.State != result.CurrentRun.State {
		fmt.Printf("State change: %s -> %s\n", result.PreviousRun.State, result.CurrentRun.State)
	}

	// Run dates
	fmt.Printf("\nPrevious run: %s (%s)\n",
		result.PreviousRun.StartedAt.Format("2006-01-02 15:04:05"), result.PreviousRun.State)
	fmt.Printf("Current run:  %s (%s)\n",
		result.CurrentRun.StartedAt.Format("2006-01-02 15:04:05"), result.CurrentRun.State)

	// Summary table
	fmt.Println("\nPages Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Visited",
		result.PreviousRun.PagesVisited, result.CurrentRun.PagesVisited,
		formatDelta(result.Change.VisitedDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Failed",
		result.PreviousRun.PagesFailed, result.CurrentRun.PagesFailed,
		formatDelta(result.Change.FailedDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Skipped",
		result.PreviousRun.PagesSkipped, result.CurrentRun.PagesSkipped,
		formatDelta(result.Change.SkippedDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Elements",
		result.PreviousRun.TotalElements, result.CurrentRun.TotalElements,
		formatDelta(result.Change.ElementsDelta))

	// New pages
	if len(result.NewPages) > 0 {
		fmt.Printf("\nNew Pages (%d):\n", len(result.NewPages))
		for _, url := range result.NewPages {
			fmt.Printf("  [+] %s\n", url)
		}
	}

	// Removed pages
	if len(result.RemovedPages) > 0 {
		fmt.Printf("\nRemoved Pages (%d):\n", len(result.RemovedPages))
		for _, url := range result.RemovedPages {
			fmt.Printf("  [-] %s\n", url)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d pages\n", result.UnchangedCount)
	}

	return nil
}

// formatDirection formats the coverage change direction for display.
func formatDirection(direction string) string {
	switch direction {
	case changeDirectionGrew:
		return "GREW (more pages visited)"
	case changeDirectionShrank:
		return "SHRANK (fewer pages visited)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
