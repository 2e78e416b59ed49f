package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitescan/internal/database"
	"github.com/nao1215/sitescan/internal/model"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history [target]" {
			t.Errorf("expected use 'history [target]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has limit flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("limit")
		if flag == nil {
			t.Fatal("expected limit flag")
		}
		if flag.Shorthand != "n" {
			t.Errorf("expected shorthand 'n', got %q", flag.Shorthand)
		}
		if flag.DefValue != "20" {
			t.Errorf("expected default '20', got %q", flag.DefValue)
		}
	})

	t.Run("does not have db-dir flag (uses XDG)", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("db-dir")
		if flag != nil {
			t.Error("db-dir flag should not exist (always uses XDG data directory)")
		}
	})
}

// TestListCrawledTargetsIntegration tests target listing against a real database.
func TestListCrawledTargetsIntegration(t *testing.T) {
	// Note: Not using t.Parallel() because this test captures os.Stdout

	// Create temporary database
	tmpDir := t.TempDir()
	db, err := database.Open(tmpDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Test with empty database
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err = listCrawledTargets(ctx, db)

	w.Close()
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("listCrawledTargets() error = %v", err)
	}

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	output := buf.String()

	if !strings.Contains(output, "No crawled targets found") {
		t.Error("expected 'No crawled targets found' message")
	}

	// Add some data
	crawlReport := model.NewCrawlReport("docs.example.com", []string{"https://docs.example.com/"})
	crawlReport.State = model.StateFinished
	if err := db.SaveReport(ctx, crawlReport); err != nil {
		t.Fatalf("failed to save report: %v", err)
	}

	// Test with data
	r, w, _ = os.Pipe()
	os.Stdout = w

	err = listCrawledTargets(ctx, db)

	w.Close()
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("listCrawledTargets() error = %v", err)
	}

	buf.Reset()
	_, _ = buf.ReadFrom(r)
	output = buf.String()

	if !strings.Contains(output, "docs.example.com") {
		t.Error("expected target to be listed")
	}
}

// TestListRunHistoryIntegration tests run listing against a real database.
func TestListRunHistoryIntegration(t *testing.T) {
	// Note: Not using t.Parallel() because this test captures os.Stdout

	// Create temporary database
	tmpDir := t.TempDir()
	db, err := database.Open(tmpDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Add test data
	for i := range 3 {
		crawlReport := model.NewCrawlReport("docs.example.com", []string{"https://docs.example.com/"})
		crawlReport.State = model.StateFinished
		crawlReport.StartedAt = time.Now().Add(time.Duration(-i) * time.Hour)
		crawlReport.FinishedAt = crawlReport.StartedAt.Add(time.Minute)
		crawlReport.PagesVisited = 10 + i
		if err := db.SaveReport(ctx, crawlReport); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
	}

	// Test listing - capture output using pipe
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	// Run the function
	listErr := listRunHistory(ctx, db, "docs.example.com", 0)

	// Close writer and restore stdout before reading
	w.Close()
	os.Stdout = oldStdout

	if listErr != nil {
		t.Fatalf("listRunHistory() error = %v", listErr)
	}

	// Read captured output
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	r.Close()
	output := buf.String()

	if !strings.Contains(output, "3 runs") {
		t.Errorf("expected '3 runs' in output, got: %s", output)
	}
	if !strings.Contains(output, "docs.example.com") {
		t.Errorf("expected target name in output, got: %s", output)
	}
	if !strings.Contains(output, "FINISHED") {
		t.Errorf("expected run state in output, got: %s", output)
	}
}

// TestListRunHistoryLimit tests that the limit caps the listed runs.
func TestListRunHistoryLimit(t *testing.T) {
	// Note: Not using t.Parallel() because this test captures os.Stdout

	tmpDir := t.TempDir()
	db, err := database.Open(tmpDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	for i := range 5 {
		crawlReport := model.NewCrawlReport("big.example.com", []string{"https://big.example.com/"})
		crawlReport.State = model.StateFinished
		crawlReport.StartedAt = time.Now().Add(time.Duration(-i) * time.Hour)
		if err := db.SaveReport(ctx, crawlReport); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
	}

	oldStdout := os.Stdout
	r, w, pipeErr := os.Pipe()
	if pipeErr != nil {
		t.Fatalf("failed to create pipe: %v", pipeErr)
	}
	os.Stdout = w

	listErr := listRunHistory(ctx, db, "big.example.com", 2)

	w.Close()
	os.Stdout = oldStdout

	if listErr != nil {
		t.Fatalf("listRunHistory() error = %v", listErr)
	}

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	r.Close()
	output := buf.String()

	if !strings.Contains(output, "2 runs") {
		t.Errorf("expected '2 runs' in output, got: %s", output)
	}
}

// TestListRunHistoryNoData tests the message for a target without history.
func TestListRunHistoryNoData(t *testing.T) {
	// Note: Not using t.Parallel() because this test captures os.Stdout

	tmpDir := t.TempDir()
	db, err := database.Open(tmpDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	oldStdout := os.Stdout
	r, w, pipeErr := os.Pipe()
	if pipeErr != nil {
		t.Fatalf("failed to create pipe: %v", pipeErr)
	}
	os.Stdout = w

	listErr := listRunHistory(ctx, db, "unknown.example.com", 0)

	w.Close()
	os.Stdout = oldStdout

	if listErr != nil {
		t.Fatalf("listRunHistory() error = %v", listErr)
	}

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	r.Close()
	output := buf.String()

	if !strings.Contains(output, "No crawl history found for unknown.example.com") {
		t.Errorf("expected no-history message, got: %s", output)
	}
}
