package model

import (
	"errors"
	"testing"
	"time"
)

// TestNewCrawlReport tests report construction.
func TestNewCrawlReport(t *testing.T) {
	t.Parallel()

	report := NewCrawlReport("example", []string{"https://example.com/"})

	if report.RunID == "" {
		t.Error("expected non-empty RunID")
	}
	if report.Target != "example" {
		t.Errorf("Target = %q, expected %q", report.Target, "example")
	}
	if report.State != StateIdle {
		t.Errorf("State = %v, expected StateIdle", report.State)
	}
	if report.DomainCounts == nil {
		t.Error("expected DomainCounts to be initialized")
	}
	if report.FailedURLs == nil {
		t.Error("expected FailedURLs to be initialized")
	}
	if report.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}

	other := NewCrawlReport("example", nil)
	if other.RunID == report.RunID {
		t.Error("expected distinct RunIDs for distinct reports")
	}
}

// TestCrawlReportAddPage tests recording successful pages.
func TestCrawlReportAddPage(t *testing.T) {
	t.Parallel()

	report := NewCrawlReport("example", nil)
	report.AddPage(&Page{URL: "https://example.com/"})
	report.AddPage(&Page{URL: "https://example.com/docs"})

	if report.PagesVisited != 2 {
		t.Errorf("PagesVisited = %d, expected 2", report.PagesVisited)
	}
	if len(report.VisitedURLs) != 2 || report.VisitedURLs[0] != "https://example.com/" {
		t.Errorf("unexpected VisitedURLs: %v", report.VisitedURLs)
	}

	page := report.GetPage("https://example.com/docs")
	if page == nil {
		t.Fatal("expected to find crawled page by URL")
	}
	if report.GetPage("https://example.com/missing") != nil {
		t.Error("expected nil for unknown URL")
	}
}

// TestCrawlReportAddFailure tests recording failed URLs.
func TestCrawlReportAddFailure(t *testing.T) {
	t.Parallel()

	t.Run("records error message", func(t *testing.T) {
		t.Parallel()

		report := NewCrawlReport("example", nil)
		report.AddFailure("https://example.com/broken", errors.New("connection refused"))

		if report.PagesFailed != 1 {
			t.Errorf("PagesFailed = %d, expected 1", report.PagesFailed)
		}
		if got := report.FailedURLs["https://example.com/broken"]; got != "connection refused" {
			t.Errorf("recorded error = %q, expected %q", got, "connection refused")
		}
	})

	t.Run("nil error records placeholder", func(t *testing.T) {
		t.Parallel()

		report := NewCrawlReport("example", nil)
		report.AddFailure("https://example.com/odd", nil)

		if got := report.FailedURLs["https://example.com/odd"]; got != "unknown error" {
			t.Errorf("recorded error = %q, expected %q", got, "unknown error")
		}
	})

	t.Run("works on zero-value report", func(t *testing.T) {
		t.Parallel()

		var report CrawlReport
		report.AddFailure("https://example.com/", errors.New("boom"))

		if report.FailedURLs == nil || report.PagesFailed != 1 {
			t.Error("expected AddFailure to initialize the failure map")
		}
	})
}

// TestCrawlReportFinish tests terminal state transitions.
func TestCrawlReportFinish(t *testing.T) {
	t.Parallel()

	t.Run("finished without error", func(t *testing.T) {
		t.Parallel()

		report := NewCrawlReport("example", nil)
		report.Finish(StateFinished, nil)

		if report.State != StateFinished {
			t.Errorf("State = %v, expected StateFinished", report.State)
		}
		if report.FinishedAt.IsZero() {
			t.Error("expected FinishedAt to be set")
		}
		if report.ErrorMessage != "" {
			t.Errorf("expected empty ErrorMessage, got %q", report.ErrorMessage)
		}
	})

	t.Run("failed with error", func(t *testing.T) {
		t.Parallel()

		report := NewCrawlReport("example", nil)
		report.Finish(StateFailed, errors.New("no pages visited"))

		if report.State != StateFailed {
			t.Errorf("State = %v, expected StateFailed", report.State)
		}
		if report.ErrorMessage != "no pages visited" {
			t.Errorf("ErrorMessage = %q, expected %q", report.ErrorMessage, "no pages visited")
		}
		if report.Error == nil {
			t.Error("expected Error to be set")
		}
	})
}

// TestCrawlReportDuration tests duration calculation.
func TestCrawlReportDuration(t *testing.T) {
	t.Parallel()

	report := NewCrawlReport("example", nil)
	report.StartedAt = time.Now().Add(-2 * time.Second)

	if d := report.Duration(); d < time.Second {
		t.Errorf("expected running duration of at least 1s, got %v", d)
	}

	report.FinishedAt = report.StartedAt.Add(5 * time.Second)
	if d := report.Duration(); d != 5*time.Second {
		t.Errorf("Duration() = %v, expected 5s", d)
	}
}

// TestCrawlReportTotalElements tests element counting across pages.
func TestCrawlReportTotalElements(t *testing.T) {
	t.Parallel()

	report := NewCrawlReport("example", nil)
	report.AddPage(&Page{
		URL:      "https://example.com/",
		Elements: []Element{{Tag: "nav"}, {Tag: "a"}},
	})
	report.AddPage(&Page{
		URL:      "https://example.com/docs",
		Elements: []Element{{Tag: "h1"}},
	})

	if got := report.TotalElements(); got != 3 {
		t.Errorf("TotalElements() = %d, expected 3", got)
	}
}
