package crawler

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nao1215/sitescan/internal/config"
	"github.com/nao1215/sitescan/internal/fetch"
	"github.com/nao1215/sitescan/internal/model"
	"github.com/nao1215/sitescan/internal/storage"
)

// TestNewBatchProcessor tests the BatchProcessor constructor.
func TestNewBatchProcessor(t *testing.T) {
	t.Parallel()

	nopFactory := func(string) (*Crawler, error) { return nil, errors.New("unused") }

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(nopFactory)

		if bp == nil {
			t.Fatal("expected non-nil processor")
		}
		if bp.concurrency != config.DefaultBatchSize {
			t.Errorf("concurrency = %d, want %d", bp.concurrency, config.DefaultBatchSize)
		}
		if bp.logger == nil {
			t.Error("logger is nil, want a default")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(nopFactory, WithConcurrency(8))

		if bp.concurrency != 8 {
			t.Errorf("concurrency = %d, want 8", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(nopFactory, WithConcurrency(0))

		if bp.concurrency != config.DefaultBatchSize {
			t.Errorf("concurrency = %d, want the default %d", bp.concurrency, config.DefaultBatchSize)
		}
	})

	t.Run("applies WithBatchLogger option", func(t *testing.T) {
		t.Parallel()

		logger := discardLogger()
		bp := NewBatchProcessor(nopFactory, WithBatchLogger(logger))

		if bp.logger != logger {
			t.Error("custom logger was not applied")
		}
	})
}

// TestProcessBatch tests concurrent multi-target crawling.
func TestProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("crawls every target and aligns reports with input order", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(crawlSite())
		defer server.Close()
		dir := t.TempDir()

		factory := func(target string) (*Crawler, error) {
			fetcher, err := fetch.NewStatic(fetch.Options{})
			if err != nil {
				return nil, err
			}
			store, err := storage.New(dir, target, config.SaveFormatHTML)
			if err != nil {
				return nil, err
			}
			return New(testTarget(target, []string{server.URL}), fetcher, store,
				WithLogger(discardLogger()),
			), nil
		}

		bp := NewBatchProcessor(factory, WithConcurrency(2), WithBatchLogger(discardLogger()))
		targets := []string{"first-site", "second-site"}

		reports, err := bp.ProcessBatch(context.Background(), targets)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != len(targets) {
			t.Fatalf("got %d reports, want %d", len(reports), len(targets))
		}
		for i, target := range targets {
			if reports[i] == nil {
				t.Fatalf("report %d is nil", i)
			}
			if reports[i].Target != target {
				t.Errorf("reports[%d].Target = %q, want %q", i, reports[i].Target, target)
			}
			if reports[i].State != model.StateFinished {
				t.Errorf("reports[%d].State = %s, want %s", i, reports[i].State, model.StateFinished)
			}
			if reports[i].PagesVisited != 4 {
				t.Errorf("reports[%d].PagesVisited = %d, want 4", i, reports[i].PagesVisited)
			}
		}
	})

	t.Run("factory errors become failed reports", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(crawlSite())
		defer server.Close()
		dir := t.TempDir()

		factory := func(target string) (*Crawler, error) {
			if target == "broken" {
				return nil, errors.New("no such target")
			}
			fetcher, err := fetch.NewStatic(fetch.Options{})
			if err != nil {
				return nil, err
			}
			store, err := storage.New(dir, target, config.SaveFormatHTML)
			if err != nil {
				return nil, err
			}
			return New(testTarget(target, []string{server.URL}), fetcher, store,
				WithLogger(discardLogger()),
			), nil
		}

		bp := NewBatchProcessor(factory, WithBatchLogger(discardLogger()))
		reports, err := bp.ProcessBatch(context.Background(), []string{"good", "broken"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if reports[0].State != model.StateFinished {
			t.Errorf("good target state = %s, want %s", reports[0].State, model.StateFinished)
		}
		if reports[1].State != model.StateFailed {
			t.Errorf("broken target state = %s, want %s", reports[1].State, model.StateFailed)
		}
		if reports[1].Target != "broken" {
			t.Errorf("broken report Target = %q, want %q", reports[1].Target, "broken")
		}
		if !strings.Contains(reports[1].ErrorMessage, "no such target") {
			t.Errorf("broken report error = %q, want the factory error", reports[1].ErrorMessage)
		}
	})

	t.Run("cancelled context stops the batch", func(t *testing.T) {
		t.Parallel()

		factory := func(string) (*Crawler, error) {
			t.Error("factory called after cancellation")
			return nil, errors.New("unreachable")
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(factory, WithBatchLogger(discardLogger()))
		_, err := bp.ProcessBatch(ctx, []string{"a", "b"})

		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})

	t.Run("empty target list yields no reports", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func(string) (*Crawler, error) {
			return nil, errors.New("unused")
		}, WithBatchLogger(discardLogger()))

		reports, err := bp.ProcessBatch(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != 0 {
			t.Errorf("got %d reports, want 0", len(reports))
		}
	})
}
