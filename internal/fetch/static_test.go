package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
)

// TestStaticNavigate tests plain HTTP fetching.
func TestStaticNavigate(t *testing.T) {
	t.Parallel()

	t.Run("fetches a page and reports its title", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><head><title> Docs </title></head><body><p>hello</p></body></html>`))
		}))
		defer server.Close()

		fetcher, err := NewStatic(Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = fetcher.Close() }()

		res, err := fetcher.Navigate(context.Background(), server.URL+"/docs")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Success {
			t.Errorf("Success = false (%s), want true", res.Error)
		}
		if res.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want %d", res.StatusCode, http.StatusOK)
		}
		if res.Title != "Docs" {
			t.Errorf("Title = %q, want %q", res.Title, "Docs")
		}
		if !strings.Contains(res.HTML, "<p>hello</p>") {
			t.Errorf("HTML %q does not contain the page body", res.HTML)
		}
		if res.FinalURL != server.URL+"/docs" {
			t.Errorf("FinalURL = %q, want %q", res.FinalURL, server.URL+"/docs")
		}
	})

	t.Run("sends the configured identity headers", func(t *testing.T) {
		t.Parallel()

		var got http.Header
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			_, _ = w.Write([]byte("<html></html>"))
		}))
		defer server.Close()

		fetcher, err := NewStatic(Options{
			UserAgent: "sitescan-test/1.0",
			Headers:   map[string]string{"X-Custom": "yes"},
			Cookie:    "session=abc123",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := fetcher.Navigate(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if ua := got.Get("User-Agent"); ua != "sitescan-test/1.0" {
			t.Errorf("User-Agent = %q, want %q", ua, "sitescan-test/1.0")
		}
		if v := got.Get("X-Custom"); v != "yes" {
			t.Errorf("X-Custom = %q, want %q", v, "yes")
		}
		if v := got.Get("Cookie"); v != "session=abc123" {
			t.Errorf("Cookie = %q, want %q", v, "session=abc123")
		}
	})

	t.Run("decodes gzip bodies", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			_, _ = gz.Write([]byte("<html><body>compressed</body></html>"))
			_ = gz.Close()
		}))
		defer server.Close()

		fetcher, err := NewStatic(Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		res, err := fetcher.Navigate(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(res.HTML, "compressed") {
			t.Errorf("HTML = %q, want decoded body", res.HTML)
		}
	})

	t.Run("decodes brotli bodies", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Encoding", "br")
			br := brotli.NewWriter(w)
			_, _ = br.Write([]byte("<html><body>brotli body</body></html>"))
			_ = br.Close()
		}))
		defer server.Close()

		fetcher, err := NewStatic(Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		res, err := fetcher.Navigate(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(res.HTML, "brotli body") {
			t.Errorf("HTML = %q, want decoded body", res.HTML)
		}
	})

	t.Run("follows redirects into FinalURL", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html><body>landed</body></html>"))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		fetcher, err := NewStatic(Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		res, err := fetcher.Navigate(context.Background(), server.URL+"/old")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.FinalURL != server.URL+"/new" {
			t.Errorf("FinalURL = %q, want %q", res.FinalURL, server.URL+"/new")
		}
		if !strings.Contains(res.HTML, "landed") {
			t.Errorf("HTML = %q, want the redirect target body", res.HTML)
		}
	})

	t.Run("error statuses mark the result unsuccessful", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		fetcher, err := NewStatic(Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		res, err := fetcher.Navigate(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Success {
			t.Error("Success = true, want false for a 404")
		}
		if res.Error != "http status 404" {
			t.Errorf("Error = %q, want %q", res.Error, "http status 404")
		}
	})

	t.Run("bodies over the limit fail", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 1024)))
		}))
		defer server.Close()

		fetcher, err := NewStatic(Options{MaxBodySize: 64})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := fetcher.Navigate(context.Background(), server.URL); !errors.Is(err, ErrBodyTooLarge) {
			t.Errorf("expected ErrBodyTooLarge, got %v", err)
		}
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html></html>"))
		}))
		defer server.Close()

		fetcher, err := NewStatic(Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := fetcher.Navigate(ctx, server.URL); err == nil {
			t.Error("expected error for cancelled context, got nil")
		}
	})
}

// TestNewStatic tests static fetcher construction.
func TestNewStatic(t *testing.T) {
	t.Parallel()

	t.Run("rejects malformed proxy addresses", func(t *testing.T) {
		t.Parallel()

		if _, err := NewStatic(Options{ProxyAddress: "not-an-address"}); !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("accepts host:port proxy addresses without connecting", func(t *testing.T) {
		t.Parallel()

		fetcher, err := NewStatic(Options{ProxyAddress: "127.0.0.1:9050"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fetcher == nil {
			t.Fatal("expected non-nil fetcher")
		}
	})
}

// TestScanTitle tests the title tokenizer.
func TestScanTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"plain title", "<html><head><title>Hi</title></head></html>", "Hi"},
		{"whitespace trimmed", "<title>\n  Spaced  \n</title>", "Spaced"},
		{"no title", "<html><body><p>x</p></body></html>", ""},
		{"empty title", "<title></title>", ""},
		{"empty input", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := scanTitle(tt.markup); got != tt.want {
				t.Errorf("scanTitle(%q) = %q, want %q", tt.markup, got, tt.want)
			}
		})
	}
}
