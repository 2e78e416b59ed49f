package storage

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/sitescan/internal/cleaner"
	"github.com/nao1215/sitescan/internal/config"
	"github.com/nao1215/sitescan/internal/frontier"
	"github.com/nao1215/sitescan/internal/urlutil"
)

// The frontier resumes from saved artifacts through this store.
var _ frontier.ArtifactLister = (*Store)(nil)

// TestArtifactPath tests URL to file path mapping.
func TestArtifactPath(t *testing.T) {
	t.Parallel()

	t.Run("derives names from the url path", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tests := []struct {
			name string
			url  string
			want string
		}{
			{"root path", "https://example.com/", "example.com/root-index.html"},
			{"empty path", "https://example.com", "example.com/root-index.html"},
			{"nested path", "https://example.com/docs/guide/", "example.com/docs/guide.html"},
			{"html extension not doubled", "https://example.com/page.html", "example.com/page.html"},
		}
		for _, tt := range tests {
			got, err := store.artifactPath(tt.url)
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.name, err)
			}
			want := filepath.Join(store.Root(), filepath.FromSlash(tt.want))
			if got != want {
				t.Errorf("%s: artifactPath(%q) = %q, want %q", tt.name, tt.url, got, want)
			}
		}
	})

	t.Run("query strings get a distinct suffix", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := store.artifactPath("https://example.com/search?q=go+tools")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		suffix := base64.URLEncoding.EncodeToString([]byte("q=go+tools"))
		want := filepath.Join(store.Root(), "example.com", "search_"+suffix+".html")
		if got != want {
			t.Errorf("artifactPath = %q, want %q", got, want)
		}
	})

	t.Run("markdown stores use the md extension", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatMarkdown)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := store.artifactPath("https://example.com/about")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasSuffix(got, filepath.Join("example.com", "about.md")) {
			t.Errorf("artifactPath = %q, want an .md file under example.com", got)
		}
	})

	t.Run("escaping paths are rejected", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := store.artifactPath("https://example.com/../../evil"); !errors.Is(err, ErrUnsafeArtifactPath) {
			t.Errorf("expected ErrUnsafeArtifactPath, got %v", err)
		}
	})

	t.Run("urls without a host are rejected", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := store.artifactPath("/relative/only"); err == nil {
			t.Error("expected error for host-less url, got nil")
		}
	})
}

// TestSaveDocument tests artifact writing.
func TestSaveDocument(t *testing.T) {
	t.Parallel()

	t.Run("writes cleaned html with nested directories", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		doc := cleaner.Clean(
			`<html><head><title>Guide</title></head><body><p>intro text</p></body></html>`,
			"https://example.com/docs/a/b", "", nil,
		)
		path, err := store.SaveDocument("https://example.com/docs/a/b", doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := filepath.Join(store.Root(), "example.com", "docs", "a", "b.html")
		if path != want {
			t.Errorf("path = %q, want %q", path, want)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(content), "page-info") {
			t.Error("artifact is missing the provenance stamp")
		}
		if !strings.Contains(string(content), "<p>intro text</p>") {
			t.Error("artifact is missing the page body")
		}
	})

	t.Run("writes markdown artifacts", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatMarkdown)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		doc := cleaner.Clean(
			`<html><body><h1>Pricing</h1><p>plans</p></body></html>`,
			"https://example.com/pricing", "Pricing", nil,
		)
		path, err := store.SaveDocument("https://example.com/pricing", doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Ext(path) != ".md" {
			t.Errorf("path = %q, want an .md file", path)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(content), "https://example.com/pricing") {
			t.Error("markdown artifact is missing the stamped source url")
		}
	})
}

// TestSnapshotPersistence tests crawl state saving and loading.
func TestSnapshotPersistence(t *testing.T) {
	t.Parallel()

	t.Run("snapshots round trip through disk", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		policy, err := urlutil.NewPolicy([]string{"example.com"}, []string{"/logout"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f := frontier.New("acme", []string{"https://example.com/"}, policy)
		f.MarkVisited("https://example.com/", "example.com")
		f.MarkFailed("https://example.com/broken", errors.New("status 500"))
		f.Close(false)

		snap := f.Snapshot()
		if err := store.SaveSnapshot(snap); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		loaded, err := store.LoadSnapshot()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loaded.Target != snap.Target {
			t.Errorf("Target = %q, want %q", loaded.Target, snap.Target)
		}
		if len(loaded.VisitedURLs) != 1 || loaded.VisitedURLs[0] != "https://example.com/" {
			t.Errorf("VisitedURLs = %v, want the visited page", loaded.VisitedURLs)
		}
		if loaded.FailedURLs["https://example.com/broken"] != "status 500" {
			t.Errorf("FailedURLs = %v, want the failure message", loaded.FailedURLs)
		}
		if !loaded.Finished || loaded.Failed {
			t.Errorf("flags = finished %v failed %v, want finished true failed false", loaded.Finished, loaded.Failed)
		}
		if !loaded.Timestamp.Equal(snap.Timestamp) {
			t.Errorf("Timestamp = %v, want %v", loaded.Timestamp, snap.Timestamp)
		}
	})

	t.Run("missing snapshot returns ErrNoSnapshot", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := store.LoadSnapshot(); !errors.Is(err, ErrNoSnapshot) {
			t.Errorf("expected ErrNoSnapshot, got %v", err)
		}
	})

	t.Run("corrupt snapshot is an error but not ErrNoSnapshot", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := os.WriteFile(store.SnapshotPath(), []byte("{not json"), 0600); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = store.LoadSnapshot()
		if err == nil {
			t.Fatal("expected error for corrupt snapshot, got nil")
		}
		if errors.Is(err, ErrNoSnapshot) {
			t.Error("corrupt snapshot reported as absent")
		}
	})

	t.Run("saving twice leaves a single clean state file", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f := frontier.New("acme", []string{"https://example.com/"}, nil)
		for i := 0; i < 2; i++ {
			if err := store.SaveSnapshot(f.Snapshot()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		leftovers, err := filepath.Glob(filepath.Join(store.Root(), snapshotFile+".tmp-*"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(leftovers) != 0 {
			t.Errorf("temp files left behind: %v", leftovers)
		}
		if _, err := os.Stat(store.SnapshotPath()); err != nil {
			t.Errorf("state file missing: %v", err)
		}
	})
}

// TestArtifactFiles tests artifact enumeration for resume scanning.
func TestArtifactFiles(t *testing.T) {
	t.Parallel()

	t.Run("lists one domain's files in lexical order", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		pages := []string{
			"https://example.com/b",
			"https://example.com/a/deep",
			"https://other.com/x",
		}
		for _, page := range pages {
			doc := cleaner.Clean("<html><body><p>x</p></body></html>", page, "", nil)
			if _, err := store.SaveDocument(page, doc); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		files := store.ArtifactFiles("example.com")
		if len(files) != 2 {
			t.Fatalf("got %d files, want 2: %v", len(files), files)
		}
		if !strings.HasSuffix(files[0], filepath.Join("a", "deep.html")) {
			t.Errorf("files[0] = %q, want the nested artifact first", files[0])
		}
		if !strings.HasSuffix(files[1], "b.html") {
			t.Errorf("files[1] = %q, want b.html", files[1])
		}
		for _, file := range files {
			if strings.Contains(file, "other.com") {
				t.Errorf("file %q belongs to another domain", file)
			}
		}
	})

	t.Run("unknown domain yields nothing", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if files := store.ArtifactFiles("missing.example"); len(files) != 0 {
			t.Errorf("got %v, want none", files)
		}
	})

	t.Run("non-artifact files are ignored", func(t *testing.T) {
		t.Parallel()

		store, err := New(t.TempDir(), "acme", config.SaveFormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		dir := filepath.Join(store.Root(), "example.com")
		if err := os.MkdirAll(dir, 0750); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if files := store.ArtifactFiles("example.com"); len(files) != 0 {
			t.Errorf("got %v, want none", files)
		}
	})
}
