package storage

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/sitescan/internal/cleaner"
	"github.com/nao1215/sitescan/internal/config"
	"github.com/nao1215/sitescan/internal/frontier"
)

// snapshotFile is the crawl state file written into the target root.
const snapshotFile = "website_info.json"

// Store persists one target's crawl artifacts under a single directory:
//
//	<output>/<target>/<host>/<path-derived-name>.{html,md}
//	<output>/<target>/website_info.json
//	<output>/<target>/screenshots/homepage.png
//
// Artifacts mirror the site's path structure below each host directory, so
// resume scanning can walk a domain's saved pages without an index.
type Store struct {
	root   string
	format string
}

// New creates a store rooted at <outputDir>/<target> and ensures the root
// directory exists. The format selects the artifact type,
// config.SaveFormatHTML or config.SaveFormatMarkdown.
func New(outputDir, target, format string) (*Store, error) {
	root := filepath.Join(outputDir, target)
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{root: root, format: format}, nil
}

// Root returns the target's artifact directory.
func (s *Store) Root() string {
	return s.root
}

// Format returns the artifact format the store writes,
// config.SaveFormatHTML or config.SaveFormatMarkdown.
func (s *Store) Format() string {
	return s.format
}

// SnapshotPath returns the path of the crawl state file.
func (s *Store) SnapshotPath() string {
	return filepath.Join(s.root, snapshotFile)
}

// ScreenshotPath returns where the target's homepage screenshot lands.
func (s *Store) ScreenshotPath() string {
	return filepath.Join(s.root, "screenshots", "homepage.png")
}

// SaveDocument writes a cleaned document to its URL-derived artifact path
// and returns that path. Parent directories are created as needed.
func (s *Store) SaveDocument(rawURL string, doc *cleaner.Document) (string, error) {
	path, err := s.artifactPath(rawURL)
	if err != nil {
		return "", err
	}

	var content string
	if s.format == config.SaveFormatMarkdown {
		content, err = doc.Markdown()
		if err != nil {
			return "", fmt.Errorf("convert markdown: %w", err)
		}
	} else {
		content = doc.HTML()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// SaveSnapshot persists the frontier snapshot. The write is atomic, temp
// file plus rename, because a snapshot lands after every crawl step and a
// torn write would cost the whole resume state.
func (s *Store) SaveSnapshot(snap *frontier.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, snapshotFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot temp: %w", errors.Join(writeErr, closeErr))
	}
	if err := os.Rename(tmpName, s.SnapshotPath()); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the persisted frontier snapshot. A missing file
// returns ErrNoSnapshot; an unreadable or corrupt one returns a different
// error, and callers fall back to a cold start either way.
func (s *Store) LoadSnapshot() (*frontier.Snapshot, error) {
	data, err := os.ReadFile(s.SnapshotPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap frontier.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// ArtifactFiles returns the saved page files under one domain directory in
// lexical order, so resume scanning is deterministic. A domain with no
// artifacts yields nil.
func (s *Store) ArtifactFiles(domain string) []string {
	var files []string
	_ = filepath.WalkDir(filepath.Join(s.root, domain), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr // unreadable subtrees are simply not resumable
		}
		switch filepath.Ext(path) {
		case ".html", ".md":
			files = append(files, path)
		}
		return nil
	})
	return files
}

// artifactPath maps a URL to its artifact file path. The site's path
// structure is mirrored under the host directory: an empty or root path
// becomes "root-index", query strings append a URL-safe base64 suffix so
// distinct queries get distinct files, and ".html" is stripped before the
// format extension is added.
func (s *Store) artifactPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse artifact url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("artifact url %q has no host", rawURL)
	}

	name := strings.Trim(u.Path, "/")
	if name == "" {
		name = "root-index"
	}
	if u.RawQuery != "" {
		name += "_" + base64.URLEncoding.EncodeToString([]byte(u.RawQuery))
	}
	name = strings.ReplaceAll(name, ".html", "")
	name += s.ext()

	base := filepath.Join(s.root, u.Host)
	full := filepath.Join(base, filepath.FromSlash(name))
	// Join cleans dot segments, so an escaping path shows up as a prefix
	// violation rather than a write outside the target directory.
	if !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArtifactPath, rawURL)
	}
	return full, nil
}

// ext returns the artifact file extension for the configured format.
func (s *Store) ext() string {
	if s.format == config.SaveFormatMarkdown {
		return ".md"
	}
	return ".html"
}
