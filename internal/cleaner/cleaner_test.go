package cleaner

import (
	"strings"
	"testing"
)

// TestClean tests HTML normalization.
func TestClean(t *testing.T) {
	t.Parallel()

	t.Run("cleaning is deterministic", func(t *testing.T) {
		t.Parallel()

		raw := `<html><head><script>x</script><title>T</title></head>
			<body><div class="x" data-junk="1">Hi<!-- note --></div><p></p></body></html>`
		first := Clean(raw, "https://example.com/", "", nil).HTML()
		second := Clean(raw, "https://example.com/", "", nil).HTML()

		if first != second {
			t.Error("expected byte-identical output for identical input")
		}
	})

	t.Run("removes noise and keeps meaningful content", func(t *testing.T) {
		t.Parallel()

		raw := `<html><head><script>x</script><title>T</title></head><body><p></p><div class="x">Hi</div></body></html>`
		got := Clean(raw, "https://example.com/", "", nil).HTML()

		if strings.Contains(got, "<script") {
			t.Error("expected script elements to be removed")
		}
		if !strings.Contains(got, "<head><title>T</title></head>") {
			t.Errorf("expected head to contain only the title, got %q", got)
		}
		if strings.Contains(got, "<p") {
			t.Error("expected the empty p to be removed")
		}
		if !strings.Contains(got, `<div class="x">Hi</div>`) {
			t.Errorf("expected the div with content to survive, got %q", got)
		}
	})

	t.Run("empty input yields a stamp-only document", func(t *testing.T) {
		t.Parallel()

		doc := Clean("", "https://example.com/", "", nil)

		if doc.Title != "No title" {
			t.Errorf("got title %q, expected %q", doc.Title, "No title")
		}
		want := `<div class="page-info"><h1 class="page-url">https://example.com/</h1><h2 class="page-title">No title</h2><hr/></div>`
		if !strings.Contains(doc.HTML(), want) {
			t.Errorf("expected the provenance stamp, got %q", doc.HTML())
		}
	})

	t.Run("stamp comes first in the body", func(t *testing.T) {
		t.Parallel()

		raw := `<html><head><title>Home</title></head><body><div class="content">Welcome</div></body></html>`
		got := Clean(raw, "https://example.com/", "", nil).HTML()

		stampAt := strings.Index(got, `class="page-info"`)
		contentAt := strings.Index(got, `class="content"`)
		if stampAt < 0 || contentAt < 0 || stampAt > contentAt {
			t.Errorf("expected the stamp before the content, got %q", got)
		}
	})

	t.Run("removes tooltips", func(t *testing.T) {
		t.Parallel()

		raw := `<html><body><div role="tooltip">tip</div><div role="main">kept</div></body></html>`
		got := Clean(raw, "https://example.com/", "", nil).HTML()

		if strings.Contains(got, "tip</div>") {
			t.Errorf("expected tooltip to be removed, got %q", got)
		}
		if !strings.Contains(got, `<div role="main">kept</div>`) {
			t.Errorf("expected non-tooltip role to survive, got %q", got)
		}
	})

	t.Run("filters attributes and preserves their order", func(t *testing.T) {
		t.Parallel()

		raw := `<html><body><div style="color:red" class="a" data-junk="1" id="b">text</div></body></html>`
		got := Clean(raw, "https://example.com/", "", nil).HTML()

		if !strings.Contains(got, `<div class="a" id="b">text</div>`) {
			t.Errorf("expected only class and id in source order, got %q", got)
		}
	})

	t.Run("drops src from images and svg", func(t *testing.T) {
		t.Parallel()

		raw := `<html><body><img src="logo.png" class="logo"><svg src="icon.svg" class="icon"><path d="M0 0"></path></svg><video src="clip.mp4"></video></body></html>`
		got := Clean(raw, "https://example.com/", "", nil).HTML()

		if !strings.Contains(got, `<img class="logo"/>`) {
			t.Errorf("expected img to lose src, got %q", got)
		}
		if strings.Contains(got, "icon.svg") || strings.Contains(got, "<path") {
			t.Errorf("expected svg src and path to be removed, got %q", got)
		}
		if !strings.Contains(got, `<video src="clip.mp4">`) {
			t.Errorf("expected video to keep src, got %q", got)
		}
	})

	t.Run("strips comments", func(t *testing.T) {
		t.Parallel()

		raw := `<html><body><!-- build 1234 --><div class="a">x</div></body></html>`
		got := Clean(raw, "https://example.com/", "", nil).HTML()

		if strings.Contains(got, "build 1234") || strings.Contains(got, "<!--") {
			t.Errorf("expected comments to be stripped, got %q", got)
		}
	})

	t.Run("removes anchors pointing at known links", func(t *testing.T) {
		t.Parallel()

		raw := `<html><body><a href="/about">About</a><a href="/pricing">Pricing</a></body></html>`
		known := map[string]bool{"/about": true}
		got := Clean(raw, "https://example.com/", "", known).HTML()

		if strings.Contains(got, "About") {
			t.Errorf("expected the known anchor to be removed, got %q", got)
		}
		if !strings.Contains(got, `<a href="/pricing">Pricing</a>`) {
			t.Errorf("expected the new anchor to survive, got %q", got)
		}
	})

	t.Run("nil known links keeps every anchor", func(t *testing.T) {
		t.Parallel()

		raw := `<html><body><a href="/about">About</a></body></html>`
		got := Clean(raw, "https://example.com/", "", nil).HTML()

		if !strings.Contains(got, `<a href="/about">About</a>`) {
			t.Errorf("expected all anchors with nil known links, got %q", got)
		}
	})

	t.Run("removes nested empty elements to a fixed point", func(t *testing.T) {
		t.Parallel()

		raw := `<html><body><div><ul><li></li><li> </li></ul></div><div class="keep">x</div></body></html>`
		got := Clean(raw, "https://example.com/", "", nil).HTML()

		if strings.Contains(got, "<ul") || strings.Contains(got, "<li") {
			t.Errorf("expected the empty list to collapse away, got %q", got)
		}
		if strings.Contains(got, "<div>") {
			t.Errorf("expected the emptied wrapper div to be removed, got %q", got)
		}
		if !strings.Contains(got, `<div class="keep">x</div>`) {
			t.Errorf("expected the non-empty div to survive, got %q", got)
		}
	})

	t.Run("preserve set survives empty removal", func(t *testing.T) {
		t.Parallel()

		raw := `<html><body><div><br></div><hr><img></body></html>`
		got := Clean(raw, "https://example.com/", "", nil).HTML()

		if !strings.Contains(got, "<div><br/></div>") {
			t.Errorf("expected br and its wrapper to survive, got %q", got)
		}
		if !strings.Contains(got, "<img/>") {
			t.Errorf("expected bare img to survive, got %q", got)
		}
	})

	t.Run("a provided title wins over the document title", func(t *testing.T) {
		t.Parallel()

		raw := `<html><head><title>Doc Title</title></head><body>x</body></html>`
		doc := Clean(raw, "https://example.com/", "Rendered Title", nil)

		if doc.Title != "Rendered Title" {
			t.Errorf("got %q, expected %q", doc.Title, "Rendered Title")
		}
		if !strings.Contains(doc.HTML(), `<h2 class="page-title">Rendered Title</h2>`) {
			t.Errorf("expected the stamp to carry the provided title, got %q", doc.HTML())
		}
	})

	t.Run("falls back to the document title", func(t *testing.T) {
		t.Parallel()

		raw := `<html><head><title>  Doc Title  </title></head><body>x</body></html>`
		doc := Clean(raw, "https://example.com/", "", nil)

		if doc.Title != "Doc Title" {
			t.Errorf("got %q, expected %q", doc.Title, "Doc Title")
		}
	})

	t.Run("malformed input never panics and still stamps", func(t *testing.T) {
		t.Parallel()

		doc := Clean("<div><<p>>junk</b></span>", "https://example.com/", "", nil)

		if !strings.Contains(doc.HTML(), `class="page-info"`) {
			t.Errorf("expected a stamped document for malformed input, got %q", doc.HTML())
		}
	})
}

// TestExtractLinks tests link extraction from cleaned documents.
func TestExtractLinks(t *testing.T) {
	t.Parallel()

	t.Run("resolves, deduplicates, and keeps document order", func(t *testing.T) {
		t.Parallel()

		raw := `<html><body>
			<a href="/about">About</a>
			<a href="https://other.com/page">Other</a>
			<a href="/about">About again</a>
			<a href="contact.html">Contact</a>
		</body></html>`
		doc := Clean(raw, "https://example.com/docs/", "", nil)

		got := ExtractLinks(doc, "https://example.com/docs/")
		want := []string{
			"https://example.com/about",
			"https://other.com/page",
			"https://example.com/docs/contact.html",
		}
		if len(got) != len(want) {
			t.Fatalf("got %v, expected %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("link %d: got %q, expected %q", i, got[i], want[i])
			}
		}
	})

	t.Run("skips fragments and non-crawlable schemes", func(t *testing.T) {
		t.Parallel()

		raw := `<html><body>
			<a href="#top">Top</a>
			<a href="mailto:hello@example.com">Mail</a>
			<a href="javascript:void(0)">JS</a>
			<a href="/real">Real</a>
		</body></html>`
		doc := Clean(raw, "https://example.com/", "", nil)

		got := ExtractLinks(doc, "https://example.com/")
		if len(got) != 1 || got[0] != "https://example.com/real" {
			t.Errorf("got %v, expected only the real link", got)
		}
	})

	t.Run("stamp-only document yields no links", func(t *testing.T) {
		t.Parallel()

		doc := Clean("", "https://example.com/", "", nil)
		if got := ExtractLinks(doc, "https://example.com/"); len(got) != 0 {
			t.Errorf("got %v, expected no links", got)
		}
	})
}

// TestMarkdown tests markdown conversion of cleaned documents.
func TestMarkdown(t *testing.T) {
	t.Parallel()

	t.Run("converts the cleaned document", func(t *testing.T) {
		t.Parallel()

		raw := `<html><head><title>Guide</title></head><body>
			<h1>Getting Started</h1>
			<p>Welcome to the guide.</p>
			<a href="/next">Next chapter</a>
		</body></html>`
		doc := Clean(raw, "https://example.com/guide", "", nil)

		md, err := doc.Markdown()
		if err != nil {
			t.Fatalf("failed to convert: %v", err)
		}
		if !strings.Contains(md, "Getting Started") {
			t.Errorf("expected the heading in markdown, got %q", md)
		}
		if !strings.Contains(md, "Welcome to the guide.") {
			t.Errorf("expected the paragraph in markdown, got %q", md)
		}
		if !strings.Contains(md, "https://example.com/guide") {
			t.Errorf("expected the stamped source URL in markdown, got %q", md)
		}
	})
}

// TestRawHrefs tests raw href collection from cleaned documents.
func TestRawHrefs(t *testing.T) {
	t.Parallel()

	t.Run("collects surviving hrefs once each", func(t *testing.T) {
		t.Parallel()

		raw := `<html><body>
			<a href="/docs">Docs</a>
			<a href="/docs">Docs again</a>
			<a href="https://other.com/">Other</a>
		</body></html>`
		doc := Clean(raw, "https://example.com/", "", nil)

		got := RawHrefs(doc)
		want := []string{"/docs", "https://other.com/"}
		if len(got) != len(want) {
			t.Fatalf("RawHrefs() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("href %d: got %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("known anchors removed by Clean do not reappear", func(t *testing.T) {
		t.Parallel()

		raw := `<html><body>
			<a href="/menu">Menu</a>
			<a href="/fresh">Fresh</a>
		</body></html>`
		doc := Clean(raw, "https://example.com/", "", map[string]bool{"/menu": true})

		got := RawHrefs(doc)
		if len(got) != 1 || got[0] != "/fresh" {
			t.Errorf("RawHrefs() = %v, want [/fresh]", got)
		}
	})
}
