package model

import "testing"

// TestPageComputeHash tests the ComputeHash method.
func TestPageComputeHash(t *testing.T) {
	t.Parallel()

	t.Run("computes SHA256 hash of cleaned content", func(t *testing.T) {
		t.Parallel()

		page := &Page{
			CleanedHTML: "Hello, World!",
		}
		page.ComputeHash()

		// Expected SHA256 of "Hello, World!"
		expected := "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"
		if page.Hash != expected {
			t.Errorf("got %q, expected %q", page.Hash, expected)
		}
	})

	t.Run("empty content produces empty hash", func(t *testing.T) {
		t.Parallel()

		page := &Page{}
		page.ComputeHash()

		if page.Hash != "" {
			t.Errorf("expected empty hash, got %q", page.Hash)
		}
	})

	t.Run("identical content produces identical hash", func(t *testing.T) {
		t.Parallel()

		a := &Page{CleanedHTML: "<html><body>same</body></html>"}
		b := &Page{CleanedHTML: "<html><body>same</body></html>"}
		a.ComputeHash()
		b.ComputeHash()

		if a.Hash != b.Hash {
			t.Errorf("expected identical hashes, got %q and %q", a.Hash, b.Hash)
		}
	})

	t.Run("changed content changes the hash", func(t *testing.T) {
		t.Parallel()

		a := &Page{CleanedHTML: "<html><body>one</body></html>"}
		b := &Page{CleanedHTML: "<html><body>two</body></html>"}
		a.ComputeHash()
		b.ComputeHash()

		if a.Hash == b.Hash {
			t.Error("expected different hashes for different content")
		}
	})
}

// TestPageElementsByType tests filtering elements by type.
func TestPageElementsByType(t *testing.T) {
	t.Parallel()

	page := &Page{
		Elements: []Element{
			{Tag: "nav", Type: TypeNavigation, Text: "Menu"},
			{Tag: "a", Type: TypeLink, Text: "Home"},
			{Tag: "a", Type: TypeLink, Text: "About"},
			{Tag: "p", Type: TypeContent, Text: "Hello"},
		},
	}

	links := page.ElementsByType(TypeLink)
	if len(links) != 2 {
		t.Fatalf("expected 2 link elements, got %d", len(links))
	}
	if links[0].Text != "Home" || links[1].Text != "About" {
		t.Errorf("expected document order preserved, got %q then %q", links[0].Text, links[1].Text)
	}

	if media := page.ElementsByType(TypeMedia); len(media) != 0 {
		t.Errorf("expected no media elements, got %d", len(media))
	}
}

// TestPageCountByType tests the per-type element counts.
func TestPageCountByType(t *testing.T) {
	t.Parallel()

	page := &Page{
		Elements: []Element{
			{Tag: "nav", Type: TypeNavigation},
			{Tag: "a", Type: TypeLink},
			{Tag: "a", Type: TypeLink},
			{Tag: "button", Type: TypeButton},
		},
	}

	counts := page.CountByType()
	if counts[TypeLink] != 2 {
		t.Errorf("expected 2 links, got %d", counts[TypeLink])
	}
	if counts[TypeNavigation] != 1 {
		t.Errorf("expected 1 navigation, got %d", counts[TypeNavigation])
	}
	if counts[TypeForm] != 0 {
		t.Errorf("expected 0 forms, got %d", counts[TypeForm])
	}
}

// TestElementAttr tests attribute access on elements.
func TestElementAttr(t *testing.T) {
	t.Parallel()

	e := &Element{
		Tag:        "a",
		Attributes: map[string]string{"href": "/docs", "class": ""},
	}

	if got := e.Attr("href"); got != "/docs" {
		t.Errorf("Attr(\"href\") = %q, expected %q", got, "/docs")
	}
	if got := e.Attr("id"); got != "" {
		t.Errorf("Attr(\"id\") = %q, expected empty string", got)
	}
	if !e.HasAttr("class") {
		t.Error("expected HasAttr(\"class\") to be true for empty attribute")
	}
	if e.HasAttr("id") {
		t.Error("expected HasAttr(\"id\") to be false")
	}
}
