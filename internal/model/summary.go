package model

import (
	"sort"
	"time"
)

// MaxTopElements is the number of top-scored elements kept in a summary.
const MaxTopElements = 20

// Summary is a summarized, human-readable crawl report.
// It extracts the key results from the full report for quick review.
//
// Design decision: We create a separate summary rather than just printing
// parts of CrawlReport because:
// 1. It provides a consistent, curated view of the most important results
// 2. It can be serialized to JSON for tools that want structured but simple output
// 3. It separates presentation concerns from data collection
type Summary struct {
	// Target is the crawled target name.
	Target string `json:"target"`

	// RunID identifies the run this summary describes.
	RunID string `json:"run_id"`

	// DateCrawled is when the crawl was started.
	DateCrawled time.Time `json:"date_crawled"`

	// State is the human-readable terminal state of the run.
	State string `json:"state"`

	// === Element Type Distribution ===

	// NavigationCount is the number of navigation elements found.
	NavigationCount int `json:"navigation_count"`

	// ButtonCount is the number of button elements found.
	ButtonCount int `json:"button_count"`

	// LinkCount is the number of link elements found.
	LinkCount int `json:"link_count"`

	// FormCount is the number of form elements found.
	FormCount int `json:"form_count"`

	// HeaderCount is the number of heading elements found.
	HeaderCount int `json:"header_count"`

	// ContentCount is the number of content elements found.
	ContentCount int `json:"content_count"`

	// MediaCount is the number of media elements found.
	MediaCount int `json:"media_count"`

	// UnknownCount is the number of unclassified elements found.
	UnknownCount int `json:"unknown_count"`

	// === Top Elements ===

	// TopElements lists the highest-scored elements across all pages,
	// capped at MaxTopElements.
	TopElements []RankedElement `json:"top_elements,omitempty"`

	// === Page Statistics ===

	// PagesCrawled is the number of pages successfully crawled.
	PagesCrawled int `json:"pages_crawled"`

	// PagesFailed is the number of URLs that failed.
	PagesFailed int `json:"pages_failed"`

	// PagesSkipped is the number of URLs rejected before fetching.
	PagesSkipped int `json:"pages_skipped"`

	// Domains maps each visited host to its visit count.
	Domains map[string]int `json:"domains,omitempty"`

	// FailedURLs lists failed URLs with their error messages,
	// sorted by URL for stable output.
	FailedURLs []FailedURL `json:"failed_urls,omitempty"`

	// TimedOut indicates the run was terminated by the inactivity watchdog.
	TimedOut bool `json:"timed_out"`

	// Error contains the error message if the run failed.
	Error string `json:"error,omitempty"`
}

// RankedElement is one entry in the summary's top-element list.
type RankedElement struct {
	// PageURL is the page the element was found on.
	PageURL string `json:"page_url"`

	// Tag is the element's HTML tag name.
	Tag string `json:"tag"`

	// Type is the classified element type.
	Type ElementType `json:"type"`

	// Text is the element's trimmed inner text.
	Text string `json:"text,omitempty"`

	// Score is the element's priority score.
	Score float64 `json:"score"`
}

// FailedURL is one entry in the summary's failure list.
type FailedURL struct {
	// URL is the URL that failed.
	URL string `json:"url"`

	// Error is the recorded error message.
	Error string `json:"error"`
}

// NewSummary creates a new Summary from a CrawlReport.
// This extracts and summarizes the key results.
func NewSummary(report *CrawlReport) *Summary {
	s := &Summary{
		Target:       report.Target,
		RunID:        report.RunID,
		DateCrawled:  report.StartedAt,
		State:        report.State.String(),
		PagesCrawled: report.PagesVisited,
		PagesFailed:  report.PagesFailed,
		PagesSkipped: report.PagesSkipped,
		Domains:      report.DomainCounts,
		TimedOut:     report.State == StateTimedOut,
		Error:        report.ErrorMessage,
	}

	s.countByType(report)
	s.collectTopElements(report)
	s.collectFailures(report)

	return s
}

// countByType counts elements by type across all pages.
func (s *Summary) countByType(report *CrawlReport) {
	for _, p := range report.Pages {
		for _, e := range p.Elements {
			switch e.Type {
			case TypeNavigation:
				s.NavigationCount++
			case TypeButton:
				s.ButtonCount++
			case TypeLink:
				s.LinkCount++
			case TypeForm:
				s.FormCount++
			case TypeHeader:
				s.HeaderCount++
			case TypeContent:
				s.ContentCount++
			case TypeMedia:
				s.MediaCount++
			case TypeUnknown:
				s.UnknownCount++
			}
		}
	}
}

// collectTopElements gathers the highest-scored elements across all pages.
// Sorting is stable, so elements with equal scores keep crawl order.
func (s *Summary) collectTopElements(report *CrawlReport) {
	var ranked []RankedElement
	for _, p := range report.Pages {
		for _, e := range p.Elements {
			ranked = append(ranked, RankedElement{
				PageURL: p.URL,
				Tag:     e.Tag,
				Type:    e.Type,
				Text:    e.Text,
				Score:   e.Score,
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > MaxTopElements {
		ranked = ranked[:MaxTopElements]
	}
	s.TopElements = ranked
}

// collectFailures copies the report's failure map into a sorted slice.
func (s *Summary) collectFailures(report *CrawlReport) {
	if len(report.FailedURLs) == 0 {
		return
	}

	urls := make([]string, 0, len(report.FailedURLs))
	for u := range report.FailedURLs {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	for _, u := range urls {
		s.FailedURLs = append(s.FailedURLs, FailedURL{URL: u, Error: report.FailedURLs[u]})
	}
}

// CountByType returns the count for the given element type.
func (s *Summary) CountByType(t ElementType) int {
	switch t {
	case TypeNavigation:
		return s.NavigationCount
	case TypeButton:
		return s.ButtonCount
	case TypeLink:
		return s.LinkCount
	case TypeForm:
		return s.FormCount
	case TypeHeader:
		return s.HeaderCount
	case TypeContent:
		return s.ContentCount
	case TypeMedia:
		return s.MediaCount
	case TypeUnknown:
		return s.UnknownCount
	default:
		return 0
	}
}

// TotalElements returns the total number of classified elements.
func (s *Summary) TotalElements() int {
	return s.NavigationCount + s.ButtonCount + s.LinkCount + s.FormCount +
		s.HeaderCount + s.ContentCount + s.MediaCount + s.UnknownCount
}

// HasFailures returns true if any URL failed during the crawl.
func (s *Summary) HasFailures() bool {
	return len(s.FailedURLs) > 0
}
