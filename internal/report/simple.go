package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nao1215/sitescan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with aligned counters
// and clear section formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
// It generates a Summary from the CrawlReport if not already present.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	summary := report.Summary
	if summary == nil {
		summary = model.NewSummary(report)
	}

	return w.WriteSummary(summary)
}

// WriteSummary outputs the summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeTypeDistribution(&sb, summary)
	w.writeDomains(&sb, summary)
	w.writeTopElements(&sb, summary)
	w.writeFailures(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         SITESCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Target:         %s\n", summary.Target))
	sb.WriteString(fmt.Sprintf("Run ID:         %s\n", summary.RunID))
	sb.WriteString(fmt.Sprintf("Crawl Date:     %s\n", summary.DateCrawled.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Pages Crawled:  %d\n", summary.PagesCrawled))

	switch {
	case summary.TimedOut:
		sb.WriteString("Status:         TIMED OUT (partial results)\n")
	case summary.Error != "":
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", summary.Error))
	case summary.State == model.StateFailed.String():
		sb.WriteString("Status:         FAILED (no pages crawled)\n")
	default:
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeTypeDistribution writes the element type counters.
func (w *SimpleWriter) writeTypeDistribution(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ELEMENT TYPES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, typ := range model.ElementTypes {
		sb.WriteString(fmt.Sprintf("  %-12s%d\n", strings.ToUpper(string(typ))+":", summary.CountByType(typ)))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %-12s%d elements\n", "TOTAL:", summary.TotalElements()))
	sb.WriteString("\n")
}

// writeDomains writes the visited domain counters.
func (w *SimpleWriter) writeDomains(sb *strings.Builder, summary *model.Summary) {
	if len(summary.Domains) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("VISITED DOMAINS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.Domains) == 0 {
		sb.WriteString("  No domains visited\n")
	} else {
		domains := make([]string, 0, len(summary.Domains))
		for d := range summary.Domains {
			domains = append(domains, d)
		}
		sort.Strings(domains)

		for _, d := range domains {
			sb.WriteString(fmt.Sprintf("  [+] %s (%d pages)\n", d, summary.Domains[d]))
		}
	}
	sb.WriteString("\n")
}

// writeTopElements writes the ranked element list.
func (w *SimpleWriter) writeTopElements(sb *strings.Builder, summary *model.Summary) {
	if len(summary.TopElements) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TOP PRIORITY ELEMENTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.TopElements) == 0 {
		sb.WriteString("  No elements extracted\n")
	}

	for i, e := range summary.TopElements {
		sb.WriteString(fmt.Sprintf("  %2d. [%.3f] %-11s <%s>", i+1, e.Score, e.Type, e.Tag))
		if e.Text != "" {
			sb.WriteString(fmt.Sprintf(" %q", e.Text))
		}
		sb.WriteString("\n")
		if w.verbose {
			sb.WriteString(fmt.Sprintf("      on %s\n", e.PageURL))
		}
	}
	sb.WriteString("\n")
}

// writeFailures writes the failed URL list.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, summary *model.Summary) {
	if !summary.HasFailures() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED URLS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if !summary.HasFailures() {
		sb.WriteString("  No fetch failures\n")
	}

	for _, f := range summary.FailedURLs {
		sb.WriteString(fmt.Sprintf("  * %s\n", f.URL))
		sb.WriteString(fmt.Sprintf("    Error: %s\n", f.Error))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by sitescan\n")
	sb.WriteString("https://github.com/nao1215/sitescan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
