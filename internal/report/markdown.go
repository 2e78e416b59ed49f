package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/sitescan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	summary := report.Summary
	if summary == nil {
		summary = model.NewSummary(report)
	}

	return w.WriteSummary(summary)
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeElementTypes(md, summary)
	w.writeDomains(md, summary)
	w.writeTopElements(md, summary)
	w.writeFailures(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("Sitescan Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + summary.Target + "`"},
			{"Run ID", "`" + summary.RunID + "`"},
			{"Crawl Date", summary.DateCrawled.Format("2006-01-02 15:04:05 MST")},
			{"Pages Crawled", strconv.Itoa(summary.PagesCrawled)},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the run state.
func (w *MarkdownWriter) getStatusText(summary *model.Summary) string {
	switch {
	case summary.TimedOut:
		return "⚠️ Timed Out (partial results)"
	case summary.Error != "":
		return "❌ Error - " + summary.Error
	case summary.State == model.StateFailed.String():
		return "❌ Failed"
	default:
		return "✅ Complete"
	}
}

// writeElementTypes writes the element type distribution section.
func (w *MarkdownWriter) writeElementTypes(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Element Types")
	md.PlainText("")

	rows := make([][]string, 0, len(model.ElementTypes)+1)
	for _, typ := range model.ElementTypes {
		rows = append(rows, []string{typeName(typ), strconv.Itoa(summary.CountByType(typ))})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(summary.TotalElements()) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Type", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.TotalElements() > 0 {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart for the type distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Element Type Distribution"),
		piechart.WithShowData(true),
	)

	for _, typ := range model.ElementTypes {
		if count := summary.CountByType(typ); count > 0 {
			chart.LabelAndIntValue(typeName(typ), uint64(count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on how the run ended.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.Error != "":
		md.Cautionf("The crawl ended with an error: %s", summary.Error)
	case summary.TimedOut:
		md.Warningf(
			"The crawl hit the inactivity timeout; results cover %d page(s).",
			summary.PagesCrawled,
		)
	case summary.HasFailures():
		md.Importantf(
			"%d URL(s) failed to fetch. See the failure table below.",
			len(summary.FailedURLs),
		)
	default:
		md.Tip("The crawl completed with no fetch failures.")
	}
	md.PlainText("")
}

// writeDomains writes the visited domains section.
func (w *MarkdownWriter) writeDomains(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Visited Domains")
	md.PlainText("")

	if len(summary.Domains) == 0 {
		md.PlainText("No domains visited.")
		md.PlainText("")
		return
	}

	domains := make([]string, 0, len(summary.Domains))
	for d := range summary.Domains {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	rows := make([][]string, len(domains))
	for i, d := range domains {
		rows[i] = []string{"`" + d + "`", strconv.Itoa(summary.Domains[d])}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeTopElements writes the ranked element table.
func (w *MarkdownWriter) writeTopElements(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Top Priority Elements")
	md.PlainText("")

	if len(summary.TopElements) == 0 {
		md.PlainText("No elements extracted.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.TopElements))
	for i, e := range summary.TopElements {
		text := e.Text
		if text == "" {
			text = "-"
		}

		rows[i] = []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(e.Score, 'f', 3, 64),
			typeName(e.Type),
			"`" + e.Tag + "`",
			truncateString(text, 50),
			truncateString(e.PageURL, 40),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Score", "Type", "Tag", "Text", "Page"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the failed URL table.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Failed URLs")
	md.PlainText("")

	if !summary.HasFailures() {
		md.PlainText("No fetch failures.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.FailedURLs))
	for i, f := range summary.FailedURLs {
		rows[i] = []string{
			truncateString(f.URL, 60),
			truncateString(f.Error, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitescan](https://github.com/nao1215/sitescan)*")
}

// typeName renders an element type for table display.
func typeName(t model.ElementType) string {
	return cases.Title(language.English).String(string(t))
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
