// Package report renders quality and analysis summaries as markdown and
// converts them to HTML for the dashboard.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"semflow/domain/analytics"
	"semflow/domain/dataset"
)

// Renderer builds human-readable reports from engine artifacts.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// QualityMarkdown renders a quality report as a markdown document.
func (r *Renderer) QualityMarkdown(report *dataset.QualityReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Data Quality Report\n\n")
	fmt.Fprintf(&b, "Dataset `%s`: %d rows, %d columns.\n\n", report.DatasetID, report.TotalRows, report.TotalColumns)
	fmt.Fprintf(&b, "**Overall score: %d/100**\n\n", report.OverallScore)

	if len(report.TypeCounts) > 0 {
		b.WriteString("## Variable Types\n\n")
		b.WriteString("| Type | Count |\n|------|-------|\n")
		for _, dt := range []dataset.DataType{dataset.TypeNumeric, dataset.TypeCategorical, dataset.TypeDate, dataset.TypeText} {
			if n := report.TypeCounts[dt]; n > 0 {
				fmt.Fprintf(&b, "| %s | %d |\n", dt, n)
			}
		}
		b.WriteString("\n")
	}

	if len(report.Missing) > 0 {
		b.WriteString("## Missing Data\n\n")
		b.WriteString("| Column | Missing | Percent |\n|--------|---------|---------|\n")
		for _, m := range report.Missing {
			fmt.Fprintf(&b, "| %s | %d | %.1f%% |\n", m.ColumnName, m.Count, m.Percentage)
		}
		b.WriteString("\n")
	}

	if len(report.Outliers) > 0 {
		b.WriteString("## Outliers (IQR)\n\n")
		for _, o := range report.Outliers {
			fmt.Fprintf(&b, "- **%s**: %d outliers outside [%.2f, %.2f], first rows %v\n",
				o.ColumnName, o.Count, o.LowerBound, o.UpperBound, o.RowIndices)
		}
		b.WriteString("\n")
	}

	if len(report.Distributions) > 0 {
		b.WriteString("## Distributions\n\n")
		b.WriteString("| Column | Skewness | Kurtosis | Approx. Normal |\n|--------|----------|----------|----------------|\n")
		for _, d := range report.Distributions {
			fmt.Fprintf(&b, "| %s | %.2f | %.2f | %v |\n", d.ColumnName, d.Skewness, d.Kurtosis, d.IsNormal)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	for _, rec := range report.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}

	return b.String()
}

// ResultsMarkdown renders backend results as a markdown document.
func (r *Renderer) ResultsMarkdown(results []*analytics.Result) string {
	var b strings.Builder

	b.WriteString("# Analysis Results\n\n")
	if len(results) == 0 {
		b.WriteString("No analyses have completed yet.\n")
		return b.String()
	}
	for _, res := range results {
		fmt.Fprintf(&b, "## %s\n\n", strings.ToUpper(string(res.Kind)))
		if res.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", res.Summary)
		}
		if len(res.Estimates) > 0 {
			names := make([]string, 0, len(res.Estimates))
			for name := range res.Estimates {
				names = append(names, name)
			}
			sort.Strings(names)
			b.WriteString("| Parameter | Estimate |\n|-----------|----------|\n")
			for _, name := range names {
				fmt.Fprintf(&b, "| %s | %v |\n", name, res.Estimates[name])
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// HTML converts a markdown document to an HTML fragment.
func (r *Renderer) HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}
