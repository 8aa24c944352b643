package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"cyberguard/domain/filter"
	"cyberguard/domain/stats"
	"cyberguard/internal/errors"
	"cyberguard/internal/pipeline"
)

// Format selects the renderer output
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatMarkdown, "markdown", "":
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown report format %q", s))
}

// Renderer writes page results as a narrative report
type Renderer struct {
	alpha float64
}

// NewRenderer creates a renderer judging significance at alpha
func NewRenderer(alpha float64) *Renderer {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}
	return &Renderer{alpha: alpha}
}

// Render writes the results to w in the given format
func (r *Renderer) Render(w io.Writer, format Format, results ...*pipeline.Result) error {
	return r.RenderPages(w, format, results, nil)
}

// RenderPages writes the results followed by a section explaining every
// page that could not be computed.
func (r *Renderer) RenderPages(w io.Writer, format Format, results []*pipeline.Result, skipped map[filter.PageID]error) error {
	var out []byte
	switch format {
	case FormatHTML:
		out = toHTML(r.markdown(results, skipped))
	case FormatMarkdown:
		out = r.markdown(results, skipped)
	default:
		return errors.InvalidInput(fmt.Sprintf("unknown report format %q", format))
	}
	if _, err := w.Write(out); err != nil {
		return errors.Wrap(err, "write report")
	}
	return nil
}

// HTML renders the markdown report to an HTML fragment
func (r *Renderer) HTML(results ...*pipeline.Result) []byte {
	return toHTML(r.markdown(results, nil))
}

// Markdown renders the results as a markdown document, one section per page
func (r *Renderer) Markdown(results ...*pipeline.Result) []byte {
	return r.markdown(results, nil)
}

func toHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(md)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.Render(doc, renderer)
}

func (r *Renderer) markdown(results []*pipeline.Result, skipped map[filter.PageID]error) []byte {
	var b strings.Builder
	b.WriteString("# CyberGuard Analytics Report\n")
	for _, res := range results {
		if res == nil {
			continue
		}
		b.WriteString("\n")
		r.page(&b, res)
	}
	if len(skipped) > 0 {
		pages := make([]string, 0, len(skipped))
		for p := range skipped {
			pages = append(pages, string(p))
		}
		sort.Strings(pages)
		b.WriteString("\n## Pages not shown\n\n")
		for _, p := range pages {
			fmt.Fprintf(&b, "- **%s**: %s\n", p, Explain(skipped[filter.PageID(p)]))
		}
	}
	return []byte(b.String())
}

func (r *Renderer) page(b *strings.Builder, res *pipeline.Result) {
	fmt.Fprintf(b, "## %s\n\n", res.Title)

	s := res.Summary
	fmt.Fprintf(b, "Showing %d of %d rows (%.1f%% removed, %s filtering).\n\n",
		s.Filtered, s.Original, s.RemovedPercent, strings.ReplaceAll(string(s.Intensity), "_", " "))
	if len(res.Chips) == 0 {
		b.WriteString("Active filters: none.\n")
	} else {
		labels := make([]string, len(res.Chips))
		for i, c := range res.Chips {
			labels[i] = fmt.Sprintf("`%s: %s`", c.Key, c.Label)
		}
		fmt.Fprintf(b, "Active filters: %s.\n", strings.Join(labels, " "))
	}

	for _, a := range res.Artifacts {
		fmt.Fprintf(b, "\n### %s\n\n", a.Title)
		b.WriteString(r.Describe(a.Payload))
		b.WriteString("\n")
		for _, adv := range Advisories(a.Payload) {
			fmt.Fprintf(b, "\n> **Warning:** %s\n", ExplainAdvisory(adv))
		}
		if m, ok := a.Payload.(*stats.CorrelationMatrix); ok {
			b.WriteString("\n")
			correlationTable(b, m)
		}
	}

	if len(res.Failures) > 0 {
		b.WriteString("\n### Unavailable\n\n")
		for _, f := range res.Failures {
			fmt.Fprintf(b, "- **%s**: %s\n", f.Title, Explain(f.Err))
		}
	}
}

// Describe narrates one analysis result
func (r *Renderer) Describe(payload interface{}) string {
	switch p := payload.(type) {
	case *stats.CorrelationMatrix:
		return describeCorrelation(p)
	case []stats.FeatureCorrelation:
		return describeTargetCorrelations(p)
	case *stats.PCAProjection:
		return describePCA(p)
	case *stats.GroupComparison:
		return describeComparison(p, r.alpha)
	case *stats.Association:
		return describeAssociation(p, r.alpha)
	case *stats.ImputationResult:
		return describeImputation(p)
	case *stats.QualityReport:
		return describeQuality(p)
	case *stats.MissingPattern:
		return describeMissingPattern(p)
	case *stats.ClassBalance:
		return describeBalance(p)
	case *stats.Description:
		return describeDistribution(p)
	case *stats.Trend:
		return describeTrend(p)
	case *stats.GroupRates:
		return describeGroupRates(p)
	case *stats.GroupAggregates:
		return describeGroupAggregates(p)
	}
	return fmt.Sprintf("%v", payload)
}

// Advisories lists the caveats carried by a result
func Advisories(payload interface{}) []stats.Advisory {
	if a, ok := payload.(interface{ Advisories() []stats.Advisory }); ok {
		return a.Advisories()
	}
	return nil
}

func correlationTable(b *strings.Builder, m *stats.CorrelationMatrix) {
	b.WriteString("| |")
	for _, c := range m.Columns {
		fmt.Fprintf(b, " %s |", c)
	}
	b.WriteString("\n|---|")
	for range m.Columns {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for i, row := range m.Values {
		fmt.Fprintf(b, "| %s |", m.Columns[i])
		for _, v := range row {
			if math.IsNaN(v) {
				b.WriteString(" n/a |")
				continue
			}
			fmt.Fprintf(b, " %.3f |", v)
		}
		b.WriteString("\n")
	}
}
