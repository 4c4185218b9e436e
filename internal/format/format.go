// Package format renders analysis history and dashboards as terminal tables.
package format

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // box-drawn terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps "table"/"" to ASCII and "markdown"/"md" to Markdown.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table", "ascii":
		return ASCII, nil
	case "markdown", "md":
		return Markdown, nil
	}
	return ASCII, fmt.Errorf("unknown output mode %q", s)
}

const (
	excerptColumnWidth   = 48
	rationaleColumnWidth = 60
	timestampLayout      = "2006-01-02 15:04:05"
)

func newWriter(m Mode) table.Writer {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return w
}

func render(w table.Writer, m Mode) string {
	if m == Markdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}

// History renders records in the order given, one row each.
func History(records []*analysis.Record, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"ID", "Time (UTC)", "Verdict", "Score", "Language", "Input", "Rationale"})
	for _, r := range records {
		w.AppendRow(table.Row{
			r.ID,
			r.Timestamp.UTC().Format(timestampLayout),
			r.Verdict,
			r.CredibilityScore,
			r.Language,
			oneLine(r.InputExcerpt),
			oneLine(r.Rationale),
		})
	}
	w.AppendFooter(table.Row{"", "", "", "", "Total", len(records), ""})
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 6, WidthMax: excerptColumnWidth},
		{Number: 7, WidthMax: rationaleColumnWidth},
	})
	return render(w, m)
}

// Record renders a single analysis as a two-column detail table.
func Record(r *analysis.Record, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"Field", "Value"})
	w.AppendRows([]table.Row{
		{"ID", r.ID},
		{"Time (UTC)", r.Timestamp.UTC().Format(timestampLayout)},
		{"Verdict", r.Verdict},
		{"Credibility score", fmt.Sprintf("%d/100", r.CredibilityScore)},
		{"Language", r.Language},
		{"Input kind", r.InputKind},
		{"Model", r.Model},
	})
	if r.SourceURL != "" {
		w.AppendRow(table.Row{"Source URL", r.SourceURL})
	}
	w.AppendRows([]table.Row{
		{"Rationale", r.Rationale},
		{"Input", r.InputExcerpt},
	})
	w.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: rationaleColumnWidth + excerptColumnWidth}})
	return render(w, m)
}

// Dashboard renders the summary, verdict distribution and score histogram.
func Dashboard(d analysis.Dashboard, m Mode) string {
	var b strings.Builder

	sum := newWriter(m)
	sum.SetTitle("Summary")
	sum.AppendHeader(table.Row{"Analyses", "Average score"})
	sum.AppendRow(table.Row{d.Count, fmt.Sprintf("%.1f", d.AverageScore)})
	b.WriteString(render(sum, m))
	b.WriteString("\n\n")

	dist := newWriter(m)
	dist.SetTitle("Verdicts")
	dist.AppendHeader(table.Row{"Verdict", "Count", "Share"})
	for _, v := range analysis.Verdicts {
		n := d.VerdictCounts[v]
		dist.AppendRow(table.Row{v, n, share(n, d.Count)})
	}
	dist.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}, {Number: 3, Align: text.AlignRight}})
	b.WriteString(render(dist, m))
	b.WriteString("\n\n")

	hist := newWriter(m)
	hist.SetTitle("Credibility scores")
	hist.AppendHeader(table.Row{"Range", "Count", ""})
	peak := 0
	for _, bk := range d.ScoreHistogram {
		peak = max(peak, bk.Count)
	}
	for _, bk := range d.ScoreHistogram {
		hist.AppendRow(table.Row{fmt.Sprintf("%d-%d", bk.Low, bk.High), bk.Count, bar(bk.Count, peak, 30)})
	}
	b.WriteString(render(hist, m))

	if len(d.Recent) > 0 {
		b.WriteString("\n\nRecent analyses\n")
		b.WriteString(History(d.Recent, m))
	}
	return b.String()
}

func share(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(total))
}

func bar(n, peak, width int) string {
	if peak == 0 || n == 0 {
		return ""
	}
	return strings.Repeat("#", max(1, n*width/peak))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
