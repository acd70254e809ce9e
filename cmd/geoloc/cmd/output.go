package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/loopercamera/4M/internal/domain/disambig"
	"github.com/loopercamera/4M/internal/domain/enrich"
	"github.com/loopercamera/4M/internal/domain/gazetteer"
	"github.com/loopercamera/4M/internal/pipeline"
	"github.com/loopercamera/4M/internal/ports"
)

// styles is the palette for terminal output. The zero-color variant renders
// every string unchanged.
type styles struct {
	title lipgloss.Style
	key   lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	muted lipgloss.Style
	id    lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{title: plain, key: plain, ok: plain, warn: plain, muted: plain, id: plain}
	}
	return styles{
		title: lipgloss.NewStyle().Bold(true),
		key:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		muted: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		id:    lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	}
}

// useColor follows --no-color and the NO_COLOR convention; lipgloss itself
// drops colors when stdout is not a terminal.
func useColor() bool {
	return !noColor && os.Getenv("NO_COLOR") == ""
}

func (s styles) table(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.muted).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.title.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// formatSummary renders a batch summary:
//
//	⚡ 120 records │ 97 resolved (80.8%) │ 23 unresolved
//	  by field    dataset_title_de 80, dataset_description_de 17
//	  by rule     single_candidate 60, ...
//	  by country  CH 95, DE 2
func formatSummary(s styles, sum pipeline.Summary) string {
	var sb strings.Builder
	sb.WriteString(s.title.Render(fmt.Sprintf("⚡ %d records", sum.Total)))
	sb.WriteString(fmt.Sprintf(" │ %s │ %s\n",
		s.ok.Render(fmt.Sprintf("%d resolved (%.1f%%)", sum.Resolved, 100*sum.Rate())),
		s.warn.Render(fmt.Sprintf("%d unresolved", sum.Unresolved))))
	writeBreakdown(&sb, s, "by field", sum.ByField)
	writeBreakdown(&sb, s, "by rule", sum.ByRule)
	writeBreakdown(&sb, s, "by country", sum.ByCountry)
	return sb.String()
}

func writeBreakdown(sb *strings.Builder, s styles, name string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	parts := make([]string, 0, len(m))
	for _, c := range pipeline.Sorted(m) {
		parts = append(parts, fmt.Sprintf("%s %d", c.Key, c.N))
	}
	sb.WriteString(fmt.Sprintf("  %s  %s\n", s.key.Render(fmt.Sprintf("%-10s", name)), strings.Join(parts, ", ")))
}

// formatMatch renders the candidates found in one text and the decision.
func formatMatch(s styles, text string, dec ports.FieldDecision, cands []gazetteer.Candidate, loc enrich.Location) string {
	var sb strings.Builder
	sb.WriteString(s.title.Render(fmt.Sprintf("⚡ %d candidates", len(cands))))
	sb.WriteString(" │ " + s.muted.Render(truncate(text, 60)) + "\n")

	if len(cands) > 0 {
		t := s.table("text", "label_id", "level", "canton", "district", "span")
		for _, c := range cands {
			t.Row(c.Text, c.LabelID, strconv.Itoa(c.Level), dash(c.Canton), dash(c.District),
				fmt.Sprintf("%d-%d", c.Start, c.End))
		}
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("  %s  %s\n", s.key.Render("rule    "), dec.Rule))
	if loc.LabelID == enrich.NoLocationFound {
		sb.WriteString(fmt.Sprintf("  %s  %s\n", s.key.Render("result  "), s.warn.Render(enrich.NoLocationFound)))
		return sb.String()
	}
	level := "-"
	if dec.Level != nil {
		level = strconv.Itoa(*dec.Level)
	}
	if disambig.IsCountryFallback(loc.LabelID) {
		level = "country"
	}
	sb.WriteString(fmt.Sprintf("  %s  %s %s\n", s.key.Render("result  "), s.id.Render(loc.LabelID), s.ok.Render(loc.Name)))
	sb.WriteString(fmt.Sprintf("  %s  %s │ %s │ %s │ level %s\n", s.key.Render("location"),
		loc.District, loc.Canton, loc.Country, level))
	return sb.String()
}

// formatResult renders one stored result.
func formatResult(s styles, r ports.Result) string {
	field, level := "-", "-"
	if r.MatchField != nil {
		field = *r.MatchField
	}
	if r.MatchLevel != nil {
		level = strconv.Itoa(*r.MatchLevel)
	}
	var sb strings.Builder
	sb.WriteString(s.title.Render(r.Identifier) + "\n")
	rows := [][2]string{
		{"label_id", s.id.Render(r.LabelID)},
		{"location", r.Location},
		{"district", r.District},
		{"canton", r.Canton},
		{"country", r.Country},
		{"field", field},
		{"level", level},
		{"rule", r.MatchRule},
	}
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("  %s  %s\n", s.key.Render(fmt.Sprintf("%-8s", row[0])), row[1]))
	}
	return sb.String()
}

// formatResultList renders stored results as a table.
func formatResultList(s styles, results []ports.Result, total int) string {
	var sb strings.Builder
	sb.WriteString(s.title.Render(fmt.Sprintf("⚡ %d of %d stored results", len(results), total)) + "\n")
	if len(results) == 0 {
		return sb.String()
	}
	t := s.table("identifier", "label_id", "location", "country", "rule")
	for _, r := range results {
		t.Row(truncate(r.Identifier, 40), r.LabelID, r.Location, r.Country, r.MatchRule)
	}
	sb.WriteString(t.Render())
	sb.WriteString("\n")
	return sb.String()
}

// formatInspect renders gazetteer statistics and the canton level check.
// unlabelled lists gazetteer label ids the label table does not know.
func formatInspect(s styles, st gazetteer.Stats, cantonLevel int, levelErr error, labels int, unlabelled []string) string {
	var sb strings.Builder
	sb.WriteString(s.title.Render("⚡ gazetteer") + "\n")
	sb.WriteString(fmt.Sprintf("  Entries:      %d\n", st.Entries))
	sb.WriteString(fmt.Sprintf("  Labels:       %d\n", st.UniqueLabels))
	overwritten := strconv.Itoa(st.Overwritten)
	if st.Overwritten > 0 {
		overwritten = s.warn.Render(overwritten + " (duplicate labels, last entry wins)")
	}
	sb.WriteString(fmt.Sprintf("  Overwritten:  %s\n", overwritten))
	sb.WriteString(fmt.Sprintf("  Enrichment:   %d labels\n", labels))
	if len(unlabelled) > 0 {
		sb.WriteString(fmt.Sprintf("  Unlabelled:   %s\n",
			s.warn.Render(fmt.Sprintf("%d (%s)", len(unlabelled), truncate(strings.Join(unlabelled, ", "), 60)))))
	}

	levels := make([]int, 0, len(st.Levels))
	for l := range st.Levels {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	if len(levels) > 0 {
		t := s.table("level", "labels")
		for _, l := range levels {
			name := strconv.Itoa(l)
			if l == cantonLevel {
				name += " (canton)"
			}
			t.Row(name, strconv.Itoa(st.Levels[l]))
		}
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}

	if levelErr != nil {
		sb.WriteString(s.warn.Render("  ⚠ "+levelErr.Error()) + "\n")
	} else {
		sb.WriteString(s.ok.Render(fmt.Sprintf("  ✓ canton level %d", cantonLevel)) + "\n")
	}
	return sb.String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to at most n runes, marking the cut with "…".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
