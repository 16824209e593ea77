package harness

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/jeanpaul/shelver/internal/criteria"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D4AA"))
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00C832"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#aaaaaa"))
	labelStyle = lipgloss.NewStyle().Bold(true)
)

// RenderSummary produces the human-readable report for rule-set
// authors; the machine-readable form is Report.WriteJSON.
func RenderSummary(r *Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("  Validation Report: %s phase", r.Phase)) + "\n")
	meta := fmt.Sprintf("  cases %d | duration %s", r.Total, r.Duration.Round(time.Millisecond))
	if r.RuleSetVersion != "" {
		meta += " | ruleset " + r.RuleSetVersion
	}
	b.WriteString(dimStyle.Render(meta) + "\n")
	b.WriteString("  ------------------------------------------------\n")

	accLine := fmt.Sprintf("  accuracy     %5.1f%%  (%d/%d)", r.Accuracy*100, r.Passed, r.Total)
	if r.Misses == 0 && r.HardFailures == 0 {
		b.WriteString(passStyle.Render(accLine) + "\n")
	} else {
		b.WriteString(accLine + "\n")
	}
	hardLine := fmt.Sprintf("  hard fails   %d", r.HardFailures)
	if r.HardFailures > 0 {
		b.WriteString(failStyle.Render(hardLine) + "\n")
	} else {
		b.WriteString(hardLine + "\n")
	}
	b.WriteString(fmt.Sprintf("  consistency  %5.1f%%\n", r.Consistency*100))
	b.WriteString(fmt.Sprintf("  latency      p50 %s | p95 %s | p99 %s | max %s\n",
		r.Latency.P50, r.Latency.P95, r.Latency.P99, r.Latency.Max))

	if len(r.PerCategory) > 0 {
		b.WriteString("\n" + labelStyle.Render("  by category") + "\n")
		for _, cat := range sortedKeys(r.PerCategory) {
			stats := r.PerCategory[cat]
			b.WriteString(fmt.Sprintf("    %-24s %3d/%-3d %6.1f%%\n", cat, stats.Passed, stats.Total, stats.Accuracy*100))
		}
	}

	if len(r.PerField) > 0 {
		b.WriteString("\n" + labelStyle.Render("  by field") + "\n")
		for _, field := range criteria.Fields() {
			stats, ok := r.PerField[field]
			if !ok {
				continue
			}
			b.WriteString(fmt.Sprintf("    %-24s %3d/%-3d %6.1f%%\n", field, stats.Correct, stats.Total, stats.Accuracy*100))
		}
	}

	failures := failedCases(r)
	if len(failures) > 0 {
		b.WriteString("\n" + labelStyle.Render("  failures") + "\n")
		for _, cr := range failures {
			switch cr.Outcome {
			case OutcomeHardFailure:
				b.WriteString(failStyle.Render(fmt.Sprintf("    ! %s [%s]", cr.Name, cr.Category)) + "\n")
				b.WriteString(dimStyle.Render("      "+cr.Err) + "\n")
			case OutcomeMiss:
				b.WriteString(warnStyle.Render(fmt.Sprintf("    ✗ %s [%s]", cr.Name, cr.Category)) + "\n")
				if r.Phase == PhaseExtractor {
					b.WriteString(indent(renderCriteriaDiff(cr.Expected, cr.Predicted), "      ") + "\n")
				} else {
					b.WriteString(dimStyle.Render(fmt.Sprintf("      predicted {%s} expected {%s}", cr.Predicted, cr.Expected)) + "\n")
				}
			}
		}
	}

	return b.String()
}

// renderCriteriaDiff shows an extractor mismatch as a unified diff of
// the field=value lines, which reads better than two long rows.
func renderCriteriaDiff(expected, predicted string) string {
	want := strings.ReplaceAll(expected, " ", "\n") + "\n"
	got := strings.ReplaceAll(predicted, " ", "\n") + "\n"
	edits := myers.ComputeEdits(span.URIFromPath("expected"), want, got)
	return strings.TrimRight(fmt.Sprint(gotextdiff.ToUnified("expected", "predicted", want, edits)), "\n")
}

func failedCases(r *Report) []CaseResult {
	var out []CaseResult
	for _, cr := range r.Cases {
		if cr.Outcome != OutcomePass {
			out = append(out, cr)
		}
	}
	return out
}

func sortedKeys(m map[string]CategoryStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
