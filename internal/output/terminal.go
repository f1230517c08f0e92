package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/garagon/sensorgate/internal/types"
)

var (
	boldStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	pathStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	lineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	severityStyles = map[types.Severity]lipgloss.Style{
		types.SeverityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		types.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		types.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		types.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		types.SeverityInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
	}

	severityOrder = []types.Severity{
		types.SeverityCritical,
		types.SeverityHigh,
		types.SeverityMedium,
		types.SeverityLow,
		types.SeverityInfo,
	}
)

const (
	barWidth     = 40
	lineWidth    = 72
	sensorWidth  = 24
	ruleIDWidth  = 12
	nameWidth    = 36
	previewWidth = 60
)

// TerminalFormatter prints the sensor plan followed by findings grouped by
// severity and file.
type TerminalFormatter struct {
	NoColor bool
	Verbose bool
}

func (f *TerminalFormatter) render(s lipgloss.Style, text string) string {
	if f.NoColor {
		return text
	}
	return s.Render(text)
}

func (f *TerminalFormatter) Format(w io.Writer, report *types.Report) error {
	if os.Getenv("NO_COLOR") != "" {
		f.NoColor = true
	}

	f.printHeader(w, report)
	f.printSensors(w, report.Sensors)

	if len(report.Findings) == 0 {
		fmt.Fprintf(w, "\n  %s No issues found.\n", f.render(okStyle, "✔"))
	} else {
		counts := countBySeverity(report.Findings)
		f.printDashboard(w, counts)
		for _, sev := range severityOrder {
			if filtered := filterBySeverity(report.Findings, sev); len(filtered) > 0 {
				f.printSeveritySection(w, sev, filtered)
			}
		}
		f.printTopFiles(w, report.Findings)
	}

	f.printFooter(w, report)
	return nil
}

func separator() string {
	return strings.Repeat("─", lineWidth)
}

func sectionHeader(title string) string {
	prefix := "── " + title + " "
	remaining := max(lineWidth-utf8.RuneCountInString(prefix), 0)
	return prefix + strings.Repeat("─", remaining)
}

func (f *TerminalFormatter) printHeader(w io.Writer, report *types.Report) {
	sep := separator()
	fmt.Fprintf(w, "\n%s\n", f.render(dimStyle, sep))
	fmt.Fprintf(w, "  %s\n", f.render(boldStyle, "SENSORGATE ANALYSIS"))

	var parts []string
	if report.Target != "" {
		parts = append(parts, fmt.Sprintf("Target: %s", report.Target))
	}
	parts = append(parts,
		fmt.Sprintf("%d files", report.FilesIndexed),
		fmt.Sprintf("%d active rules", report.RulesActive),
	)
	if len(report.Languages) > 0 {
		parts = append(parts, languageSummary(report.Languages))
	}
	if report.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", report.Duration.Seconds()))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  ·  "))
	fmt.Fprintf(w, "%s\n", f.render(dimStyle, sep))
}

// languageSummary renders file counts per language, most common first.
func languageSummary(counts map[string]int) string {
	langs := make([]string, 0, len(counts))
	for l := range counts {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j]
	})
	parts := make([]string, len(langs))
	for i, l := range langs {
		parts[i] = fmt.Sprintf("%s %d", l, counts[l])
	}
	return strings.Join(parts, ", ")
}

func (f *TerminalFormatter) printSensors(w io.Writer, sensors []types.SensorStatus) {
	if len(sensors) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n\n", f.render(boldStyle, sectionHeader("SENSORS")))
	for _, s := range sensors {
		name := fmt.Sprintf("%-*s", sensorWidth, truncate(s.Name, sensorWidth))
		switch {
		case s.Error != "":
			fmt.Fprintf(w, "  %s %s %s\n", f.render(errorStyle, "✖"), name, f.render(errorStyle, "failed: "+s.Error))
		case s.Executed:
			fmt.Fprintf(w, "  %s %s %s\n", f.render(okStyle, "✔"), name, fmt.Sprintf("%d findings", s.Findings))
		default:
			reason := "skipped: " + s.SkipReason
			if s.Detail != "" {
				reason += " (" + s.Detail + ")"
			}
			fmt.Fprintf(w, "  %s %s %s\n", f.render(skipStyle, "○"), name, f.render(skipStyle, reason))
		}
	}
}

func (f *TerminalFormatter) printDashboard(w io.Writer, counts map[types.Severity]int) {
	peak, total := 0, 0
	for _, c := range counts {
		peak = max(peak, c)
		total += c
	}
	if peak == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, sev := range severityOrder {
		c := counts[sev]
		if c == 0 {
			continue
		}
		label := fmt.Sprintf("  %-10s", sev.String())
		fmt.Fprintf(w, "%s %s %4d\n", f.render(boldStyle, label), f.renderBar(c, peak, barWidth, sev), c)
	}
	fmt.Fprintf(w, "\n  %s\n", f.render(boldStyle, fmt.Sprintf("%d findings", total)))
}

func (f *TerminalFormatter) printSeveritySection(w io.Writer, sev types.Severity, findings []types.Finding) {
	title := fmt.Sprintf("%s (%d)", sev.String(), len(findings))
	fmt.Fprintf(w, "\n%s\n", f.render(boldStyle, sectionHeader(title)))

	for _, group := range groupByFile(findings) {
		fmt.Fprintf(w, "\n  %s\n", f.render(pathStyle, group.filePath))
		for _, finding := range group.findings {
			f.printFinding(w, finding, sev == types.SeverityCritical)
		}
	}
}

func (f *TerminalFormatter) printFinding(w io.Writer, finding types.Finding, expanded bool) {
	icon := f.severityIcon(finding.Severity)
	ruleID := fmt.Sprintf("%-*s", ruleIDWidth, finding.RuleID)
	name := fmt.Sprintf("%-*s", nameWidth, truncate(finding.RuleName, nameWidth))
	loc := fmt.Sprintf("L%d", finding.Line)
	if finding.Column > 0 {
		loc += fmt.Sprintf(":%d", finding.Column)
	}

	if expanded {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "    %s %s %s %s\n", icon, f.render(boldStyle, ruleID), name, f.render(lineStyle, loc))

	if expanded && finding.MatchedText != "" {
		fmt.Fprintf(w, "      %s %s\n", f.render(dimStyle, "│"), f.render(dimStyle, truncate(finding.MatchedText, previewWidth)))
	}
	if f.Verbose && finding.Description != "" {
		fmt.Fprintf(w, "      %s %s\n", f.render(dimStyle, "│"), f.render(detailStyle, finding.Description))
	}
}

func (f *TerminalFormatter) printTopFiles(w io.Writer, findings []types.Finding) {
	fileCounts := map[string]int{}
	for _, finding := range findings {
		fileCounts[finding.FilePath]++
	}

	type fileCount struct {
		path  string
		count int
	}
	sorted := make([]fileCount, 0, len(fileCounts))
	for path, count := range fileCounts {
		sorted = append(sorted, fileCount{path, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].path < sorted[j].path
	})

	limit := min(len(sorted), 5)
	if limit == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n\n", f.render(boldStyle, sectionHeader("TOP AFFECTED FILES")))
	for i := range limit {
		fmt.Fprintf(w, "  %4d  %s\n", sorted[i].count, sorted[i].path)
	}
}

func (f *TerminalFormatter) printFooter(w io.Writer, report *types.Report) {
	sep := separator()
	fmt.Fprintf(w, "\n%s\n", f.render(dimStyle, sep))

	parts := []string{
		fmt.Sprintf("%d/%d sensors executed", report.Executed(), len(report.Sensors)),
		fmt.Sprintf("%d findings", len(report.Findings)),
	}
	if report.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", report.Duration.Seconds()))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, " · "))
	fmt.Fprintf(w, "%s\n", f.render(dimStyle, sep))
}

func (f *TerminalFormatter) severityIcon(sev types.Severity) string {
	var icon string
	switch sev {
	case types.SeverityCritical:
		icon = "✖"
	case types.SeverityHigh:
		icon = "▲"
	case types.SeverityMedium:
		icon = "■"
	case types.SeverityLow:
		icon = "●"
	case types.SeverityInfo:
		icon = "○"
	default:
		return "?"
	}
	return f.render(severityStyles[sev], icon)
}

func (f *TerminalFormatter) renderBar(count, peak, width int, sev types.Severity) string {
	filled := count * width / peak
	if filled == 0 && count > 0 {
		filled = 1
	}
	// keep one empty block so the bar boundary stays visible
	if filled >= width {
		filled = width - 1
	}
	return f.render(severityStyles[sev], strings.Repeat("█", filled)) +
		f.render(dimStyle, strings.Repeat("░", width-filled))
}

func countBySeverity(findings []types.Finding) map[types.Severity]int {
	counts := map[types.Severity]int{}
	for _, finding := range findings {
		counts[finding.Severity]++
	}
	return counts
}

func filterBySeverity(findings []types.Finding, sev types.Severity) []types.Finding {
	var result []types.Finding
	for _, f := range findings {
		if f.Severity == sev {
			result = append(result, f)
		}
	}
	return result
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLen-3]) + "..."
}

type fileGroup struct {
	filePath string
	findings []types.Finding
}

// groupByFile groups findings by path, keeping first-seen order.
func groupByFile(findings []types.Finding) []fileGroup {
	var groups []fileGroup
	index := make(map[string]int)
	for _, f := range findings {
		i, ok := index[f.FilePath]
		if !ok {
			i = len(groups)
			index[f.FilePath] = i
			groups = append(groups, fileGroup{filePath: f.FilePath})
		}
		groups[i].findings = append(groups[i].findings, f)
	}
	return groups
}
