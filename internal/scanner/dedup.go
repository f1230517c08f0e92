package scanner

import "fmt"

// deduplicate removes duplicate findings by (FilePath, RuleID, Line) composite key,
// keeping the highest severity instance.
func deduplicate(findings []Finding) []Finding {
	best := make(map[string]Finding)
	var order []string
	for _, f := range findings {
		k := fmt.Sprintf("%s:%s:%d", f.FilePath, f.RuleID, f.Line)
		existing, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = f
			continue
		}
		if f.Severity > existing.Severity {
			best[k] = f
		}
	}

	result := make([]Finding, 0, len(best))
	for _, k := range order {
		result = append(result, best[k])
	}
	return result
}
