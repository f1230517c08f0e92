package pattern

import (
	"slices"
	"strings"

	"github.com/garagon/sensorgate/internal/rules"
	"github.com/garagon/sensorgate/internal/types"
)

const contextRadius = 3

// activeRule pairs a rule with its effective severity for this analysis.
type activeRule struct {
	*rules.CompiledRule
	severity types.Severity
}

type matchHit struct {
	line int
	text string
}

func matchFile(active []activeRule, f *types.InputFile) []types.Finding {
	var findings []types.Finding
	content := string(f.Content)
	lines := f.Lines()

	var cbMap []bool
	if f.Language == "markdown" {
		cbMap = BuildCodeBlockMap(lines)
	}

	for _, rule := range active {
		if len(rule.Languages) > 0 && !slices.Contains(rule.Languages, f.Language) {
			continue
		}
		if rule.FileType != "" && rule.FileType != f.Type {
			continue
		}
		switch rule.MatchMode {
		case rules.MatchAny:
			findings = append(findings, matchAny(rule, content, lines, f, cbMap)...)
		case rules.MatchAll:
			findings = append(findings, matchAll(rule, content, lines, f, cbMap)...)
		}
	}
	return findings
}

func matchAny(rule activeRule, content string, lines []string, f *types.InputFile, cbMap []bool) []types.Finding {
	var findings []types.Finding
	for _, pat := range rule.Patterns {
		for _, hit := range matchPattern(pat, content) {
			if isExcluded(rule.ExcludePatterns, lines, hit.line) {
				continue
			}
			findings = append(findings, newFinding(rule, f, lines, hit, cbMap))
		}
	}
	return findings
}

func matchAll(rule activeRule, content string, lines []string, f *types.InputFile, cbMap []bool) []types.Finding {
	// All patterns must have at least one hit
	var allHits [][]matchHit
	for _, pat := range rule.Patterns {
		hits := matchPattern(pat, content)
		if len(hits) == 0 {
			return nil
		}
		allHits = append(allHits, hits)
	}
	// Use the first hit of the first pattern as the finding location
	first := allHits[0][0]
	if isExcluded(rule.ExcludePatterns, lines, first.line) {
		return nil
	}
	parts := make([]string, 0, len(allHits))
	for _, hits := range allHits {
		parts = append(parts, hits[0].text)
	}
	first.text = strings.Join(parts, " + ")
	return []types.Finding{newFinding(rule, f, lines, first, cbMap)}
}

// newFinding builds a finding for hit. Matches in test files and inside
// markdown code blocks are downgraded one severity level.
func newFinding(rule activeRule, f *types.InputFile, lines []string, hit matchHit, cbMap []bool) types.Finding {
	sev := rule.severity
	if f.Type == types.FileTypeTest || isInCodeBlock(cbMap, hit.line) {
		sev = types.DowngradeSeverity(sev)
	}
	return types.Finding{
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		Repository:  rule.Repository,
		Severity:    sev,
		Description: rule.Description,
		FilePath:    f.RelPath,
		Line:        hit.line,
		MatchedText: hit.text,
		Context:     extractContext(lines, hit.line, contextRadius),
	}
}

// isExcluded returns true if the matched line or up to 3 lines before it
// matches any exclude pattern.
func isExcluded(excludes []rules.CompiledPattern, lines []string, lineNum int) bool {
	if len(excludes) == 0 || lineNum < 1 || lineNum > len(lines) {
		return false
	}
	start := max(lineNum-3, 1)
	for _, ep := range excludes {
		for i := start; i <= lineNum; i++ {
			line := lines[i-1]
			switch ep.Type {
			case rules.PatternRegex:
				if ep.Regex != nil && ep.Regex.MatchString(line) {
					return true
				}
			case rules.PatternContains:
				if strings.Contains(strings.ToLower(line), ep.Value) {
					return true
				}
			}
		}
	}
	return false
}

func matchPattern(pat rules.CompiledPattern, content string) []matchHit {
	var hits []matchHit
	switch pat.Type {
	case rules.PatternRegex:
		if pat.Regex == nil {
			return nil
		}
		for _, loc := range pat.Regex.FindAllStringIndex(content, -1) {
			matched := content[loc[0]:loc[1]]
			if len(matched) > 200 {
				matched = matched[:200] + "..."
			}
			hits = append(hits, matchHit{line: lineNumberAtOffset(content, loc[0]), text: matched})
		}
	case rules.PatternContains:
		lower := strings.ToLower(content)
		target := pat.Value // already lowercased during compilation
		if target == "" {
			return nil
		}
		idx := 0
		for {
			pos := strings.Index(lower[idx:], target)
			if pos == -1 {
				break
			}
			abs := idx + pos
			hits = append(hits, matchHit{line: lineNumberAtOffset(content, abs), text: content[abs : abs+len(target)]})
			idx = abs + len(target)
		}
	}
	return hits
}

func lineNumberAtOffset(content string, offset int) int {
	return strings.Count(content[:min(offset, len(content))], "\n") + 1
}

func extractContext(lines []string, lineNum, radius int) []types.ContextLine {
	var ctx []types.ContextLine
	start := max(lineNum-radius-1, 0)
	end := min(lineNum+radius, len(lines))
	for i := start; i < end; i++ {
		ctx = append(ctx, types.ContextLine{
			Line:    i + 1,
			Content: lines[i],
			IsMatch: i+1 == lineNum,
		})
	}
	return ctx
}

// BuildCodeBlockMap returns a bool slice where index i is true if lines[i]
// is inside a fenced code block (``` delimited). O(n) single pass.
func BuildCodeBlockMap(lines []string) []bool {
	m := make([]bool, len(lines))
	inBlock := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inBlock {
				// the closing fence line still counts as inside the block
				m[i] = true
				inBlock = false
			} else {
				inBlock = true
			}
			continue
		}
		m[i] = inBlock
	}
	return m
}

// isInCodeBlock checks whether a 1-based line number falls inside a code block.
func isInCodeBlock(cbMap []bool, lineNum int) bool {
	if cbMap == nil || lineNum < 1 || lineNum > len(cbMap) {
		return false
	}
	return cbMap[lineNum-1]
}
