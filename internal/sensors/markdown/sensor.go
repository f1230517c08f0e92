// Package markdown checks the structure of markdown documents using the
// goldmark AST.
package markdown

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/garagon/sensorgate/internal/sensor"
	"github.com/garagon/sensorgate/internal/types"
)

const (
	Repository = "markdown"
	Language   = "markdown"

	RuleHeadingIncrement = "MD001"
	RuleEmptyLink        = "MD042"
)

// Sensor runs the markdown structure checks whose rules are active.
type Sensor struct {
	md goldmark.Markdown
}

// New creates a markdown sensor.
func New() *Sensor {
	return &Sensor{md: goldmark.New()}
}

func (s *Sensor) Describe(d *sensor.Descriptor) {
	d.Named("markdown").
		OnlyOnLanguages(Language).
		CreateIssuesForRuleRepositories(Repository)
}

func (s *Sensor) Execute(ctx context.Context, sc *sensor.Context) ([]types.Finding, error) {
	headingSev, checkHeadings := sc.Rules.Active(RuleHeadingIncrement)
	linkSev, checkLinks := sc.Rules.Active(RuleEmptyLink)
	if !checkHeadings && !checkLinks {
		return nil, nil
	}

	var findings []types.Finding
	for _, f := range sc.Files.Files(sensor.HasLanguages(Language)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := f.LoadContent(); err != nil {
			sc.Log().Debug("skipping unreadable file", "path", f.RelPath, "err", err)
			continue
		}
		doc := s.md.Parser().Parse(text.NewReader(f.Content))
		c := &checker{file: f, source: f.Content}
		if checkHeadings {
			c.headingSev = &headingSev
		}
		if checkLinks {
			c.linkSev = &linkSev
		}
		if err := ast.Walk(doc, c.visit); err != nil {
			return nil, fmt.Errorf("walking %s: %w", f.RelPath, err)
		}
		findings = append(findings, c.findings...)
	}
	return findings, nil
}

type checker struct {
	file       *types.InputFile
	source     []byte
	headingSev *types.Severity
	linkSev    *types.Severity
	prevLevel  int
	findings   []types.Finding
}

func (c *checker) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	switch node := n.(type) {
	case *ast.Heading:
		if c.headingSev != nil && c.prevLevel > 0 && node.Level > c.prevLevel+1 {
			c.add(RuleHeadingIncrement, "Heading levels should only increment by one level at a time",
				*c.headingSev, lineOf(node, c.source),
				fmt.Sprintf("h%d after h%d", node.Level, c.prevLevel))
		}
		c.prevLevel = node.Level
	case *ast.Link:
		dest := bytes.TrimSpace(node.Destination)
		if c.linkSev != nil && (len(dest) == 0 || string(dest) == "#") {
			c.add(RuleEmptyLink, "No empty links", *c.linkSev, lineOf(node, c.source), string(node.Destination))
		}
	}
	return ast.WalkContinue, nil
}

func (c *checker) add(ruleID, name string, sev types.Severity, line int, matched string) {
	c.findings = append(c.findings, types.Finding{
		RuleID:      ruleID,
		RuleName:    name,
		Repository:  Repository,
		Severity:    sev,
		FilePath:    c.file.RelPath,
		Line:        line,
		MatchedText: matched,
	})
}

// lineOf returns the 1-based line of n. Inline nodes carry no line segments,
// so their own text is used, then the text of a neighbouring sibling, falling
// back to the enclosing block.
func lineOf(n ast.Node, source []byte) int {
	offset := -1
	for cur := n; cur != nil && offset < 0; cur = cur.Parent() {
		if cur.Type() == ast.TypeInline {
			offset = inlineOffset(cur, source)
			continue
		}
		if cur.Lines().Len() > 0 {
			offset = cur.Lines().At(0).Start
		}
	}
	if offset < 0 {
		offset = 0
	}
	return bytes.Count(source[:min(offset, len(source))], []byte("\n")) + 1
}

func inlineOffset(n ast.Node, source []byte) int {
	if t := firstText(n); t != nil {
		return t.Segment.Start
	}
	for prev := n.PreviousSibling(); prev != nil; prev = prev.PreviousSibling() {
		t := lastText(prev)
		if t == nil {
			continue
		}
		if t.SoftLineBreak() || t.HardLineBreak() {
			if i := bytes.IndexByte(source[t.Segment.Stop:], '\n'); i >= 0 {
				return t.Segment.Stop + i + 1
			}
		}
		return t.Segment.Stop
	}
	for next := n.NextSibling(); next != nil; next = next.NextSibling() {
		if t := firstText(next); t != nil {
			return t.Segment.Start
		}
	}
	return -1
}

func firstText(n ast.Node) *ast.Text {
	if t, ok := n.(*ast.Text); ok {
		return t
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := firstText(c); t != nil {
			return t
		}
	}
	return nil
}

func lastText(n ast.Node) *ast.Text {
	if t, ok := n.(*ast.Text); ok {
		return t
	}
	for c := n.LastChild(); c != nil; c = c.PreviousSibling() {
		if t := lastText(c); t != nil {
			return t
		}
	}
	return nil
}
