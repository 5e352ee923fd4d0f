// Package heading turns author-relative Markdown headings into absolute ones.
//
// Prose fragments are written as if they were standalone documents: the first
// heading is always "#". The processor validates that convention, then shifts
// every heading by the current depth so fragments nest correctly in the final
// document.
package heading

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DepthState is the mutable heading-depth context for one render pass.
// DocumentLevel is the level assigned to the document's own title (1 or 2),
// CurrentLevel is the level a relative "#" maps to. Both stay within [1,6].
type DepthState struct {
	DocumentLevel int
	CurrentLevel  int
}

// NewDepthState returns the initial state for a render pass. When the document
// emits its own title line, that title occupies level 1 and body headings
// start at 2.
func NewDepthState(hasTitle bool) *DepthState {
	level := 1
	if hasTitle {
		level = 2
	}
	return &DepthState{DocumentLevel: level, CurrentLevel: level}
}

var setextUnderline = regexp.MustCompile(`^ {0,3}(=+|-+)\s*$`)

type headingInfo struct {
	level int
	text  string
	line  int // 0-based first line of the heading, -1 when unknown
}

// Process parses content as Markdown, validates the relative heading
// structure, and rewrites every heading to its absolute level given state.
//
// Structure rules: the first heading must be level 1, and a heading may never
// be more than one level deeper than the heading before it. Violations return
// an error naming both offending headings so the author can fix the source.
func Process(content string, state *DepthState) (string, error) {
	src := []byte(content)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	lines := strings.Split(content, "\n")
	lineStarts := make([]int, len(lines))
	offset := 0
	for i, l := range lines {
		lineStarts[i] = offset
		offset += len(l) + 1
	}

	var headings []headingInfo
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		line := -1
		if h.Lines().Len() > 0 {
			start := h.Lines().At(0).Start
			line = sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > start }) - 1
		}
		headings = append(headings, headingInfo{level: h.Level, text: flattenText(h, src), line: line})
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return "", err
	}

	if err := validate(headings); err != nil {
		return "", err
	}

	for _, h := range headings {
		if h.line < 0 {
			continue
		}
		level := clamp(h.level + state.CurrentLevel - 1)
		raw := lines[h.line]
		trimmed := strings.TrimLeft(raw, " ")
		if strings.HasPrefix(trimmed, "#") {
			rest := strings.TrimLeft(trimmed, "#")
			lines[h.line] = strings.Repeat("#", level) + rest
		} else {
			// Setext heading: promote to ATX and drop the underline.
			lines[h.line] = strings.Repeat("#", level) + " " + strings.TrimSpace(raw)
			if h.line+1 < len(lines) && setextUnderline.MatchString(lines[h.line+1]) {
				lines[h.line+1] = ""
			}
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func validate(headings []headingInfo) error {
	for i, h := range headings {
		if i == 0 {
			if h.level != 1 {
				return fmt.Errorf("invalid heading structure: first heading %q is level %d, expected level 1", h.text, h.level)
			}
			continue
		}
		prev := headings[i-1]
		if h.level > prev.level+1 {
			return fmt.Errorf("invalid heading structure: heading %q (level %d) jumps more than one level past %q (level %d)", h.text, h.level, prev.text, prev.level)
		}
	}
	return nil
}

func clamp(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}

func flattenText(n ast.Node, src []byte) string {
	var sb strings.Builder
	var visit func(ast.Node)
	visit = func(n ast.Node) {
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
		case *ast.String:
			sb.Write(t.Value)
		default:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				visit(c)
			}
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		visit(c)
	}
	return sb.String()
}
