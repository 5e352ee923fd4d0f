// Package parser classifies an annotated source file into the ordered
// section sequence that drives tutorial rendering.
//
// The classifier works from two views of the file at once: the tree-sitter
// syntax tree (declarations, comments, test guards) and the raw lines (fence
// marker pairs). Both are merged into a single line-ordered stream and
// consumed left to right, so no byte of source contributes to two sections.
package parser

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.uber.org/zap"

	"codewalk/internal/include"
)

// DefaultSentinel is the guard expression marking an in-source test block.
const DefaultSentinel = "import.meta.vitest"

const includeMarker = "@include"

var fenceMarkerRe = regexp.MustCompile("^\\s*//\\s*```\\s*$")

// Parser turns annotated source text into a ParsedExample.
type Parser struct {
	// Sentinel is the test-harness guard expression. Top-level if blocks
	// whose condition contains it have their it() calls extracted as tests.
	Sentinel string

	log *zap.Logger
}

// NewParser creates a parser with the default test sentinel.
func NewParser(log *zap.Logger) *Parser {
	return &Parser{Sentinel: DefaultSentinel, log: log}
}

// ParseFile reads and parses a single source file.
func (p *Parser) ParseFile(path string) (*ParsedExample, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return p.Parse(source, path)
}

type itemKind int

// Stream item kinds, ordered so that a fence wins over the comment node of
// its own marker line when both start on the same line.
const (
	itemFence itemKind = iota
	itemComment
	itemDecl
	itemTestGuard
)

type item struct {
	kind      itemKind
	node      *sitter.Node
	startLine int // 1-based
	endLine   int // 1-based
}

// Parse classifies source into a ParsedExample. Unparseable syntax is a hard
// failure: no partial result is returned for a file tree-sitter rejects.
func (p *Parser) Parse(source []byte, path string) (*ParsedExample, error) {
	sp := sitter.NewParser()
	sp.SetLanguage(typescript.GetLanguage())
	tree, err := sp.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("syntax error in %s", path)
	}

	lines := strings.Split(string(source), "\n")
	items := p.collectItems(root, source, lines)

	ex := &ParsedExample{Path: path}
	consumed := make([]bool, len(lines)+2)
	metadataDone := false

	for _, it := range items {
		switch it.kind {
		case itemFence:
			ex.Sections = append(ex.Sections, Section{
				Kind:      SectionCode,
				Content:   strings.Join(lines[it.startLine:it.endLine-1], "\n"),
				StartLine: it.startLine,
				EndLine:   it.endLine,
			})
			for l := it.startLine; l <= it.endLine; l++ {
				consumed[l] = true
			}

		case itemComment:
			if consumed[it.startLine] {
				continue
			}
			text := it.node.Content(source)
			switch {
			case strings.HasPrefix(text, "//"):
				p.classifyLineComment(ex, it, text)
			case strings.HasPrefix(text, "/**"):
				if !metadataDone && HasDocumentTags(text) {
					ex.Metadata = ParseDocumentMetadata(text, p.log)
					metadataDone = true
					for l := it.startLine; l <= it.endLine; l++ {
						consumed[l] = true
					}
				}
				// Other /** */ blocks are claimed by the declaration that
				// follows them, or dropped when nothing follows.
			case strings.HasPrefix(text, "/*"):
				ex.Sections = append(ex.Sections, Section{
					Kind:      SectionProse,
					Content:   stripBlockComment(text),
					StartLine: it.startLine,
					EndLine:   it.endLine,
				})
			}

		case itemDecl:
			doc, docStart := p.leadingDocComment(it.node, source, consumed)
			if doc == "" {
				// Undocumented declarations stay valid source but invisible
				// in the document.
				continue
			}
			ex.Sections = append(ex.Sections, Section{
				Kind:      SectionJSDoc,
				Content:   it.node.Content(source),
				StartLine: docStart,
				EndLine:   it.endLine,
				Doc:       ParseDocBlock(doc),
			})
			for l := docStart; l <= it.endLine; l++ {
				consumed[l] = true
			}

		case itemTestGuard:
			if consumed[it.startLine] {
				continue
			}
			p.collectTests(ex, it.node, source)
		}
	}

	return ex, nil
}

func (p *Parser) classifyLineComment(ex *ParsedExample, it item, text string) {
	rest := strings.TrimSpace(strings.TrimPrefix(text, "//"))

	if ctl := include.ResolveControl(rest); ctl != include.ControlNone {
		ex.Sections = append(ex.Sections, Section{
			Kind:      SectionHeaderControl,
			Content:   rest,
			StartLine: it.startLine,
			EndLine:   it.endLine,
			Control:   ctl,
		})
		return
	}

	if strings.HasPrefix(rest, includeMarker) {
		target := strings.TrimSpace(strings.TrimPrefix(rest, includeMarker))
		if target == "" {
			return
		}
		ex.Sections = append(ex.Sections, Section{
			Kind:        SectionInclude,
			Content:     rest,
			StartLine:   it.startLine,
			EndLine:     it.endLine,
			IncludePath: target,
		})
		ex.ReferencedFiles = append(ex.ReferencedFiles, target)
	}
	// Any other line comment is ignored.
}

// collectItems merges fence pairs, top-level comments, declarations, and
// test guards into one stream sorted by source line.
func (p *Parser) collectItems(root *sitter.Node, source []byte, lines []string) []item {
	var items []item

	var markers []int
	for i, l := range lines {
		if fenceMarkerRe.MatchString(l) {
			markers = append(markers, i+1)
		}
	}
	for i := 0; i+1 < len(markers); i += 2 {
		items = append(items, item{kind: itemFence, startLine: markers[i], endLine: markers[i+1]})
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		it := item{
			node:      n,
			startLine: int(n.StartPoint().Row) + 1,
			endLine:   int(n.EndPoint().Row) + 1,
		}
		switch {
		case n.Type() == "comment":
			it.kind = itemComment
		case n.Type() == "if_statement" && p.isTestGuard(n, source):
			it.kind = itemTestGuard
		case isDeclaration(n):
			it.kind = itemDecl
		default:
			continue
		}
		items = append(items, it)
	}

	sort.SliceStable(items, func(a, b int) bool {
		if items[a].startLine == items[b].startLine {
			return items[a].kind < items[b].kind
		}
		return items[a].startLine < items[b].startLine
	})
	return items
}

var declarationKinds = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"class_declaration":              true,
	"abstract_class_declaration":     true,
	"interface_declaration":          true,
	"type_alias_declaration":         true,
	"enum_declaration":               true,
	"lexical_declaration":            true,
	"variable_declaration":           true,
}

func isDeclaration(n *sitter.Node) bool {
	if declarationKinds[n.Type()] {
		return true
	}
	if n.Type() == "export_statement" {
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			return declarationKinds[decl.Type()]
		}
	}
	return false
}

// leadingDocComment returns the /** */ block immediately above a declaration,
// or "" when the declaration is undocumented. The block must be adjacent (no
// blank line gap) and not already consumed as file metadata.
func (p *Parser) leadingDocComment(n *sitter.Node, source []byte, consumed []bool) (string, int) {
	prev := n.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return "", 0
	}
	if int(n.StartPoint().Row)-int(prev.EndPoint().Row) > 1 {
		return "", 0
	}
	start := int(prev.StartPoint().Row) + 1
	if consumed[start] {
		return "", 0
	}
	text := prev.Content(source)
	if !strings.HasPrefix(text, "/**") {
		return "", 0
	}
	return text, start
}

func (p *Parser) isTestGuard(n *sitter.Node, source []byte) bool {
	cond := n.ChildByFieldName("condition")
	return cond != nil && strings.Contains(cond.Content(source), p.Sentinel)
}

// collectTests extracts every two-argument it(title, fn) call nested in a
// test guard, in source order.
func (p *Parser) collectTests(ex *ParsedExample, guard *sitter.Node, source []byte) {
	body := guard.ChildByFieldName("consequence")
	if body == nil {
		return
	}

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "call_expression" {
			fn := n.ChildByFieldName("function")
			args := n.ChildByFieldName("arguments")
			if fn != nil && fn.Type() == "identifier" && fn.Content(source) == "it" &&
				args != nil && int(args.NamedChildCount()) >= 2 {
				ex.Sections = append(ex.Sections, Section{
					Kind:      SectionTest,
					Content:   functionBody(args.NamedChild(1), source),
					StartLine: int(n.StartPoint().Row) + 1,
					EndLine:   int(n.EndPoint().Row) + 1,
					Title:     literalString(args.NamedChild(0), source),
				})
				return
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(body)
}

// literalString returns the unquoted value of a string literal node, or ""
// for any other expression.
func literalString(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "string", "template_string":
		s := n.Content(source)
		if len(s) >= 2 {
			return s[1 : len(s)-1]
		}
	}
	return ""
}

// functionBody returns the body text of a function-valued argument with the
// surrounding braces stripped and common indentation removed.
func functionBody(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "arrow_function", "function_expression", "function":
		body := n.ChildByFieldName("body")
		if body == nil {
			return ""
		}
		if body.Type() == "statement_block" {
			inner := string(source[body.StartByte()+1 : body.EndByte()-1])
			inner = strings.TrimRight(inner, " \t\n")
			inner = strings.TrimLeft(inner, "\n")
			return dedent(inner)
		}
		return body.Content(source)
	}
	return n.Content(source)
}

func dedent(s string) string {
	lines := strings.Split(s, "\n")
	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return s
	}
	for i, l := range lines {
		if len(l) >= indent {
			lines[i] = l[indent:]
		} else {
			lines[i] = strings.TrimLeft(l, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

func stripBlockComment(text string) string {
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	return strings.Trim(text, "\n")
}
