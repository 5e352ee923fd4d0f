// Package generator renders parsed examples into tutorial Markdown documents.
package generator

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"codewalk/internal/heading"
	"codewalk/internal/include"
	"codewalk/internal/parser"
	"codewalk/internal/testreport"
)

// Includer loads and wraps a supporting file for embedding. It reports
// ok=false when the target cannot be read, in which case the include is
// silently omitted from the document.
type Includer interface {
	LoadAndWrap(sourcePath, includePath string) (string, bool)
}

// Renderer turns one ParsedExample into a Markdown document. It owns the
// heading-depth state for the duration of a render pass; sections are
// rendered strictly in source order because that state and the referenced
// file accumulation are order dependent. Distinct files may be rendered
// concurrently: a Renderer keeps no state between calls.
type Renderer struct {
	includes  Includer
	fenceLang string
	log       *zap.Logger
}

// NewRenderer creates a renderer. fenceLang is the fixed language hint for
// code, test, and declaration fences (default "ts").
func NewRenderer(includes Includer, fenceLang string, log *zap.Logger) *Renderer {
	if fenceLang == "" {
		fenceLang = "ts"
	}
	return &Renderer{includes: includes, fenceLang: fenceLang, log: log}
}

// Render produces the final Markdown for one example. exampleRoot shortens
// the source path shown in the References footer. Heading-structure
// violations in prose abort the render with an error; missing includes and
// absent test statuses degrade silently.
func (r *Renderer) Render(ex *parser.ParsedExample, statuses testreport.StatusMap, exampleRoot string) (string, error) {
	state := heading.NewDepthState(ex.Metadata.Title != "")

	var parts []string
	if ex.Metadata.Title != "" {
		parts = append(parts, "# "+ex.Metadata.Title)
	}
	if ex.Metadata.Description != "" {
		parts = append(parts, ex.Metadata.Description)
	}

	for _, sec := range ex.Sections {
		switch sec.Kind {
		case parser.SectionProse:
			out, err := heading.Process(sec.Content, state)
			if err != nil {
				return "", fmt.Errorf("%s: %w", ex.Path, err)
			}
			if out != "" {
				parts = append(parts, out)
			}

		case parser.SectionCode:
			parts = append(parts, fence(r.fenceLang, sec.Content))

		case parser.SectionJSDoc:
			parts = append(parts, r.renderJSDoc(sec)...)

		case parser.SectionTest:
			parts = append(parts, r.renderTest(sec, statuses)...)

		case parser.SectionInclude:
			if wrapped, ok := r.includes.LoadAndWrap(ex.Path, sec.IncludePath); ok {
				parts = append(parts, wrapped)
			} else {
				r.log.Debug("include omitted", zap.String("file", ex.Path), zap.String("include", sec.IncludePath))
			}

		case parser.SectionHeaderControl:
			include.ApplyControl(state, sec.Control)
		}
	}

	parts = append(parts, r.renderFooter(ex, exampleRoot)...)
	return strings.Join(parts, "\n\n") + "\n", nil
}

func (r *Renderer) renderJSDoc(sec parser.Section) []string {
	var parts []string
	if doc := sec.Doc; doc != nil {
		if doc.Description != "" {
			parts = append(parts, doc.Description)
		}
		if len(doc.Params) > 0 {
			var sb strings.Builder
			sb.WriteString("| Parameter | Type | Description |\n")
			sb.WriteString("| --- | --- | --- |")
			for _, p := range doc.Params {
				fmt.Fprintf(&sb, "\n| `%s` | `%s` | %s |", p.Name, p.Type, p.Description)
			}
			parts = append(parts, sb.String())
		}
		if doc.Returns != nil {
			line := "**Returns:**"
			if doc.Returns.Type != "" {
				line += " `" + doc.Returns.Type + "`"
			}
			if doc.Returns.Description != "" {
				line += " " + doc.Returns.Description
			}
			parts = append(parts, line)
		}
	}
	parts = append(parts, fence(r.fenceLang, sec.Content))
	return parts
}

func (r *Renderer) renderTest(sec parser.Section, statuses testreport.StatusMap) []string {
	var parts []string
	if sec.Title != "" {
		parts = append(parts, fmt.Sprintf("**Test: %s**", sec.Title))
	}
	parts = append(parts, fence(r.fenceLang, sec.Content))

	if sec.Title != "" {
		if status, ok := statuses[sec.Title]; ok {
			if status.Passed {
				parts = append(parts, "Status: ✅ pass")
			} else {
				line := "Status: ❌ fail"
				if len(status.FailureMessages) > 0 {
					line += "\n\n" + strings.Join(status.FailureMessages, "\n")
				}
				parts = append(parts, line)
			}
		}
	}
	return parts
}

func (r *Renderer) renderFooter(ex *parser.ParsedExample, exampleRoot string) []string {
	parts := []string{"## References"}

	display := ex.Path
	if exampleRoot != "" {
		if rel, err := filepath.Rel(exampleRoot, ex.Path); err == nil && !strings.HasPrefix(rel, "..") {
			display = rel
		}
	}
	parts = append(parts, fmt.Sprintf("Source file: `%s`", filepath.ToSlash(display)))

	if len(ex.ReferencedFiles) > 0 {
		var sb strings.Builder
		sb.WriteString("Included files:\n")
		for _, f := range ex.ReferencedFiles {
			sb.WriteString("\n- `" + f + "`")
		}
		parts = append(parts, sb.String())
	}

	if ex.Metadata.Keywords != "" || ex.Metadata.Difficulty != "" {
		parts = append(parts, "## Metadata")
		var lines []string
		if ex.Metadata.Keywords != "" {
			lines = append(lines, "- Keywords: "+ex.Metadata.Keywords)
		}
		if ex.Metadata.Difficulty != "" {
			lines = append(lines, "- Difficulty: "+ex.Metadata.Difficulty)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return parts
}

func fence(lang, content string) string {
	return "```" + lang + "\n" + content + "\n```"
}
