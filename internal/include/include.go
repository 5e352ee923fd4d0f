// Package include resolves header-depth control directives and embeds
// supporting files into the rendered document.
package include

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"codewalk/internal/heading"
)

// Control is a header-depth directive parsed from a line comment.
type Control int

const (
	ControlNone Control = iota
	ControlIncrease
	ControlDecrease
	ControlReset
)

// ResolveControl classifies a line comment as a header-depth directive.
// It accepts the comment with or without its leading "//".
func ResolveControl(comment string) Control {
	s := strings.TrimSpace(comment)
	s = strings.TrimSpace(strings.TrimPrefix(s, "//"))
	switch s {
	case "#+":
		return ControlIncrease
	case "#-":
		return ControlDecrease
	case "#!":
		return ControlReset
	}
	return ControlNone
}

// ApplyControl mutates the depth state for one directive. Increase and
// decrease clamp at the [1,6] heading range; reset returns to the document's
// base level regardless of prior history.
func ApplyControl(state *heading.DepthState, c Control) {
	switch c {
	case ControlIncrease:
		if state.CurrentLevel < 6 {
			state.CurrentLevel++
		}
	case ControlDecrease:
		if state.CurrentLevel > 1 {
			state.CurrentLevel--
		}
	case ControlReset:
		state.CurrentLevel = state.DocumentLevel
	}
}

// ResolvePath resolves an @include path relative to the including file.
func ResolvePath(currentFile, relPath string) string {
	if filepath.IsAbs(relPath) {
		return filepath.Clean(relPath)
	}
	return filepath.Join(filepath.Dir(currentFile), relPath)
}

var fenceHints = map[string]string{
	".ts":   "ts",
	".tsx":  "tsx",
	".mts":  "ts",
	".js":   "js",
	".jsx":  "jsx",
	".mjs":  "js",
	".json": "json",
	".md":   "md",
	".css":  "css",
	".html": "html",
	".yaml": "yaml",
	".yml":  "yaml",
	".sh":   "sh",
	".sql":  "sql",
	".go":   "go",
}

// FenceHint picks a code-fence language for a file, empty for unknown
// extensions.
func FenceHint(path string) string {
	return fenceHints[strings.ToLower(filepath.Ext(path))]
}

// Resolver loads supporting files and wraps them for embedding. Included
// content is embedded as an opaque fenced block, never re-parsed, so an
// included file's own directives stay inert text and inclusion cannot recurse.
type Resolver struct {
	rootDir string
	log     *zap.Logger
}

// NewResolver creates a resolver. rootDir is the example root used to shorten
// the display path in the wrapper label.
func NewResolver(rootDir string, log *zap.Logger) *Resolver {
	return &Resolver{rootDir: rootDir, log: log}
}

// LoadAndWrap reads the file referenced by includePath (relative to
// sourcePath) and returns it wrapped between delimiter rules with a labelled
// fenced block. A missing file logs a warning and reports ok=false; the
// caller omits the include and keeps rendering.
func (r *Resolver) LoadAndWrap(sourcePath, includePath string) (string, bool) {
	target := ResolvePath(sourcePath, includePath)
	data, err := os.ReadFile(target)
	if err != nil {
		r.log.Warn("included file could not be read, omitting",
			zap.String("source", sourcePath),
			zap.String("include", target),
			zap.Error(err))
		return "", false
	}

	display := target
	if r.rootDir != "" {
		if rel, err := filepath.Rel(r.rootDir, target); err == nil && !strings.HasPrefix(rel, "..") {
			display = rel
		}
	}
	display = filepath.ToSlash(display)

	var sb strings.Builder
	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "**Supporting File (`%s`)**\n\n", display)
	sb.WriteString("```" + FenceHint(target) + "\n")
	sb.WriteString(strings.TrimRight(string(data), "\n"))
	sb.WriteString("\n```\n\n---")
	return sb.String(), true
}
