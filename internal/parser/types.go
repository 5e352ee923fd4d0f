package parser

import "codewalk/internal/include"

// SectionKind tags one classified unit of the source file.
type SectionKind string

const (
	SectionProse         SectionKind = "prose"
	SectionCode          SectionKind = "code"
	SectionJSDoc         SectionKind = "jsdoc"
	SectionTest          SectionKind = "test"
	SectionInclude       SectionKind = "include"
	SectionHeaderControl SectionKind = "header-control"
)

// Section is one classified, orderable unit of the source file. Sections are
// produced in strict source order and never reordered. Content carries the
// raw text payload; the remaining fields are populated per kind.
type Section struct {
	Kind      SectionKind
	Content   string
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive

	Doc         *DocBlock       // jsdoc
	Title       string          // test
	IncludePath string          // include
	Control     include.Control // header-control
}

// DocumentMetadata is the file-level annotation block, populated once from
// the first @document.* tagged comment and immutable after parse.
type DocumentMetadata struct {
	Title       string
	Description string
	Keywords    string
	Difficulty  string
}

// ParsedExample is the parse result for one source file: metadata, the
// ordered section sequence, and every @include target in first-encountered
// order (duplicates kept). Read-only after Parse returns.
type ParsedExample struct {
	Path            string
	Metadata        DocumentMetadata
	Sections        []Section
	ReferencedFiles []string
}
