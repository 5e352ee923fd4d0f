package parser

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// DocBlock is a parsed /** */ documentation block attached to a declaration.
type DocBlock struct {
	Description string
	Params      []DocParam
	Returns     *DocReturn
}

// DocParam describes one @param tag.
type DocParam struct {
	Name        string
	Type        string
	Description string
}

// DocReturn describes an @returns (or @return) tag.
type DocReturn struct {
	Type        string
	Description string
}

var (
	paramRe    = regexp.MustCompile(`^@param\s*(?:\{([^}]*)\}\s*)?(\[?[\w.$]+\]?)?\s*(?:-\s*)?(.*)$`)
	returnsRe  = regexp.MustCompile(`^@returns?\s*(?:\{([^}]*)\}\s*)?(?:-\s*)?(.*)$`)
	documentRe = regexp.MustCompile(`@document\.(title|description|keywords|difficulty)\b`)
)

// ParseDocBlock parses a /** */ block with a line-oriented tag grammar.
// Lines before the first tag form the description; @param and @returns are
// recognized; any other tag line is skipped without aborting. Non-tag lines
// after a tag continue that tag's description.
func ParseDocBlock(comment string) *DocBlock {
	doc := &DocBlock{}
	var descLines []string
	var active *string

	for _, line := range cleanDocLines(comment) {
		switch {
		case strings.HasPrefix(line, "@param"):
			m := paramRe.FindStringSubmatch(line)
			if m == nil {
				active = nil
				continue
			}
			doc.Params = append(doc.Params, DocParam{
				Type:        strings.TrimSpace(m[1]),
				Name:        strings.Trim(m[2], "[]"),
				Description: strings.TrimSpace(m[3]),
			})
			active = &doc.Params[len(doc.Params)-1].Description
		case strings.HasPrefix(line, "@returns") || strings.HasPrefix(line, "@return"):
			m := returnsRe.FindStringSubmatch(line)
			if m == nil {
				active = nil
				continue
			}
			doc.Returns = &DocReturn{
				Type:        strings.TrimSpace(m[1]),
				Description: strings.TrimSpace(m[2]),
			}
			active = &doc.Returns.Description
		case strings.HasPrefix(line, "@"):
			// Unrecognized tag, skipped.
			active = nil
		default:
			if active != nil {
				if line != "" {
					*active = strings.TrimSpace(*active + " " + line)
				}
				continue
			}
			descLines = append(descLines, line)
		}
	}

	doc.Description = strings.TrimSpace(strings.Join(descLines, "\n"))
	return doc
}

// HasDocumentTags reports whether a /** */ block carries file-level
// @document.* metadata tags.
func HasDocumentTags(comment string) bool {
	return documentRe.MatchString(comment)
}

// ParseDocumentMetadata extracts the file-level metadata from a tagged
// comment block. Tags may share a line or span several; each value runs until
// the next @document tag. Difficulty is restricted to its three-value
// enumeration; anything else is dropped with a warning.
func ParseDocumentMetadata(comment string, log *zap.Logger) DocumentMetadata {
	var meta DocumentMetadata

	body := strings.Join(cleanDocLines(comment), "\n")
	locs := documentRe.FindAllStringSubmatchIndex(body, -1)
	for i, loc := range locs {
		name := body[loc[2]:loc[3]]
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		value := strings.Join(strings.Fields(body[loc[1]:end]), " ")

		switch name {
		case "title":
			meta.Title = value
		case "description":
			meta.Description = value
		case "keywords":
			meta.Keywords = value
		case "difficulty":
			switch v := strings.ToLower(value); v {
			case "introductory", "intermediate", "advanced":
				meta.Difficulty = v
			default:
				log.Warn("unknown difficulty value, dropping", zap.String("value", value))
			}
		}
	}
	return meta
}

// cleanDocLines strips the /** */ delimiters and the decorative leading
// asterisk of each line, then trims blank lines at both ends.
func cleanDocLines(comment string) []string {
	comment = strings.TrimPrefix(comment, "/**")
	comment = strings.TrimSuffix(comment, "*/")

	var lines []string
	for _, l := range strings.Split(comment, "\n") {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		l = strings.TrimPrefix(l, " ")
		lines = append(lines, l)
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
