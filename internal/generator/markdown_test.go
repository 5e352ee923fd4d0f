package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codewalk/internal/parser"
	"codewalk/internal/testreport"
)

// recordingIncluder captures every include call so tests can assert what the
// renderer asked for, without touching the filesystem.
type recordingIncluder struct {
	calls  []string
	misses map[string]bool
}

func (r *recordingIncluder) LoadAndWrap(sourcePath, includePath string) (string, bool) {
	r.calls = append(r.calls, includePath)
	if r.misses[includePath] {
		return "", false
	}
	return "[included " + includePath + "]", true
}

func parseExample(t *testing.T, src string) *parser.ParsedExample {
	t.Helper()
	ex, err := parser.NewParser(zap.NewNop()).Parse([]byte(src), "examples/sample.ts")
	require.NoError(t, err)
	return ex
}

const twoFunctionsSource = `/**
 * @document.title Arithmetic
 * @document.description Two tiny functions.
 */

/**
 * Adds two numbers.
 * @param {number} a - first addend
 * @param {number} b - second addend
 * @returns {number} the sum
 */
export function add(a: number, b: number): number {
  return a + b
}

/**
 * Multiplies two numbers.
 * @param {number} a - the multiplicand
 * @param {number} b - the multiplier
 * @returns {number} the product
 */
export function multiply(a: number, b: number): number {
  return a * b
}

if (import.meta.vitest) {
  it('add(3,4)=7', () => {
    expect(add(3, 4)).toBe(7)
  })
  it('multiply(2,5)=10', () => {
    expect(multiply(2, 5)).toBe(10)
  })
}
`

func TestRender_TwoFunctionsTwoPassingTests(t *testing.T) {
	ex := parseExample(t, twoFunctionsSource)
	statuses := testreport.StatusMap{
		"add(3,4)=7":       {Passed: true},
		"multiply(2,5)=10": {Passed: true},
	}

	r := NewRenderer(&recordingIncluder{}, "ts", zap.NewNop())
	out, err := r.Render(ex, statuses, "")
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "| Parameter | Type | Description |"))
	assert.Equal(t, 2, strings.Count(out, "**Returns:**"))
	assert.Equal(t, 2, strings.Count(out, "Status: ✅ pass"))

	addAt := strings.Index(out, "export function add")
	mulAt := strings.Index(out, "export function multiply")
	require.True(t, addAt >= 0 && mulAt >= 0)
	assert.Less(t, addAt, mulAt, "functions render in source order")

	assert.True(t, strings.HasPrefix(out, "# Arithmetic\n\nTwo tiny functions.\n\n"))
}

func TestRender_FailedTestCarriesMessages(t *testing.T) {
	ex := parseExample(t, twoFunctionsSource)
	statuses := testreport.StatusMap{
		"add(3,4)=7": {Passed: false, FailureMessages: []string{"expected 7, got 8"}},
	}

	r := NewRenderer(&recordingIncluder{}, "ts", zap.NewNop())
	out, err := r.Render(ex, statuses, "")
	require.NoError(t, err)

	assert.Contains(t, out, "Status: ❌ fail\n\nexpected 7, got 8")
	// No status entry for multiply: the test still renders, without a line.
	assert.Contains(t, out, "**Test: multiply(2,5)=10**")
	assert.Equal(t, 0, strings.Count(out, "Status: ✅ pass"))
}

func TestRender_MissingIncludeLeavesBodyEmpty(t *testing.T) {
	ex := parseExample(t, "// @include nope/missing.ts\n")
	inc := &recordingIncluder{misses: map[string]bool{"nope/missing.ts": true}}

	r := NewRenderer(inc, "ts", zap.NewNop())
	out, err := r.Render(ex, testreport.StatusMap{}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"nope/missing.ts"}, inc.calls)
	assert.NotContains(t, out, "[included")
	// Body is empty: the document goes straight to the footer, which still
	// lists the referenced file.
	assert.True(t, strings.HasPrefix(out, "## References\n"))
	assert.Contains(t, out, "- `nope/missing.ts`")
}

func TestRender_HeaderControlsShiftProse(t *testing.T) {
	src := `/**
 * @document.title Controls
 */

// #+

/*
# Deeper
*/

// #-

/*
# Back
*/

// #!

/*
# Base
*/
`
	ex := parseExample(t, src)

	r := NewRenderer(&recordingIncluder{}, "ts", zap.NewNop())
	out, err := r.Render(ex, testreport.StatusMap{}, "")
	require.NoError(t, err)

	// Title occupies level 1, so the document level is 2. The first fragment
	// renders after #+ at level 3, the second after #- at level 2, the third
	// after #! back at the document level.
	assert.Contains(t, out, "### Deeper")
	assert.Contains(t, out, "## Back")
	assert.Contains(t, out, "## Base")
}

func TestRender_IncludeObservesDepthState(t *testing.T) {
	src := `/**
 * @document.title Controls
 */

// #+
// @include first.ts

/*
# Inside
*/

// #-
// @include second.ts

/*
# Outside
*/
`
	ex := parseExample(t, src)
	inc := &recordingIncluder{}

	r := NewRenderer(inc, "ts", zap.NewNop())
	out, err := r.Render(ex, testreport.StatusMap{}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"first.ts", "second.ts"}, inc.calls)
	assert.Contains(t, out, "### Inside", "prose between the includes sees the increased level")
	assert.Contains(t, out, "## Outside", "prose after #- is back at the document level")
}

func TestRender_Deterministic(t *testing.T) {
	ex := parseExample(t, twoFunctionsSource)
	statuses := testreport.StatusMap{"add(3,4)=7": {Passed: true}}

	r := NewRenderer(&recordingIncluder{}, "ts", zap.NewNop())
	first, err := r.Render(ex, statuses, "")
	require.NoError(t, err)
	second, err := r.Render(ex, statuses, "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRender_HeadingViolationAborts(t *testing.T) {
	ex := parseExample(t, "/*\n# Top\n\n### Skipped\n*/\n")

	r := NewRenderer(&recordingIncluder{}, "ts", zap.NewNop())
	_, err := r.Render(ex, testreport.StatusMap{}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Skipped")
	assert.Contains(t, err.Error(), "Top")
}

func TestRender_NoTitleStartsAtLevelOne(t *testing.T) {
	ex := parseExample(t, "/*\n# Standalone\n*/\n")

	r := NewRenderer(&recordingIncluder{}, "ts", zap.NewNop())
	out, err := r.Render(ex, testreport.StatusMap{}, "")
	require.NoError(t, err)

	assert.Contains(t, out, "# Standalone")
	assert.NotContains(t, out, "## Standalone")
}

func TestRender_FooterMetadataOnlyWhenPresent(t *testing.T) {
	withMeta := parseExample(t, "/** @document.title T @document.keywords a, b @document.difficulty advanced */\n")
	r := NewRenderer(&recordingIncluder{}, "ts", zap.NewNop())

	out, err := r.Render(withMeta, testreport.StatusMap{}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "## Metadata")
	assert.Contains(t, out, "- Keywords: a, b")
	assert.Contains(t, out, "- Difficulty: advanced")

	without := parseExample(t, "/*\nplain prose\n*/\n")
	out, err = r.Render(without, testreport.StatusMap{}, "")
	require.NoError(t, err)
	assert.NotContains(t, out, "## Metadata")
	assert.Contains(t, out, "## References")
	assert.Contains(t, out, "Source file: `examples/sample.ts`")
}
