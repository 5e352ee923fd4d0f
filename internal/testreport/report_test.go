package testreport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AbsentFile(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())
	assert.Nil(t, r)
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeReport(t, "{not json")
	r := Load(path, zap.NewNop())
	assert.Nil(t, r)
}

func TestLoad_WrongShape(t *testing.T) {
	path := writeReport(t, `{"something":"else"}`)
	r := Load(path, zap.NewNop())
	assert.Nil(t, r)
}

func TestLoad_Valid(t *testing.T) {
	path := writeReport(t, `{
		"testResults": [
			{
				"name": "/repo/src/examples/add.ts",
				"assertionResults": [
					{"title": "add(3,4)=7", "status": "passed"},
					{"title": "add overflow", "status": "failed", "failureMessages": ["expected 7"]}
				]
			}
		]
	}`)

	r := Load(path, zap.NewNop())
	require.NotNil(t, r)
	require.Len(t, r.TestResults, 1)
	assert.Len(t, r.TestResults[0].AssertionResults, 2)
}

func TestLookup_NilReport(t *testing.T) {
	statuses := Lookup(nil, "examples/add.ts", "/repo")
	assert.NotNil(t, statuses)
	assert.Empty(t, statuses)
}

func TestLookup_MatchesBySuffix(t *testing.T) {
	r := &Report{TestResults: []FileResult{
		{
			Name: "/repo/src/examples/add.ts",
			AssertionResults: []AssertionResult{
				{Title: "add(3,4)=7", Status: "passed"},
				{Title: "broken", Status: "failed", FailureMessages: []string{"expected 7, got 8"}},
				{Title: "later", Status: "skipped"},
			},
		},
		{
			Name: "/repo/src/examples/other.ts",
			AssertionResults: []AssertionResult{
				{Title: "unrelated", Status: "passed"},
			},
		},
	}}

	statuses := Lookup(r, "examples/add.ts", "/repo")
	require.Len(t, statuses, 2)

	assert.True(t, statuses["add(3,4)=7"].Passed)
	assert.False(t, statuses["broken"].Passed)
	assert.Equal(t, []string{"expected 7, got 8"}, statuses["broken"].FailureMessages)

	_, ok := statuses["later"]
	assert.False(t, ok, "skipped entries are dropped")
	_, ok = statuses["unrelated"]
	assert.False(t, ok, "other files are filtered out")
}

func TestLookup_ExactMatch(t *testing.T) {
	r := &Report{TestResults: []FileResult{
		{
			Name:             "examples/add.ts",
			AssertionResults: []AssertionResult{{Title: "t", Status: "passed"}},
		},
	}}

	statuses := Lookup(r, "examples/add.ts", "")
	assert.Len(t, statuses, 1)
}
