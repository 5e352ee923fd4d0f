// Package testreport reads an external test-run report (jest/vitest --json
// shape) and answers which in-source tests passed or failed.
package testreport

import (
	"encoding/json"
	"os"
	"strings"

	"go.uber.org/zap"
)

// AssertionResult is one test's outcome inside a file result.
type AssertionResult struct {
	Title           string   `json:"title"`
	Status          string   `json:"status"`
	FailureMessages []string `json:"failureMessages,omitempty"`
}

// FileResult groups the assertions of one test file.
type FileResult struct {
	Name             string            `json:"name"`
	AssertionResults []AssertionResult `json:"assertionResults"`
}

// Report is the top-level test-run report.
type Report struct {
	TestResults []FileResult `json:"testResults"`
}

// TestStatus is the rendered outcome of a single test.
type TestStatus struct {
	Passed          bool
	FailureMessages []string
}

// StatusMap maps a test title to its outcome for one source file.
type StatusMap map[string]TestStatus

// Load reads a report file. An absent file is normal (tests simply render
// without status lines) and returns nil without logging. A file that exists
// but does not decode as the expected structure logs a warning and also
// returns nil, so a stale or truncated report never blocks generation.
func Load(path string, log *zap.Logger) *Report {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("test report could not be read, ignoring", zap.String("path", path), zap.Error(err))
		}
		return nil
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		log.Warn("test report is not valid JSON, ignoring", zap.String("path", path), zap.Error(err))
		return nil
	}
	if r.TestResults == nil {
		log.Warn("test report has no testResults array, ignoring", zap.String("path", path))
		return nil
	}
	return &r
}

// Lookup filters a report down to the statuses for one source file. The test
// runner and the documentation generator may run from different directories,
// so both paths are normalized (root prefix and conventional src/ segment
// stripped) and matched exactly or by suffix. Only passed and failed entries
// surface; skipped, pending and todo tests carry no status.
func Lookup(r *Report, sourceFile, rootDir string) StatusMap {
	statuses := StatusMap{}
	if r == nil {
		return statuses
	}

	want := normalizePath(sourceFile, rootDir)
	for _, fr := range r.TestResults {
		got := normalizePath(fr.Name, rootDir)
		if got != want && !strings.HasSuffix(got, "/"+want) && !strings.HasSuffix(want, "/"+got) {
			continue
		}
		for _, ar := range fr.AssertionResults {
			switch ar.Status {
			case "passed":
				statuses[ar.Title] = TestStatus{Passed: true}
			case "failed":
				statuses[ar.Title] = TestStatus{Passed: false, FailureMessages: ar.FailureMessages}
			}
		}
	}
	return statuses
}

func normalizePath(p, rootDir string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if rootDir != "" {
		root := strings.TrimSuffix(strings.ReplaceAll(rootDir, "\\", "/"), "/")
		p = strings.TrimPrefix(p, root+"/")
	}
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "src/")
	return p
}
