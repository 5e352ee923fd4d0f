package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"codewalk/internal/crawler"
	"codewalk/internal/parser"
	"codewalk/internal/testreport"
)

// DocGenerator drives batch rendering: crawl the example root, render every
// file, write the Markdown mirror tree. Files are independent of each other
// (the report is read-only once loaded), so they render on a worker pool; a
// single file's failure is recorded and the batch keeps going.
type DocGenerator struct {
	parser   *parser.Parser
	renderer *Renderer
	report   *testreport.Report
	rootDir  string
	workers  int
	log      *zap.Logger
}

// FileFailure records one example that failed to render.
type FileFailure struct {
	Path string
	Err  error
}

// GenerateStats summarizes a batch run.
type GenerateStats struct {
	Rendered int
	Failed   int
	Failures []FileFailure
}

// NewDocGenerator wires the batch driver. rootDir is the project root used
// for test-report path matching; workers caps render parallelism.
func NewDocGenerator(p *parser.Parser, r *Renderer, report *testreport.Report, rootDir string, workers int, log *zap.Logger) *DocGenerator {
	if workers <= 0 {
		workers = 4
	}
	return &DocGenerator{
		parser:   p,
		renderer: r,
		report:   report,
		rootDir:  rootDir,
		workers:  workers,
		log:      log,
	}
}

// RenderFile parses and renders a single example to Markdown text.
func (g *DocGenerator) RenderFile(path, exampleRoot string) (string, error) {
	ex, err := g.parser.ParseFile(path)
	if err != nil {
		return "", err
	}
	statuses := testreport.Lookup(g.report, path, g.rootDir)
	return g.renderer.Render(ex, statuses, exampleRoot)
}

// GenerateFile renders one example and writes its Markdown next to the
// mirrored relative path under outputDir.
func (g *DocGenerator) GenerateFile(path, exampleRoot, outputDir string) error {
	out, err := g.RenderFile(path, exampleRoot)
	if err != nil {
		return err
	}

	target := OutputPath(path, exampleRoot, outputDir)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}

// GenerateDocs renders every example under exampleRoot into outputDir.
func (g *DocGenerator) GenerateDocs(ctx context.Context, exampleRoot, outputDir string) (*GenerateStats, error) {
	files, err := crawler.NewCrawler().CollectExamples(exampleRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", exampleRoot, err)
	}

	var mu sync.Mutex
	stats := &GenerateStats{}

	p := pool.New().WithMaxGoroutines(g.workers)
	for _, file := range files {
		file := file
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				return
			}
			if err := g.GenerateFile(file, exampleRoot, outputDir); err != nil {
				g.log.Error("failed to render example", zap.String("file", file), zap.Error(err))
				mu.Lock()
				stats.Failed++
				stats.Failures = append(stats.Failures, FileFailure{Path: file, Err: err})
				mu.Unlock()
				return
			}
			mu.Lock()
			stats.Rendered++
			mu.Unlock()
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// OutputPath maps an example source path to its Markdown output path,
// mirroring the directory layout under outputDir.
func OutputPath(path, exampleRoot, outputDir string) string {
	rel, err := filepath.Rel(exampleRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return filepath.Join(outputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".md")
}
