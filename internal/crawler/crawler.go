// Package crawler scans an example root for annotated source files.
package crawler

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

var sourceExtensions = map[string]bool{
	".ts":  true,
	".tsx": true,
	".mts": true,
	".js":  true,
	".jsx": true,
	".mjs": true,
}

// Crawler walks a directory tree for example source files.
type Crawler struct {
	ignored []string
}

// NewCrawler creates a crawler with the default ignore list.
func NewCrawler() *Crawler {
	return &Crawler{
		ignored: []string{".git", "node_modules", "dist", "build", "coverage", "testdata"},
	}
}

// IsSourceFile reports whether a path looks like a renderable example source
// file. Declaration files (.d.ts) are build artifacts and are skipped.
func IsSourceFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasSuffix(name, ".d.ts") {
		return false
	}
	return sourceExtensions[strings.ToLower(filepath.Ext(name))]
}

// ScanExamples walks root and streams every example source file to onFile,
// skipping ignored directories.
func (c *Crawler) ScanExamples(root string, onFile func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if IsSourceFile(path) {
			onFile(path)
		}
		return nil
	})
}

// CollectExamples returns all example source files under root in a stable
// (sorted) order.
func (c *Crawler) CollectExamples(root string) ([]string, error) {
	var files []string
	err := c.ScanExamples(root, func(path string) {
		files = append(files, path)
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
