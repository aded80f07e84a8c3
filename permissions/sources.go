package permissions

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-logr/logr"
)

// CodeExtensions lists the file extensions treated as project source.
var CodeExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"}

const sourceGlob = "**/*.{js,jsx,ts,tsx,mjs,cjs}"

// Directories owned by package managers or tooling, never part of a closure.
var defaultExcludeDirs = map[string]bool{
	".git":             true,
	".cache":           true,
	".yarn":            true,
	".pnpm-store":      true,
	"bower_components": true,
	"jspm_packages":    true,
	"node_modules":     true,
}

// Filename markers of test files.
var testMarkers = []string{"__tests__", "__test__", ".spec.", ".test."}

func IsCodeFile(name string) bool {
	for _, ext := range CodeExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func isTestFile(path string) bool {
	path = filepath.ToSlash(path)
	for _, m := range testMarkers {
		if strings.Contains(path, m) {
			return true
		}
	}
	return false
}

func inExcludedDir(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if defaultExcludeDirs[part] {
			return true
		}
	}
	return false
}

// excludedFrom reports whether path is a test file or lives in a
// dependency directory, judged only by the part of path below root.
func excludedFrom(root, path string) bool {
	rel := path
	if absRoot, err := filepath.Abs(root); err == nil {
		if absPath, err := filepath.Abs(path); err == nil {
			if r, err := filepath.Rel(absRoot, absPath); err == nil {
				rel = r
			}
		}
	}
	return isTestFile(rel) || inExcludedDir(rel)
}

// SourceLister enumerates the project source files under Root.
type SourceLister struct {
	logger      logr.Logger
	root        string
	excludeDirs map[string]bool
}

func NewSourceLister(logger logr.Logger, root string) *SourceLister {
	return &SourceLister{
		logger:      logger,
		root:        root,
		excludeDirs: defaultExcludeDirs,
	}
}

func (sl *SourceLister) isExcluded(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if sl.excludeDirs[part] {
			sl.logger.V(1).Info("Exclusion filter applied", "path", path, "filter", part)
			return true
		}
	}
	return false
}

// List returns every non-test source file under the root, sorted.
func (sl *SourceLister) List() ([]string, error) {
	info, err := os.Stat(sl.root)
	if err != nil {
		return nil, fmt.Errorf("error reading project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", sl.root)
	}

	matches, err := doublestar.Glob(os.DirFS(sl.root), sourceGlob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("error listing source files under %s: %w", sl.root, err)
	}

	var files []string
	for _, m := range matches {
		if sl.isExcluded(m) || isTestFile(m) {
			continue
		}
		files = append(files, filepath.Join(sl.root, filepath.FromSlash(m)))
	}
	sort.Strings(files)
	sl.logger.V(1).Info("Listed project source files", "root", sl.root, "count", len(files))
	return files, nil
}
