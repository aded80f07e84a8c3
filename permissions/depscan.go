package permissions

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-logr/logr"
)

// DependencyScan reads every file reachable from the entrypoints and runs
// the rule table over each file's text.
type DependencyScan struct {
	logger logr.Logger
	root   string
	rules  *RuleTable
	lister *SourceLister
	graph  *ImportGraph
}

func NewDependencyScan(logger logr.Logger, opts Options) *DependencyScan {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules
	}
	graph := opts.Graph
	if graph.Root == "" {
		graph.Root = opts.ProjectDir
	}
	return &DependencyScan{
		logger: logger,
		root:   opts.ProjectDir,
		rules:  rules,
		lister: NewSourceLister(logger, opts.ProjectDir),
		graph:  NewImportGraph(logger, graph),
	}
}

func (d *DependencyScan) Name() string { return StrategyDeps }

// Discover scans the closure of entrypoints, or of every project source
// file when no entrypoints are given.
func (d *DependencyScan) Discover(ctx context.Context, entrypoints []string) (Discovery, error) {
	roots := make([]string, 0, len(entrypoints))
	for _, ep := range entrypoints {
		path := resolveEntrypoint(d.root, ep)
		if excludedFrom(d.root, path) {
			d.logger.V(1).Info("Skipping excluded entrypoint", "entrypoint", ep)
			continue
		}
		roots = append(roots, path)
	}
	if len(entrypoints) == 0 {
		files, err := d.lister.List()
		if err != nil {
			return Discovery{}, err
		}
		roots = files
	}

	closure, err := d.graph.Closure(ctx, roots)
	if err != nil {
		return Discovery{}, fmt.Errorf("error building dependency closure: %w", err)
	}

	result := Discovery{Permissions: NewSet()}
	for _, f := range closure {
		for _, perm := range d.rules.Detect(string(f.Content)) {
			d.logger.Info("File needs permission, adding", "file", d.display(f.Path), "permission", perm)
			if perm == WebRequestBlocking {
				result.Blocking = true
				continue
			}
			result.Permissions.Add(perm)
		}
	}
	return result, nil
}

func (d *DependencyScan) display(path string) string {
	if rel, err := filepath.Rel(d.root, path); err == nil {
		return rel
	}
	return path
}

func resolveEntrypoint(root, ep string) string {
	if filepath.IsAbs(ep) {
		return filepath.Clean(ep)
	}
	return filepath.Join(root, filepath.FromSlash(ep))
}
