package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
)

const (
	StrategyDeps   = "deps"
	StrategyBundle = "bundle"
)

var ErrUnknownStrategy = errors.New("unknown permission discovery strategy")

// Discovery is the raw outcome of one strategy run.
type Discovery struct {
	Permissions Set
	// Blocking reports a web-request listener registered in blocking mode.
	Blocking bool
}

// Strategy discovers the permissions a set of entrypoints needs.
type Strategy interface {
	Name() string
	Discover(ctx context.Context, entrypoints []string) (Discovery, error)
}

// Options selects and configures a Strategy.
type Options struct {
	Strategy string
	// ProjectDir is the root that entrypoints are relative to.
	ProjectDir string
	Rules      *RuleTable
	Graph      GraphOptions
	// SemgrepBinary overrides the structural search executable.
	SemgrepBinary string
	// KeepArtifact leaves the bundled artifact on disk after a bundle scan.
	KeepArtifact bool
}

func NewStrategy(logger logr.Logger, opts Options) (Strategy, error) {
	if opts.Rules == nil {
		opts.Rules = DefaultRules
	}
	if opts.ProjectDir == "" {
		opts.ProjectDir = "."
	}
	switch opts.Strategy {
	case "", StrategyDeps:
		return NewDependencyScan(logger, opts), nil
	case StrategyBundle:
		return NewBundleScan(logger, opts, NewEsbuildBundler(logger), NewSemgrep(logger, opts.SemgrepBinary)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, opts.Strategy)
	}
}
