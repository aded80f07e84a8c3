package permissions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var ErrNoEntrypoints = errors.New("bundle scan requires at least one entrypoint")

// BundleScan flattens the entrypoints into one artifact and searches it
// structurally for extension API accesses.
type BundleScan struct {
	logger       logr.Logger
	root         string
	rules        *RuleTable
	bundler      Bundler
	searcher     Searcher
	tempDir      string
	keepArtifact bool
}

func NewBundleScan(logger logr.Logger, opts Options, bundler Bundler, searcher Searcher) *BundleScan {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules
	}
	return &BundleScan{
		logger:       logger,
		root:         opts.ProjectDir,
		rules:        rules,
		bundler:      bundler,
		searcher:     searcher,
		tempDir:      os.TempDir(),
		keepArtifact: opts.KeepArtifact,
	}
}

func (b *BundleScan) Name() string { return StrategyBundle }

func (b *BundleScan) Discover(ctx context.Context, entrypoints []string) (Discovery, error) {
	if err := b.searcher.Preflight(); err != nil {
		return Discovery{}, err
	}
	if len(entrypoints) == 0 {
		return Discovery{}, ErrNoEntrypoints
	}

	artifact := filepath.Join(b.tempDir, fmt.Sprintf("webext-bundle-%s.js", uuid.NewString()))
	if b.keepArtifact {
		defer b.logger.Info("Debug mode: bundled artifact kept for inspection", "path", artifact)
	} else {
		defer os.Remove(artifact)
	}

	err := b.bundler.Bundle(ctx, BundleRequest{
		WorkDir:     b.root,
		Entrypoints: entrypoints,
		Outfile:     artifact,
	})
	if err != nil {
		return Discovery{}, fmt.Errorf("error bundling entrypoints: %w", err)
	}

	tokens := make([][]string, len(namespaceQueries))
	var blocking bool

	eg, egCtx := errgroup.WithContext(ctx)
	for i, q := range namespaceQueries {
		eg.Go(func() error {
			raw, err := b.searcher.Search(egCtx, q.Pattern, artifact)
			if err != nil {
				return err
			}
			found, err := ExtractTokens(raw, q.Metavar)
			if err != nil {
				return err
			}
			for j := range found {
				found[j] = q.Prefix + found[j]
			}
			tokens[i] = found
			return nil
		})
	}
	eg.Go(func() error {
		raw, err := b.searcher.Search(egCtx, blockingPattern, artifact)
		if err != nil {
			return err
		}
		n, err := CountResults(raw)
		if err != nil {
			return err
		}
		blocking = n > 0
		return nil
	})
	if err := eg.Wait(); err != nil {
		return Discovery{}, err
	}

	result := Discovery{Permissions: NewSet(), Blocking: blocking}
	for _, ts := range tokens {
		for _, tok := range ts {
			perm, ok := b.rules.Lookup(tok)
			if !ok {
				b.logger.V(1).Info("Ignoring unknown API token", "token", tok)
				continue
			}
			if !result.Permissions.Has(perm) {
				b.logger.Info("Bundle needs permission, adding", "token", tok, "permission", perm)
			}
			result.Permissions.Add(perm)
		}
	}
	return result, nil
}
