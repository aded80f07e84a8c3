package permissions

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// Resolver runs one Strategy and normalises its outcome into the final
// permission list.
type Resolver struct {
	logger   logr.Logger
	rules    *RuleTable
	strategy Strategy
}

func NewResolver(logger logr.Logger, rules *RuleTable, strategy Strategy) *Resolver {
	if rules == nil {
		rules = DefaultRules
	}
	return &Resolver{logger: logger, rules: rules, strategy: strategy}
}

// Resolve returns a fresh, sorted, duplicate-free list of known permission
// identifiers. The entrypoints slice is not modified.
func (r *Resolver) Resolve(ctx context.Context, entrypoints []string) ([]string, error) {
	roots := append([]string(nil), entrypoints...)
	r.logger.V(1).Info("Resolving permissions", "strategy", r.strategy.Name(), "entrypoints", roots)

	discovery, err := r.strategy.Discover(ctx, roots)
	if err != nil {
		return nil, fmt.Errorf("error discovering permissions with %s strategy: %w", r.strategy.Name(), err)
	}

	found := NewSet()
	for perm := range discovery.Permissions {
		if !r.rules.Detectable(perm) {
			r.logger.V(1).Info("Discarding unknown permission", "permission", perm)
			continue
		}
		found.Add(perm)
	}
	if discovery.Blocking {
		found.Add(WebRequestBlocking)
	}

	perms := found.Sorted()
	r.logger.V(1).Info("Resolved permissions", "permissions", perms)
	return perms, nil
}
