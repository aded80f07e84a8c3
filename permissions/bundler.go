package permissions

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/go-logr/logr"
)

// BundleRequest describes one flattening of entrypoints into Outfile.
type BundleRequest struct {
	WorkDir     string
	Entrypoints []string
	Outfile     string
}

type Bundler interface {
	Bundle(ctx context.Context, req BundleRequest) error
}

// BundleError carries the bundler's diagnostics.
type BundleError struct {
	Messages []string
}

func (e *BundleError) Error() string {
	return "bundling failed:\n" + strings.Join(e.Messages, "\n")
}

type EsbuildBundler struct {
	logger logr.Logger
	target api.Target
}

func NewEsbuildBundler(logger logr.Logger) *EsbuildBundler {
	return &EsbuildBundler{logger: logger, target: api.ES2017}
}

// entryModule imports every entrypoint for its side effects so that all of
// them land in a single output file.
func entryModule(workDir string, entrypoints []string) (string, error) {
	var sb strings.Builder
	for _, ep := range entrypoints {
		abs := ep
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(workDir, filepath.FromSlash(ep))
		}
		abs, err := filepath.Abs(abs)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "import %s;\n", strconv.Quote(filepath.ToSlash(abs)))
	}
	return sb.String(), nil
}

func (b *EsbuildBundler) Bundle(ctx context.Context, req BundleRequest) error {
	workDir, err := filepath.Abs(req.WorkDir)
	if err != nil {
		return fmt.Errorf("error resolving bundle working directory: %w", err)
	}
	contents, err := entryModule(workDir, req.Entrypoints)
	if err != nil {
		return fmt.Errorf("error building bundle entry module: %w", err)
	}

	buildCtx, ctxErr := api.Context(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   contents,
			ResolveDir: workDir,
			Sourcefile: "webext-entrypoints.js",
			Loader:     api.LoaderJS,
		},
		AbsWorkingDir:     workDir,
		Bundle:            true,
		Write:             true,
		Outfile:           req.Outfile,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Target:            b.target,
		TreeShaking:       api.TreeShakingFalse,
		ResolveExtensions: []string{".tsx", ".ts", ".jsx", ".js", ".mjs", ".cjs", ".json"},
		LogLevel:          api.LogLevelSilent,
	})
	if ctxErr != nil {
		return &BundleError{Messages: formatMessages(ctxErr.Errors, api.ErrorMessage)}
	}
	defer buildCtx.Dispose()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			buildCtx.Cancel()
		case <-done:
		}
	}()

	b.logger.V(1).Info("Bundling entrypoints", "count", len(req.Entrypoints), "outfile", req.Outfile)
	result := buildCtx.Rebuild()
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return &BundleError{Messages: formatMessages(result.Errors, api.ErrorMessage)}
	}
	for _, w := range formatMessages(result.Warnings, api.WarningMessage) {
		b.logger.V(1).Info("Bundler warning", "message", w)
	}
	return nil
}

func formatMessages(msgs []api.Message, kind api.MessageKind) []string {
	if len(msgs) == 0 {
		return nil
	}
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: kind})
	out := make([]string, 0, len(formatted))
	for _, m := range formatted {
		out = append(out, strings.TrimSpace(m))
	}
	return out
}
