package permissions

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"golang.org/x/sync/errgroup"
)

// GraphOptions configures module resolution for the import graph walk.
type GraphOptions struct {
	// Root is the project directory. Exclusion markers are matched against
	// paths relative to it. Defaults to the working directory.
	Root string
	// Browser resolves directory imports through the package.json "browser"
	// field before "main", as a bundler targeting the browser would.
	Browser bool
	// Concurrency bounds the number of files parsed at once.
	Concurrency int
}

// SourceFile is one member of a dependency closure. Content is empty when
// the file could not be read.
type SourceFile struct {
	Path    string
	Content []byte
}

type ImportGraph struct {
	logger logr.Logger
	opts   GraphOptions
}

func NewImportGraph(logger logr.Logger, opts GraphOptions) *ImportGraph {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 16
	}
	return &ImportGraph{logger: logger, opts: opts}
}

// Closure walks static import edges breadth-first from roots and returns
// every reachable file with its contents. Files of each frontier are read
// and parsed concurrently.
func (g *ImportGraph) Closure(ctx context.Context, roots []string) ([]SourceFile, error) {
	visited := make(map[string]bool)
	var files []SourceFile

	var frontier []string
	for _, r := range roots {
		r = filepath.Clean(r)
		if !visited[r] {
			visited[r] = true
			frontier = append(frontier, r)
		}
	}

	for len(frontier) > 0 {
		level := make([]SourceFile, len(frontier))
		deps := make([][]string, len(frontier))

		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(g.opts.Concurrency)
		for i, path := range frontier {
			eg.Go(func() error {
				content, err := os.ReadFile(path)
				if err != nil {
					g.logger.V(1).Info("Unreadable source file, treating as empty", "path", path, "error", err.Error())
					content = nil
				}
				level[i] = SourceFile{Path: path, Content: content}
				deps[i] = g.dependencies(egCtx, path, content)
				return egCtx.Err()
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}

		var next []string
		files = append(files, level...)
		for _, ds := range deps {
			for _, d := range ds {
				if visited[d] {
					continue
				}
				visited[d] = true
				next = append(next, d)
			}
		}
		frontier = next
	}

	g.logger.V(1).Info("Built dependency closure", "roots", len(roots), "files", len(files))
	return files, nil
}

// dependencies returns the resolved, in-project import targets of one file.
func (g *ImportGraph) dependencies(ctx context.Context, path string, content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	specifiers, err := ParseImports(ctx, path, content)
	if err != nil {
		g.logger.V(1).Info("Failed to parse imports", "path", path, "error", err.Error())
		return nil
	}

	var out []string
	for _, spec := range specifiers {
		target, ok := g.resolve(filepath.Dir(path), spec)
		if !ok {
			g.logger.V(1).Info("Skipping import", "from", path, "specifier", spec)
			continue
		}
		if excludedFrom(g.opts.Root, target) {
			g.logger.V(1).Info("Skipping excluded import", "from", path, "target", target)
			continue
		}
		out = append(out, target)
	}
	return out
}

// resolve maps a relative specifier onto a file on disk. Package imports
// belong to the dependency manager and are never followed.
func (g *ImportGraph) resolve(dir, spec string) (string, bool) {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") && spec != "." && spec != ".." {
		return "", false
	}
	base := filepath.Join(dir, filepath.FromSlash(spec))

	if isRegularFile(base) && IsCodeFile(base) {
		return base, true
	}
	for _, ext := range CodeExtensions {
		if isRegularFile(base + ext) {
			return base + ext, true
		}
	}
	// TypeScript sources import their compiled ".js" name.
	if ext := filepath.Ext(base); ext == ".js" || ext == ".jsx" || ext == ".mjs" || ext == ".cjs" {
		stem := strings.TrimSuffix(base, ext)
		for _, alt := range []string{".ts", ".tsx"} {
			if isRegularFile(stem + alt) {
				return stem + alt, true
			}
		}
	}
	if isDir(base) {
		if entry, ok := g.packageEntry(base); ok {
			return entry, true
		}
		for _, ext := range CodeExtensions {
			index := filepath.Join(base, "index"+ext)
			if isRegularFile(index) {
				return index, true
			}
		}
	}
	return "", false
}

func (g *ImportGraph) packageEntry(dir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return "", false
	}
	var pkg struct {
		Main    string          `json:"main"`
		Browser json.RawMessage `json:"browser"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", false
	}

	var candidates []string
	if g.opts.Browser {
		// Only the string form of "browser" names an entry file.
		var browser string
		if json.Unmarshal(pkg.Browser, &browser) == nil && browser != "" {
			candidates = append(candidates, browser)
		}
	}
	if pkg.Main != "" {
		candidates = append(candidates, pkg.Main)
	}
	for _, c := range candidates {
		p := filepath.Join(dir, filepath.FromSlash(c))
		if isRegularFile(p) && IsCodeFile(p) {
			return p, true
		}
		for _, ext := range CodeExtensions {
			if isRegularFile(p + ext) {
				return p + ext, true
			}
		}
	}
	return "", false
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func languageFor(path string) *sitter.Language {
	switch filepath.Ext(path) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// ParseImports returns the module specifiers a file statically imports:
// import/export-from declarations, require() and import() calls with a
// literal argument, and TypeScript import-require clauses.
func ParseImports(ctx context.Context, path string, content []byte) ([]string, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(languageFor(path))

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var specs []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			specs = append(specs, s)
		}
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || n.IsNull() {
			return
		}
		switch n.Type() {
		case "import_statement", "export_statement":
			if src := n.ChildByFieldName("source"); src != nil && !src.IsNull() && src.Type() == "string" {
				add(stringLiteral(src, content))
			}
		case "import_require_clause":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				if child := n.NamedChild(i); child.Type() == "string" {
					add(stringLiteral(child, content))
					break
				}
			}
		case "call_expression":
			if spec, ok := callSpecifier(n, content); ok {
				add(spec)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())
	return specs, nil
}

func callSpecifier(call *sitter.Node, content []byte) (string, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.IsNull() {
		return "", false
	}
	isImport := fn.Type() == "import"
	isRequire := fn.Type() == "identifier" && fn.Content(content) == "require"
	if !isImport && !isRequire {
		return "", false
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || args.IsNull() || args.NamedChildCount() == 0 {
		return "", false
	}
	first := args.NamedChild(0)
	if first.Type() != "string" {
		return "", false
	}
	return stringLiteral(first, content), true
}

func stringLiteral(n *sitter.Node, content []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "string_fragment" {
			return child.Content(content)
		}
	}
	text := n.Content(content)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return ""
}
