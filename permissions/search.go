package permissions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-logr/logr"
	"github.com/itchyny/gojq"
)

// MissingToolError reports an external executable absent from PATH.
type MissingToolError struct {
	Tool string
	Err  error
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("required tool %q not found on PATH: %v", e.Tool, e.Err)
}

func (e *MissingToolError) Unwrap() error { return e.Err }

// SearchError carries the stderr of a failed structural search.
type SearchError struct {
	Pattern string
	Stderr  string
	Err     error
}

func (e *SearchError) Error() string {
	msg := fmt.Sprintf("structural search for %q failed: %v", e.Pattern, e.Err)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *SearchError) Unwrap() error { return e.Err }

// Searcher runs one structural code search and returns its JSON report.
type Searcher interface {
	Preflight() error
	Search(ctx context.Context, pattern, target string) ([]byte, error)
}

type Semgrep struct {
	logger logr.Logger
	binary string
}

func NewSemgrep(logger logr.Logger, binary string) *Semgrep {
	if binary == "" {
		binary = "semgrep"
	}
	return &Semgrep{logger: logger, binary: binary}
}

func (s *Semgrep) Preflight() error {
	if _, err := exec.LookPath(s.binary); err != nil {
		return &MissingToolError{Tool: s.binary, Err: err}
	}
	return nil
}

func (s *Semgrep) Search(ctx context.Context, pattern, target string) ([]byte, error) {
	args := []string{
		"--json",
		"--quiet",
		"--metrics=off",
		"--lang=js",
		"--exclude=node_modules",
		"--max-target-bytes=0",
		"-e", pattern,
		target,
	}
	s.logger.V(1).Info("Running structural search", "tool", s.binary, "pattern", pattern, "target", target)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &SearchError{Pattern: pattern, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.Bytes(), nil
}

// SearchQuery captures one metavariable of a search pattern; Prefix is
// prepended to every captured token.
type SearchQuery struct {
	Pattern string
	Metavar string
	Prefix  string
}

// namespaceQueries capture the API member accessed on each namespace root,
// plus the members of its runtime sub-namespace.
var namespaceQueries = func() []SearchQuery {
	var qs []SearchQuery
	for _, ns := range Namespaces {
		qs = append(qs,
			SearchQuery{Pattern: ns + ".$X", Metavar: "$X"},
			SearchQuery{Pattern: ns + ".runtime.$X", Metavar: "$X", Prefix: "runtime."},
		)
	}
	return qs
}()

const blockingPattern = `$NS.webRequest.$EVENT.addListener($CB, $FILTER, [..., "blocking", ...])`

var (
	metavarFilter = mustCompile(`[.results[]? | .extra.metavars[$name].abstract_content | select(. != null)] | unique | .[]`, "$name")
	countFilter   = mustCompile(`[.results[]?] | length`)
)

func mustCompile(src string, vars ...string) *gojq.Code {
	query, err := gojq.Parse(src)
	if err != nil {
		panic(err)
	}
	code, err := gojq.Compile(query, gojq.WithVariables(vars))
	if err != nil {
		panic(err)
	}
	return code
}

func decodeReport(raw []byte) (any, error) {
	var report any
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("error decoding search report: %w", err)
	}
	return report, nil
}

// ExtractTokens returns the sorted, unique captures of metavar in a report.
func ExtractTokens(raw []byte, metavar string) ([]string, error) {
	report, err := decodeReport(raw)
	if err != nil {
		return nil, err
	}
	var tokens []string
	iter := metavarFilter.Run(report, metavar)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("error querying search report: %w", err)
		}
		if s, ok := v.(string); ok {
			tokens = append(tokens, s)
		}
	}
	return tokens, nil
}

// CountResults returns the number of findings in a report.
func CountResults(raw []byte) (int, error) {
	report, err := decodeReport(raw)
	if err != nil {
		return 0, err
	}
	v, ok := countFilter.Run(report).Next()
	if !ok {
		return 0, nil
	}
	switch n := v.(type) {
	case error:
		return 0, fmt.Errorf("error querying search report: %w", n)
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unexpected result count type %T", v)
	}
}
