package permissions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap/zaptest"
	"golang.org/x/tools/txtar"
)

func testLogger(t *testing.T) logr.Logger {
	return zapr.NewLogger(zaptest.NewLogger(t))
}

// writeProject materialises a txtar archive into a fresh directory.
func writeProject(t *testing.T, archive string) string {
	t.Helper()
	return writeProjectAt(t, t.TempDir(), archive)
}

func writeProjectAt(t *testing.T, dir, archive string) string {
	t.Helper()
	ar := txtar.Parse([]byte(archive))
	for _, f := range ar.Files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create dir for %s: %v", f.Name, err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", f.Name, err)
		}
	}
	return dir
}
