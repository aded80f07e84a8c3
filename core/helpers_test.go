package core

import (
	"testing"

	"github.com/go-logr/zapr"
	"github.com/spf13/afero"
	"go.uber.org/zap/zaptest"
	"golang.org/x/tools/txtar"
)

// memProject loads a txtar archive into an in-memory filesystem rooted at
// /project.
func memProject(t *testing.T, archive string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range txtar.Parse([]byte(archive)).Files {
		if err := afero.WriteFile(fs, "/project/"+f.Name, f.Data, 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", f.Name, err)
		}
	}
	return fs
}

func newTestGenerator(t *testing.T, fs afero.Fs) *ManifestGenerator {
	return NewManifestGenerator(zapr.NewLogger(zaptest.NewLogger(t))).WithFS(fs)
}
