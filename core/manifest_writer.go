package core

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/afero"
)

func (mg *ManifestGenerator) WriteManifest(manifest Manifest, manifestFile string) error {
	data, err := json.MarshalIndent(manifest, "", "    ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(manifestFile); dir != "." {
		if err := mg.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return afero.WriteFile(mg.fs, manifestFile, append(data, '\n'), 0o644)
}
