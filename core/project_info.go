package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"
)

var ErrNoPackageJSON = errors.New("no package.json found, please run from an npm project")

// ProjectInfo is the package metadata the manifest is named after.
type ProjectInfo struct {
	Name        string
	Version     string
	Description string
	Dir         string
}

// ReadProjectInfo reads the nearest package.json at or above dir.
func (mg *ManifestGenerator) ReadProjectInfo(dir string) (ProjectInfo, error) {
	abs, err := filepath.Abs(normalizeUserPath(dir))
	if err != nil {
		return ProjectInfo{}, fmt.Errorf("error resolving project directory: %w", err)
	}

	for current := abs; ; current = filepath.Dir(current) {
		path := filepath.Join(current, "package.json")
		data, err := afero.ReadFile(mg.fs, path)
		if err == nil {
			return mg.parseProjectInfo(current, data)
		}
		if filepath.Dir(current) == current {
			return ProjectInfo{}, ErrNoPackageJSON
		}
	}
}

func (mg *ManifestGenerator) parseProjectInfo(dir string, data []byte) (ProjectInfo, error) {
	var pkg struct {
		Name        string `json:"name"`
		Version     string `json:"version"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ProjectInfo{}, fmt.Errorf("error parsing %s: %w", filepath.Join(dir, "package.json"), err)
	}

	info := ProjectInfo{
		Name:        pkg.Name,
		Version:     normalizeVersion(pkg.Version),
		Description: pkg.Description,
		Dir:         dir,
	}
	if info.Version != pkg.Version {
		mg.logger.V(1).Info("Normalized package version", "from", pkg.Version, "to", info.Version)
	}
	if _, err := semver.StrictNewVersion(info.Version); err != nil {
		mg.logger.Info("Package version is not a valid extension version", "version", pkg.Version)
	}

	mg.logger.V(1).Info("Read project info", "name", info.Name, "version", info.Version, "dir", dir)
	return info, nil
}

// normalizeVersion drops a leading "v" and any prerelease or build
// suffix, since extension versions are dot-separated integers.
func normalizeVersion(raw string) string {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}
