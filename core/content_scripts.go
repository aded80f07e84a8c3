package core

import (
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/jackmac92/web-ext-manifest-gen/permissions"
)

// FindContentScripts builds one entry per code file directly inside dir.
// The second result is false when there is nothing to declare, including
// when dir cannot be read.
func (mg *ManifestGenerator) FindContentScripts(dir string) ([]ContentScript, bool) {
	entries, err := afero.ReadDir(mg.fs, dir)
	if err != nil {
		mg.logger.V(1).Info("Content script directory unreadable, skipping", "dir", dir, "error", err.Error())
		return nil, false
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var scripts []ContentScript
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !mg.isRegularFile(path) || !permissions.IsCodeFile(path) {
			mg.logger.V(1).Info("Skipping content script candidate", "path", path)
			continue
		}

		content, err := afero.ReadFile(mg.fs, path)
		if err != nil {
			mg.logger.V(1).Info("Failed to read content script", "path", path, "error", err.Error())
			continue
		}

		jsPath := filepath.ToSlash(path)
		matches, declared := ParseMatches(string(content))
		if len(matches) == 0 {
			matches, declared = []string{UniversalPattern}, false
		}
		if !declared {
			mg.logger.Info("No match urls listed, so matching against all urls", "script", jsPath)
		}
		scripts = append(scripts, ContentScript{Matches: matches, JS: []string{jsPath}})
	}

	if len(scripts) == 0 {
		return nil, false
	}
	mg.logger.V(1).Info("Found content scripts", "dir", dir, "count", len(scripts))
	return scripts, true
}

// isRegularFile does not follow symlinks when the filesystem allows it.
func (mg *ManifestGenerator) isRegularFile(path string) bool {
	if lstater, ok := mg.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return err == nil && info.Mode().IsRegular()
	}
	info, err := mg.fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
