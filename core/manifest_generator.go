package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

var ErrNoResolver = errors.New("permission generation requested without a resolver")

// Entrypoints lists the scan roots of a manifest: background scripts,
// relative to the project, followed by generated content-script files.
// Content scripts are found relative to the working directory, so they
// are made absolute.
func Entrypoints(opts Options, scripts []ContentScript) []string {
	out := append([]string(nil), opts.BackgroundScripts...)
	for _, cs := range scripts {
		for _, js := range cs.JS {
			path := filepath.FromSlash(js)
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			out = append(out, path)
		}
	}
	return out
}

// Generate assembles the manifest and writes it to opts.OutputFile.
func (mg *ManifestGenerator) Generate(ctx context.Context, opts Options) (Manifest, error) {
	manifest, err := mg.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := mg.writer.WriteManifest(manifest, normalizeUserPath(opts.OutputFile)); err != nil {
		return nil, fmt.Errorf("error writing manifest: %w", err)
	}
	mg.logger.V(1).Info("Wrote manifest", "path", opts.OutputFile)
	return manifest, nil
}

// Build assembles the manifest without writing it.
func (mg *ManifestGenerator) Build(ctx context.Context, opts Options) (Manifest, error) {
	mg.logger.V(1).Info("Generating manifest", "projectDir", opts.ProjectDir)

	info, err := mg.ReadProjectInfo(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	var scripts []ContentScript
	hasScripts := false
	if opts.ScriptsDir != "" {
		scripts, hasScripts = mg.finder.FindContentScripts(opts.ScriptsDir)
	}

	discovered := []string{}
	if opts.GeneratePermissions {
		if mg.resolver == nil {
			return nil, ErrNoResolver
		}
		discovered, err = mg.resolver.Resolve(ctx, Entrypoints(opts, scripts))
		if err != nil {
			return nil, fmt.Errorf("error generating permissions: %w", err)
		}
	}

	var template Manifest
	if opts.TemplateFile != "" {
		template = mg.reader.ReadTemplate(normalizeUserPath(opts.TemplateFile))
	}

	manifest := mg.UpdateManifest(info, discovered, template, opts)
	if hasScripts {
		manifest["content_scripts"] = scripts
	}

	if err := mg.validator.Validate(manifest); err != nil {
		if opts.Strict {
			return nil, err
		}
		mg.logger.Info("Generated manifest failed validation", "error", err.Error())
	}
	return manifest, nil
}
