package core

// UpdateManifest layers the manifest: generated defaults, then the
// template, then the keys the generator always owns. Permission lists are
// unions of every layer plus the command-line additions.
func (mg *ManifestGenerator) UpdateManifest(info ProjectInfo, discovered []string, template Manifest, opts Options) Manifest {
	manifest := Manifest{
		"permissions":          discovered,
		"optional_permissions": []string{},
		"version":              info.Version,
		"description":          info.Description,
		"browser_action": map[string]any{
			"default_title": info.Name,
		},
	}
	for key, value := range template {
		manifest[key] = value
	}
	manifest["manifest_version"] = ManifestVersion
	manifest["default_locale"] = opts.Locale
	manifest["name"] = info.Name

	if opts.DevToolsPage != "" {
		manifest["devtools_page"] = opts.DevToolsPage
	}
	if len(opts.BackgroundScripts) > 0 {
		manifest["background"] = Background{
			Scripts:    append([]string(nil), opts.BackgroundScripts...),
			Persistent: opts.PersistentBackground,
		}
	}

	required := mergePermissions(discovered, toStringSlice(template["permissions"]), opts.Permissions)
	optional := mergePermissions(toStringSlice(template["optional_permissions"]), opts.OptionalPermissions)
	manifest["permissions"] = excludePermissions(required, optional)
	manifest["optional_permissions"] = optional

	mg.logger.V(1).Info("Merged permissions", "permissions", manifest["permissions"], "optional", optional)
	return manifest
}

// mergePermissions concatenates lists keeping the first occurrence of each.
func mergePermissions(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, p := range list {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func excludePermissions(required, optional []string) []string {
	drop := make(map[string]bool, len(optional))
	for _, p := range optional {
		drop[p] = true
	}
	out := []string{}
	for _, p := range required {
		if !drop[p] {
			out = append(out, p)
		}
	}
	return out
}
