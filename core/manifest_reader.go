package core

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ReadTemplate loads a template manifest. Any failure degrades to an empty
// template with a warning.
func (mg *ManifestGenerator) ReadTemplate(templateFile string) Manifest {
	template, err := mg.parseTemplate(templateFile)
	if err != nil {
		mg.logger.Info("Failed to parse a template manifest, using empty object", "path", templateFile, "error", err.Error())
		return Manifest{}
	}
	mg.logger.V(1).Info("Template manifest read successfully", "path", templateFile, "keys", len(template))
	return template
}

func (mg *ManifestGenerator) parseTemplate(templateFile string) (Manifest, error) {
	data, err := afero.ReadFile(mg.fs, templateFile)
	if err != nil {
		return nil, fmt.Errorf("error reading template: %w", err)
	}

	var template Manifest
	switch strings.ToLower(filepath.Ext(templateFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &template)
	default:
		err = json.Unmarshal(jsonc.ToJSON(data), &template)
	}
	if err != nil {
		return nil, fmt.Errorf("error unmarshaling template: %w", err)
	}
	if template == nil {
		return nil, fmt.Errorf("template %s is not an object", templateFile)
	}
	return template, nil
}
