package core

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed manifest.schema.json
var manifestSchema string

const manifestSchemaURL = "https://web-ext-manifest-gen/manifest.schema.json"

// ManifestValidator checks the structure of a generated manifest. It does
// not know about individual permission names or host patterns.
type ManifestValidator struct {
	schema *jsonschema.Schema
}

func NewManifestValidator() *ManifestValidator {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(manifestSchemaURL, bytes.NewReader([]byte(manifestSchema))); err != nil {
		panic(err)
	}
	return &ManifestValidator{schema: compiler.MustCompile(manifestSchemaURL)}
}

func (v *ManifestValidator) Validate(manifest Manifest) error {
	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("error encoding manifest for validation: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("error decoding manifest for validation: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}
	return nil
}
