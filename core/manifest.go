package core

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
)

const (
	ManifestVersion  = 2
	UniversalPattern = "*://*/*"
)

// Manifest is the generated document. Keys follow the extension manifest.
type Manifest map[string]any

type ContentScript struct {
	Matches []string `json:"matches"`
	JS      []string `json:"js"`
}

type Background struct {
	Scripts    []string `json:"scripts"`
	Persistent bool     `json:"persistent"`
}

type Options struct {
	ProjectDir           string
	ScriptsDir           string
	DevToolsPage         string
	TemplateFile         string
	BackgroundScripts    []string
	PersistentBackground bool
	GeneratePermissions  bool
	Locale               string
	Permissions          []string
	OptionalPermissions  []string
	OutputFile           string
	Strict               bool
}

func DefaultOptions() Options {
	return Options{
		ProjectDir:           ".",
		PersistentBackground: true,
		Locale:               "en",
		Permissions:          []string{"activeTab"},
		OutputFile:           "manifest.json",
	}
}

// PermissionResolver infers permissions from entrypoint source.
type PermissionResolver interface {
	Resolve(ctx context.Context, entrypoints []string) ([]string, error)
}

type TemplateReader interface {
	ReadTemplate(templateFile string) Manifest
}

type ManifestWriter interface {
	WriteManifest(manifest Manifest, manifestFile string) error
}

type ContentScriptFinder interface {
	FindContentScripts(dir string) ([]ContentScript, bool)
}

type ManifestGenerator struct {
	logger    logr.Logger
	fs        afero.Fs
	resolver  PermissionResolver
	reader    TemplateReader
	writer    ManifestWriter
	finder    ContentScriptFinder
	validator *ManifestValidator
}

func NewManifestGenerator(logger logr.Logger) *ManifestGenerator {
	mg := &ManifestGenerator{
		logger:    logger,
		fs:        afero.NewOsFs(),
		validator: NewManifestValidator(),
	}
	mg.reader = mg
	mg.writer = mg
	mg.finder = mg
	return mg
}

func (mg *ManifestGenerator) WithFS(fs afero.Fs) *ManifestGenerator {
	mg.fs = fs
	return mg
}

func (mg *ManifestGenerator) WithResolver(resolver PermissionResolver) *ManifestGenerator {
	mg.resolver = resolver
	return mg
}
