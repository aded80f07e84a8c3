package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jackmac92/web-ext-manifest-gen/core"
	"github.com/jackmac92/web-ext-manifest-gen/internal/logger"
	"github.com/jackmac92/web-ext-manifest-gen/permissions"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
	cliLogger logr.Logger
	opts      = core.DefaultOptions()
	strategy  string
	semgrep   string
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:   "web-ext-manifest-gen",
	Short: "Generate a browser extension manifest from a project",
	Long: `web-ext-manifest-gen writes a WebExtension manifest.json assembled from
package.json, content script match headers, an optional template and,
with --generate-permissions, the permissions the sources actually use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := LoggerFrom(cmd.Context())

		generator := core.NewManifestGenerator(logger)
		if opts.GeneratePermissions {
			resolver, err := newResolver(logger)
			if err != nil {
				logger.Error(err, "Failed to configure permission discovery")
				return err
			}
			generator.WithResolver(resolver)
		}

		if _, err := generator.Generate(cmd.Context(), opts); err != nil {
			logger.Error(err, "Failed to generate manifest")
			return err
		}
		absPath, _ := filepath.Abs(opts.OutputFile)
		fmt.Printf("%s generated successfully\n", absPath)
		return nil
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cliLogger.IsZero() {
			cliLogger = logger.NewConsoleLogger(verbose, logFormat == "json")
		}
		ctx := logr.NewContext(context.Background(), cliLogger)
		cmd.SetContext(ctx)
	},
}

func newResolver(logger logr.Logger) (*permissions.Resolver, error) {
	s, err := permissions.NewStrategy(logger, permissions.Options{
		Strategy:      strategy,
		ProjectDir:    opts.ProjectDir,
		Graph:         permissions.GraphOptions{Browser: true},
		SemgrepBinary: semgrep,
		KeepArtifact:  debug,
	})
	if err != nil {
		return nil, err
	}
	return permissions.NewResolver(logger, permissions.DefaultRules, s), nil
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.web-ext-manifest-gen.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose mode")
	pf.StringVar(&logFormat, "log-format", "", "json or text (default is text)")
	pf.StringVar(&opts.ProjectDir, "project-dir", opts.ProjectDir, "Project directory containing package.json")
	pf.StringVarP(&opts.ScriptsDir, "scripts", "s", "", "Directory of content scripts")
	pf.StringSliceVar(&opts.BackgroundScripts, "background-scripts", nil, "Background scripts, also used as scan entrypoints")
	pf.StringVar(&strategy, "strategy", permissions.StrategyDeps, "Permission discovery strategy: deps or bundle")
	pf.StringVar(&semgrep, "semgrep", "semgrep", "Structural search executable used by the bundle strategy")
	pf.BoolVar(&debug, "debug", false, "Keep the bundled artifact for inspection")

	f := rootCmd.Flags()
	f.StringVarP(&opts.TemplateFile, "template", "t", "", "Template manifest (JSON with comments, or YAML)")
	f.StringVar(&opts.DevToolsPage, "dev-tools", "", "Devtools page")
	f.BoolVar(&opts.PersistentBackground, "persistent-background", opts.PersistentBackground, "Mark the background page persistent")
	f.BoolVar(&opts.GeneratePermissions, "generate-permissions", false, "Discover permissions from the sources")
	f.StringVar(&opts.Locale, "locale", opts.Locale, "Default locale")
	f.StringSliceVarP(&opts.Permissions, "permissions", "p", opts.Permissions, "Additional required permissions")
	f.StringSliceVar(&opts.OptionalPermissions, "optional-permissions", nil, "Optional permissions")
	f.StringVarP(&opts.OutputFile, "output", "o", opts.OutputFile, "Manifest file to write")
	f.BoolVar(&opts.Strict, "strict", false, "Fail when the generated manifest is structurally invalid")

	for _, key := range []string{"verbose", "log-format", "strategy", "semgrep"} {
		if err := viper.BindPFlag(key, pf.Lookup(key)); err != nil {
			fmt.Printf("Error binding %s flag: %v\n", key, err)
			os.Exit(1)
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".web-ext-manifest-gen")
	}

	viper.AutomaticEnv()

	// Just read the config silently
	viper.ReadInConfig()

	logFormat = viper.GetString("log-format")
	verbose = viper.GetBool("verbose")
	strategy = viper.GetString("strategy")
	semgrep = viper.GetString("semgrep")
}

func LoggerFrom(ctx context.Context, keysAndValues ...interface{}) logr.Logger {
	if cliLogger.IsZero() {
		cliLogger = logger.NewConsoleLogger(verbose, logFormat == "json")
	}
	newLogger := cliLogger
	if ctx != nil {
		if l, err := logr.FromContext(ctx); err == nil {
			newLogger = l
		}
	}
	return newLogger.WithValues(keysAndValues...)
}
