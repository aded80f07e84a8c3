package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackmac92/web-ext-manifest-gen/core"
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Print the permissions discovered in the project sources",
	Long:  `Runs permission discovery over the background and content scripts (or the whole project when none are given) and prints one permission per line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := LoggerFrom(cmd.Context())

		resolver, err := newResolver(logger)
		if err != nil {
			logger.Error(err, "Failed to configure permission discovery")
			return err
		}

		var scripts []core.ContentScript
		if opts.ScriptsDir != "" {
			scripts, _ = core.NewManifestGenerator(logger).FindContentScripts(opts.ScriptsDir)
		}
		perms, err := resolver.Resolve(cmd.Context(), core.Entrypoints(opts, scripts))
		if err != nil {
			logger.Error(err, "Failed to discover permissions")
			return err
		}
		for _, p := range perms {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(permissionsCmd)
}
