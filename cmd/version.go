package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackmac92/web-ext-manifest-gen/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of web-ext-manifest-gen",
	Long:  `All software has versions. This is web-ext-manifest-gen's`,
	Run: func(cmd *cobra.Command, args []string) {
		buildInfo := version.GetBuildInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", rootCmd.Name(), buildInfo)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
