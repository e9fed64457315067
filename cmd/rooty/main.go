// Package main implements the rooty CLI: the admin server plus inspection
// and asset publishing commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var (
	// configPath overrides the default config file lookup.
	configPath string
	// rootDir overrides APP_ROOT for asset publishing.
	rootDir string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rooty",
	Short: "Run and inspect a rooty site",
	Long: `rooty boots the service hub, the hook registrar and the ACF integration
and serves the admin surface over HTTP.

Configuration is read from config/rooty.yaml under the project root, the
project .env file and the environment (SERVER_HTTP_PORT, ACF_SAVE_JSON, ...).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <root>/config/rooty.yaml)")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rooty by Fyrsmith Labs\n")
		fmt.Fprintf(out, "Version:    %s\n", version)
		fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
		fmt.Fprintf(out, "Build Date: %s\n", buildDate)
	},
}
