// Package cmd implements the lgserver CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("lgserver version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

var rootCmd = &cobra.Command{
	Use:   "lgserver",
	Short: "lgserver aggregates BGP state from every configured node's lgproxy",
	Long: "lgserver polls every configured node's lgproxy sidecar on a fixed tick,\n" +
		"keeps a live snapshot and diff stream of their BIRD protocol tables, and\n" +
		"exposes them plus on-demand traceroute/route-lookup/protocol-detail\n" +
		"queries over HTTP and WebSocket to the looking glass frontend.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "/etc/lgserver/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("lgserver version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
